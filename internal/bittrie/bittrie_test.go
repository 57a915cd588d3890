package bittrie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	node Node
	key  uint32
	next int32
}

func newTestTrie(n int) (*Trie, []item) {
	items := make([]item, n)
	trie := New(8,
		func(i int32) *Node { return &items[i].node },
		func(i int32) uint32 { return items[i].key },
		func(i int32) *int32 { return &items[i].next },
	)
	return trie, items
}

func TestInsertAndUnlinkLowestSingle(t *testing.T) {
	trie, items := newTestTrie(4)
	items[0].key = 42
	trie.Insert(0)

	require.False(t, trie.Empty())
	idx, ok := trie.UnlinkLowest()
	require.True(t, ok)
	require.Equal(t, int32(0), idx)
	require.True(t, trie.Empty())
}

func TestUnlinkLowestPicksSmallest(t *testing.T) {
	trie, items := newTestTrie(8)
	keys := []uint32{100, 5, 50, 7}
	for i, k := range keys {
		items[i].key = k
		trie.Insert(int32(i))
	}

	idx, ok := trie.UnlinkLowest()
	require.True(t, ok)
	require.Equal(t, uint32(5), items[idx].key)

	idx, ok = trie.UnlinkLowest()
	require.True(t, ok)
	require.Equal(t, uint32(7), items[idx].key)
}

func TestEqualKeysChainAndPopLIFO(t *testing.T) {
	trie, items := newTestTrie(8)
	for i := 0; i < 3; i++ {
		items[i].key = 64
		trie.Insert(int32(i))
	}
	// also one distinct key so the trie isn't trivially single-node
	items[3].key = 1000
	trie.Insert(3)

	// chain pops LIFO: most recently inserted (2) comes out first
	idx, ok := trie.UnlinkEqOrAbove(64)
	require.True(t, ok)
	require.Equal(t, int32(2), idx)

	idx, ok = trie.UnlinkEqOrAbove(64)
	require.True(t, ok)
	require.Equal(t, int32(1), idx)

	idx, ok = trie.UnlinkEqOrAbove(64)
	require.True(t, ok)
	require.Equal(t, int32(0), idx)

	// key 64 now fully drained; next request for >=64 should find 1000
	idx, ok = trie.UnlinkEqOrAbove(64)
	require.True(t, ok)
	require.Equal(t, int32(3), idx)
}

func TestUnlinkEqOrAboveExactMatch(t *testing.T) {
	trie, items := newTestTrie(4)
	items[0].key = 16
	items[1].key = 32
	trie.Insert(0)
	trie.Insert(1)

	idx, ok := trie.UnlinkEqOrAbove(32)
	require.True(t, ok)
	require.Equal(t, int32(1), idx)
}

func TestUnlinkEqOrAboveFallsBackAbove(t *testing.T) {
	trie, items := newTestTrie(4)
	items[0].key = 40
	trie.Insert(0)

	idx, ok := trie.UnlinkEqOrAbove(10)
	require.True(t, ok)
	require.Equal(t, int32(0), idx)
}

func TestUnlinkEqOrAboveNoneAvailable(t *testing.T) {
	trie, items := newTestTrie(4)
	items[0].key = 10
	trie.Insert(0)

	_, ok := trie.UnlinkEqOrAbove(^uint32(0))
	require.False(t, ok)
}

func TestRemoveSpecificChunkWithSurvivingSiblings(t *testing.T) {
	trie, items := newTestTrie(8)
	// force nesting: three keys sharing every nibble but the last, so each
	// later insert lands one level below the previous one
	items[0].key = 0x20
	items[1].key = 0x21
	items[2].key = 0x22
	trie.Insert(0)
	trie.Insert(1)
	trie.Insert(2)

	trie.Remove(1)

	// the other two keys must still be reachable in order
	idx, ok := trie.UnlinkLowest()
	require.True(t, ok)
	require.Equal(t, uint32(0x20), items[idx].key)

	idx, ok = trie.UnlinkLowest()
	require.True(t, ok)
	require.Equal(t, uint32(0x22), items[idx].key)

	require.True(t, trie.Empty())
}

func TestRemoveRegisteredNodePromotesChainMember(t *testing.T) {
	trie, items := newTestTrie(4)
	items[0].key = 77
	items[1].key = 77
	trie.Insert(0)
	trie.Insert(1) // chains onto node 0

	trie.Remove(0) // 0 is the registered node; 1 should be promoted

	idx, ok := trie.UnlinkLowest()
	require.True(t, ok)
	require.Equal(t, int32(1), idx)
	require.True(t, trie.Empty())
}

func TestRemoveChainMemberDirectly(t *testing.T) {
	trie, items := newTestTrie(4)
	items[0].key = 9
	items[1].key = 9
	trie.Insert(0)
	trie.Insert(1)

	trie.Remove(1) // chain member, not the registered node

	idx, ok := trie.UnlinkLowest()
	require.True(t, ok)
	require.Equal(t, int32(0), idx)
	require.True(t, trie.Empty())
}
