// Package malloc implements the allocator task's heap: a bump-pointer
// arena with boundary-tag free chunks, indexed by a segregated small-bucket
// free list (spec §4.F) and a bit-trie for everything above it
// (internal/bittrie, §4.B).
//
// The arena is modelled as a flat word array rather than raw bytes: there
// is no host memory to back a real pointer in this hosted build, and a
// word-addressed arena is the natural Go stand-in that still exercises the
// exact header/footer bit arithmetic spec §4.F describes. A "pointer" is a
// word index into that array. Each chunk's first word is its header
// (size in words packed with the ALLOCATED and PREV_FREE flags); a free
// chunk's last word is a footer repeating its size, used to locate it from
// its successor during backward coalescing.
package malloc

import (
	"math/bits"

	"github.com/ehrlich-b/microkern/internal/bittrie"
	"github.com/ehrlich-b/microkern/internal/klist"
	"github.com/ehrlich-b/microkern/kernel/kerr"
)

const (
	flagAllocated uint32 = 1 << 0
	flagPrevFree  uint32 = 1 << 1
	headerShift          = 2
	// dataOffset is the distance in words from a chunk's header to its
	// payload (and hence the pointer returned to callers).
	dataOffset uint32 = 1
)

func encodeHeader(sizeWords uint32, allocated, prevFree bool) uint32 {
	w := sizeWords << headerShift
	if allocated {
		w |= flagAllocated
	}
	if prevFree {
		w |= flagPrevFree
	}
	return w
}

func decodeHeader(w uint32) (sizeWords uint32, allocated, prevFree bool) {
	return w >> headerShift, w&flagAllocated != 0, w&flagPrevFree != 0
}

// chunkMeta is the out-of-band bookkeeping for one arena word address: the
// intrusive links the free lists and the per-client live list thread
// through, plus the bit-trie node used once a chunk is large. Addressed in
// parallel with Heap.mem so it never needs to share bits with the header
// word itself.
type chunkMeta struct {
	smallLink  klist.SLink
	clientLink klist.SLink
	trieNode   bittrie.Node
	trieNext   int32
}

// Heap is one allocator's arena plus its free indices.
type Heap struct {
	cfg Config

	mem  []uint32
	meta []chunkMeta
	brk  uint32

	smallFree []*klist.SList
	smallUsed uint32
	largeFree *bittrie.Trie

	perClientLive []*klist.SList
}

// NewHeap allocates a fresh, empty arena sized per cfg.
func NewHeap(cfg Config) *Heap {
	h := &Heap{
		cfg:  cfg,
		mem:  make([]uint32, cfg.ArenaWords),
		meta: make([]chunkMeta, cfg.ArenaWords),
	}
	h.smallFree = make([]*klist.SList, cfg.NumSmallClasses)
	for i := range h.smallFree {
		h.smallFree[i] = klist.NewS(func(idx int32) *klist.SLink { return &h.meta[idx].smallLink })
	}
	h.largeFree = bittrie.New(8,
		func(idx int32) *bittrie.Node { return &h.meta[idx].trieNode },
		func(idx int32) uint32 { return h.sizeOf(uint32(idx)) },
		func(idx int32) *int32 { return &h.meta[idx].trieNext },
	)
	h.perClientLive = make([]*klist.SList, cfg.NumClients)
	for i := range h.perClientLive {
		h.perClientLive[i] = klist.NewS(func(idx int32) *klist.SLink { return &h.meta[idx].clientLink })
	}
	return h
}

func (h *Heap) sizeOf(addr uint32) uint32 {
	size, _, _ := decodeHeader(h.mem[addr])
	return size
}

func (h *Heap) isAllocated(addr uint32) bool {
	_, allocated, _ := decodeHeader(h.mem[addr])
	return allocated
}

func (h *Heap) isPrevFree(addr uint32) bool {
	_, _, prevFree := decodeHeader(h.mem[addr])
	return prevFree
}

func (h *Heap) setHeader(addr, sizeWords uint32, allocated, prevFree bool) {
	h.mem[addr] = encodeHeader(sizeWords, allocated, prevFree)
}

func (h *Heap) footerAddr(addr, sizeWords uint32) uint32 {
	return addr + sizeWords - 1
}

func (h *Heap) setFooter(addr, sizeWords uint32) {
	h.mem[h.footerAddr(addr, sizeWords)] = sizeWords
}

// setPrevFree stamps the PREV_FREE bit of the chunk at addr without
// touching its size or ALLOCATED bit.
func (h *Heap) setPrevFree(addr uint32, prevFree bool) {
	if addr >= uint32(len(h.mem)) {
		return
	}
	size, allocated, _ := decodeHeader(h.mem[addr])
	h.setHeader(addr, size, allocated, prevFree)
}

// dataPtr converts a chunk address to the pointer returned to callers.
func dataPtr(addr uint32) uint32 { return addr + dataOffset }

// chunkFromData recovers a chunk's header address from a caller pointer.
func chunkFromData(ptr uint32) uint32 { return ptr - dataOffset }

// isSmall reports whether sizeWords belongs on the segregated small-bucket
// path rather than the large trie.
func (h *Heap) isSmall(sizeWords uint32) bool {
	return sizeWords < h.cfg.LargeChunkMinReqSizeWord
}

// indexAsFree files the free chunk at addr into the small free list or the
// large trie depending on its size.
func (h *Heap) indexAsFree(addr uint32) {
	size := h.sizeOf(addr)
	if h.isSmall(size) {
		i := classIndex(size)
		h.smallFree[i].Push(int32(addr))
		h.smallUsed |= 1 << uint(i)
		return
	}
	h.largeFree.Insert(int32(addr))
}

// unindexFree removes addr from whichever free index currently holds it,
// given its (already known) size.
func (h *Heap) unindexFree(addr, size uint32) {
	if h.isSmall(size) {
		i := classIndex(size)
		h.smallFree[i].Remove(int32(addr))
		if h.smallFree[i].Empty() {
			h.smallUsed &^= 1 << uint(i)
		}
		return
	}
	h.largeFree.Remove(int32(addr))
}

// trailingZeros32 is the stdlib bit trick spec §4.F calls for directly
// ("mask small_used ... take trailing_zeros").
func trailingZeros32(x uint32) int {
	return bits.TrailingZeros32(x)
}

// ReadBytes reads length bytes starting at byte offset ptr into the arena,
// taking each word's bytes little-endian. ptr counts bytes, while
// Alloc/Dealloc pointers are word indices: a pointer p from Alloc names
// byte offset 4*p here. It satisfies syscall.Memory, letting a syscall read
// directly out of the arena (spec §6 ConsoleWrite(ptr, len)); boot wires
// boot.FlatMemory for that role instead.
func (h *Heap) ReadBytes(ptr, length uint32) ([]byte, error) {
	end := uint64(ptr) + uint64(length)
	if end > uint64(len(h.mem))*wordBytes {
		return nil, kerr.New("read_bytes", kerr.InvalidArg, "range outside arena")
	}
	out := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		byteIdx := ptr + i
		out[i] = byte(h.mem[byteIdx/wordBytes] >> (8 * (byteIdx % wordBytes)))
	}
	return out, nil
}
