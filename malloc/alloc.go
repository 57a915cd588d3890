package malloc

import (
	"github.com/ehrlich-b/microkern/kernel/kerr"
)

const wordBytes = 4

// neededChunkWords converts a requested payload size in bytes to a whole
// chunk size in words (header included, footer excluded): enough payload
// words to hold sizeBytes, rounded up to the next even word count so it
// always lands on a valid small bucket boundary, and never below
// MinChunkSizeWord.
func (h *Heap) neededChunkWords(sizeBytes uint32) uint32 {
	payloadWords := (sizeBytes + wordBytes - 1) / wordBytes
	total := payloadWords + dataOffset
	if total < h.cfg.MinChunkSizeWord {
		total = h.cfg.MinChunkSizeWord
	}
	if total%2 != 0 {
		total++
	}
	return total
}

// bump grows the arena by n words, returning the address of the new
// chunk's header, or NoMemory if the arena is exhausted.
func (h *Heap) bump(n uint32) (uint32, error) {
	if h.brk+n > uint32(len(h.mem)) {
		return 0, kerr.New("alloc", kerr.NoMemory, "arena exhausted")
	}
	addr := h.brk
	h.brk += n
	return addr, nil
}

// takeFromFreeChunk marks chunkAddr (currently free, of chunkSize words)
// allocated for a `needed`-word request: if the remainder clears
// MinChunkSizeWord it is split off and re-indexed as a new free chunk,
// otherwise the whole chunk is handed over unsplit.
func (h *Heap) takeFromFreeChunk(chunkAddr, chunkSize, needed uint32) uint32 {
	if chunkSize-needed >= h.cfg.MinChunkSizeWord {
		remainderAddr := chunkAddr + needed
		remainderSize := chunkSize - needed
		h.setHeader(chunkAddr, needed, true, h.isPrevFree(chunkAddr))
		h.setHeader(remainderAddr, remainderSize, false, false)
		h.setFooter(remainderAddr, remainderSize)
		h.setPrevFree(remainderAddr+remainderSize, true)
		h.indexAsFree(remainderAddr)
		return chunkAddr
	}
	h.setHeader(chunkAddr, chunkSize, true, h.isPrevFree(chunkAddr))
	h.setPrevFree(chunkAddr+chunkSize, false)
	return chunkAddr
}

// Alloc implements alloc(size, align, client_tid) per spec §4.F. The large
// path first consults the trie (resolving the add_to_large_free_chunks
// open question the same way for both alloc and dealloc, see DESIGN.md)
// before falling back to bumping fresh arena space.
func (h *Heap) Alloc(sizeBytes, align uint32, clientTid int) (uint32, error) {
	if align > h.cfg.MinAlignBytes {
		return 0, kerr.New("alloc", kerr.InvalidArg, "alignment larger than MIN_ALIGN is not supported")
	}
	if clientTid < 0 || clientTid >= len(h.perClientLive) {
		return 0, kerr.Task("alloc", clientTid, kerr.InvalidTask, "client tid out of range")
	}

	needed := h.neededChunkWords(sizeBytes)

	if !h.isSmall(needed) {
		if idx, ok := h.largeFree.UnlinkEqOrAbove(needed); ok {
			chunkAddr := uint32(idx)
			chunkAddr = h.takeFromFreeChunk(chunkAddr, h.sizeOf(chunkAddr), needed)
			h.perClientLive[clientTid].Push(int32(chunkAddr))
			return dataPtr(chunkAddr), nil
		}
		addr, err := h.bump(needed)
		if err != nil {
			return 0, err
		}
		h.setHeader(addr, needed, true, false)
		h.setPrevFree(addr+needed, false)
		h.perClientLive[clientTid].Push(int32(addr))
		return dataPtr(addr), nil
	}

	i := classIndex(needed)
	mask := h.smallUsed &^ ((1 << uint(i)) - 1)
	if mask != 0 {
		found := trailingZeros32(mask)
		idx, _ := h.smallFree[found].Pop()
		if h.smallFree[found].Empty() {
			h.smallUsed &^= 1 << uint(found)
		}
		chunkAddr := h.takeFromFreeChunk(uint32(idx), h.sizeOf(uint32(idx)), needed)
		h.perClientLive[clientTid].Push(int32(chunkAddr))
		return dataPtr(chunkAddr), nil
	}

	addr, err := h.bump(needed)
	if err != nil {
		return 0, err
	}
	h.setHeader(addr, needed, true, false)
	h.perClientLive[clientTid].Push(int32(addr))
	return dataPtr(addr), nil
}

// Dealloc implements dealloc(ptr, client_tid) per spec §4.F, including the
// forward-always / backward-only-if-PREV_FREE coalescing asymmetry the
// original implementation encodes (see DESIGN.md).
func (h *Heap) Dealloc(ptr uint32, clientTid int) error {
	if clientTid < 0 || clientTid >= len(h.perClientLive) {
		return kerr.Task("dealloc", clientTid, kerr.InvalidTask, "client tid out of range")
	}
	addr := chunkFromData(ptr)
	if addr >= uint32(len(h.mem)) || !h.isAllocated(addr) {
		return kerr.New("dealloc", kerr.InvalidArg, "pointer does not name a live allocation")
	}

	h.perClientLive[clientTid].Remove(int32(addr))

	size := h.sizeOf(addr)

	next := addr + size
	if next < uint32(len(h.mem)) && !h.isAllocated(next) && h.sizeOf(next) != 0 {
		nextSize := h.sizeOf(next)
		h.unindexFree(next, nextSize)
		size += nextSize
	}

	if h.isPrevFree(addr) {
		prevSize := h.mem[addr-1] // trailing size word of the preceding chunk
		prevAddr := addr - prevSize
		h.unindexFree(prevAddr, prevSize)
		addr = prevAddr
		size += prevSize
	}

	h.setHeader(addr, size, false, h.isPrevFree(addr))
	h.setFooter(addr, size)
	h.setPrevFree(addr+size, true)

	h.indexAsFree(addr)
	return nil
}
