package malloc

// Config sizes one allocator instance: the small/large boundary, the
// splitting threshold, and the backing arena, per spec §4.F's "reference
// values" note (implementers may adjust the boundary as long as it stays
// explicit).
type Config struct {
	// NumSmallClasses buckets, one per even chunk size in
	// {MinChunkSizeWord, MinChunkSizeWord+2, ...}.
	NumSmallClasses int
	// MinChunkSizeWord is both the smallest small bucket's size and the
	// splitting threshold: a split that would leave a remainder smaller
	// than this is suppressed.
	MinChunkSizeWord uint32
	// LargeChunkMinReqSizeWord is the boundary between the small-bucket
	// path and the large bit-trie path, in chunk words (header + payload,
	// footer excluded).
	LargeChunkMinReqSizeWord uint32
	// MinAlignBytes is the largest alignment alloc() accepts.
	MinAlignBytes uint32
	// ArenaWords sizes the backing word arena the allocator bumps brk
	// across.
	ArenaWords int
	// NumClients sizes per_client_live, indexed by client tid.
	NumClients int
}

// DefaultConfig returns the reference size classes from spec §4.F: small
// chunks of 6, 8, .., 68 words (32 buckets), large above that, 8-byte
// alignment, and an arena sized for the given number of client tasks.
func DefaultConfig(numClients int) Config {
	return Config{
		NumSmallClasses:          32,
		MinChunkSizeWord:         6,
		LargeChunkMinReqSizeWord: 70,
		MinAlignBytes:            8,
		ArenaWords:               1 << 16,
		NumClients:               numClients,
	}
}

// classIndex maps a chunk size in words to its small bucket, per spec
// §4.F: "index = (size_word - 5) / 2".
func classIndex(sizeWords uint32) int {
	return int((sizeWords - 5) / 2)
}

// classSize is classIndex's inverse.
func classSize(i int) uint32 {
	return uint32(2*i + 6)
}
