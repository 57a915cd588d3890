package kernel

// Config holds the fixed parameters of a kernel instance: table sizes and
// scheduling constants that the reference hard-codes as compile-time
// constants. Kept as a struct with a Default constructor so tests can stand
// up small kernels (few tasks, short quanta) without touching production
// sizing.
type Config struct {
	// NumTasks is the size of the fixed task table; tid is an index into it.
	NumTasks int
	// NumPriorities is the number of run-queues, P in spec terms. Priority 0
	// is highest.
	NumPriorities int
	// TimeSlice is the quantum (in ticks) a task is refilled to on dispatch.
	TimeSlice int32
	// PageSize is used only by callers preparing stack regions; the
	// scheduler itself is agnostic to it.
	PageSize int
}

// DefaultConfig returns the reference sizing: 16 tasks, 8 priority levels,
// a 10-tick quantum.
func DefaultConfig() Config {
	return Config{
		NumTasks:      16,
		NumPriorities: 8,
		TimeSlice:     10,
		PageSize:      4096,
	}
}
