package matcher

import "time"

// parallelThreshold is the text size (bytes) from which a Set spreads its
// patterns over a worker pool.
const parallelThreshold = 10000

// Options configures a Set.
type Options struct {
	// Tolerant keeps scanning when a pattern times out or fails; the failure is
	// recorded in the pattern's PatternStat instead of aborting the scan.
	Tolerant bool

	// Timeout bounds a single ECMAScript match (0 = pattern.DefaultTimeout).
	Timeout time.Duration

	// Workers caps the worker pool used for large texts (0 = GOMAXPROCS).
	Workers int
}

// DefaultOptions returns the default options for the matcher
func DefaultOptions() Options {
	return Options{
		Tolerant: false,
		Timeout:  0,
	}
}
