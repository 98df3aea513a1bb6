package matcher

import (
	"time"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// PatternStatus represents the outcome of running one pattern over a text
type PatternStatus int

const (
	// PatternCompleted indicates the pattern finished successfully
	PatternCompleted PatternStatus = iota
	// PatternTimedOut indicates the pattern exceeded its timeout
	PatternTimedOut
	// PatternError indicates the pattern encountered an error
	PatternError
	// PatternSkipped indicates the prefilter ruled the pattern out
	PatternSkipped
)

// String returns the string representation of PatternStatus
func (s PatternStatus) String() string {
	switch s {
	case PatternCompleted:
		return "completed"
	case PatternTimedOut:
		return "timeout"
	case PatternError:
		return "error"
	case PatternSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// PatternStat contains statistics about a single pattern execution
type PatternStat struct {
	PatternID string        // Pattern identifier
	Status    PatternStatus // Execution status
	Duration  time.Duration // Time taken to execute
	Matches   int           // Number of occurrences found
	Error     error         // Error if Status is PatternError or PatternTimedOut
}

// ResultSummary provides aggregate statistics for a scan
type ResultSummary struct {
	TotalPatterns     int // Patterns in the set
	CompletedPatterns int // Patterns that ran to completion
	TimedOutPatterns  int // Patterns that timed out
	ErrorPatterns     int // Patterns that failed
	SkippedPatterns   int // Patterns ruled out by the prefilter
}

// PatternResult holds the occurrences of one pattern in one text.
type PatternResult struct {
	PatternID   string              `json:"pattern_id"`
	PatternName string              `json:"pattern_name"`
	Occurrences []*types.Occurrence `json:"occurrences"`
}

// MatchResult contains matches and execution statistics
type MatchResult struct {
	Results []*PatternResult       // Patterns with at least one occurrence, in set order
	Stats   map[string]PatternStat // Statistics for each pattern (keyed by PatternID)
	Summary ResultSummary          // Aggregate statistics
}

// OccurrenceCount returns the total number of occurrences across all patterns.
func (r *MatchResult) OccurrenceCount() int {
	n := 0
	for _, pr := range r.Results {
		n += len(pr.Occurrences)
	}
	return n
}

func summarize(total int, stats map[string]PatternStat) ResultSummary {
	s := ResultSummary{TotalPatterns: total}
	for _, st := range stats {
		switch st.Status {
		case PatternCompleted:
			s.CompletedPatterns++
		case PatternTimedOut:
			s.TimedOutPatterns++
		case PatternError:
			s.ErrorPatterns++
		case PatternSkipped:
			s.SkippedPatterns++
		}
	}
	return s
}
