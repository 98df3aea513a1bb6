package matcher

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/matchindex/pkg/pattern"
	"github.com/praetorian-inc/matchindex/pkg/prefilter"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

// Matcher runs a fixed collection of patterns over texts.
type Matcher interface {
	// Match runs every candidate pattern over text and resolves capture offsets.
	Match(ctx context.Context, text string) (*MatchResult, error)

	// Close releases resources held by the matcher.
	Close() error
}

// Set is a Matcher over compiled catalog definitions. Patterns are compiled
// once; a keyword prefilter decides which of them run against a given text.
type Set struct {
	defs      []*types.PatternDef
	patterns  []*pattern.Pattern
	index     map[*types.PatternDef]int
	prefilter *prefilter.Prefilter
	opts      Options
}

// CompileDef compiles a catalog definition. timeout is the ECMAScript per-match
// timeout (0 = pattern.DefaultTimeout).
func CompileDef(d *types.PatternDef, timeout time.Duration) (*pattern.Pattern, error) {
	engine, err := pattern.ParseEngine(d.Engine)
	if err != nil {
		return nil, err
	}
	return pattern.Compile(d.Pattern,
		pattern.WithFlags(d.Flags),
		pattern.WithEngine(engine),
		pattern.WithTimeout(timeout),
	)
}

// NewSet compiles defs. Every definition must compile and contain a
// capturing group.
func NewSet(defs []*types.PatternDef, opts Options) (*Set, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("no patterns provided")
	}

	s := &Set{
		defs:      defs,
		patterns:  make([]*pattern.Pattern, len(defs)),
		index:     make(map[*types.PatternDef]int, len(defs)),
		prefilter: prefilter.New(defs),
		opts:      opts,
	}
	for i, d := range defs {
		p, err := CompileDef(d, opts.Timeout)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", d.ID, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pattern %s: %w", d.ID, err)
		}
		s.patterns[i] = p
		s.index[d] = i
	}
	return s, nil
}

// Len returns the number of patterns in the set.
func (s *Set) Len() int {
	return len(s.defs)
}

// Match implements Matcher. Texts of parallelThreshold bytes or more are
// spread over a worker pool; results are always reported in set order.
//
// Without Options.Tolerant the first failing pattern aborts the scan.
// With it, failures are recorded in MatchResult.Stats and the scan goes on.
func (s *Set) Match(ctx context.Context, text string) (*MatchResult, error) {
	candidates := s.prefilter.Filter(text)

	stats := make(map[string]PatternStat, len(s.defs))
	for _, d := range s.defs {
		stats[d.ID] = PatternStat{PatternID: d.ID, Status: PatternSkipped}
	}

	runs := make([]patternRun, len(candidates))
	workers := 1
	if len(text) >= parallelThreshold {
		workers = s.opts.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, d := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runs[i] = s.run(text, d)
			if runs[i].err != nil && !s.opts.Tolerant {
				return fmt.Errorf("pattern %s: %w", d.ID, runs[i].err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &MatchResult{Stats: stats}
	for i, d := range candidates {
		r := runs[i]
		stats[d.ID] = r.stat(d.ID)
		if r.err == nil && len(r.occurrences) > 0 {
			result.Results = append(result.Results, &PatternResult{
				PatternID:   d.ID,
				PatternName: d.Name,
				Occurrences: r.occurrences,
			})
		}
	}
	result.Summary = summarize(len(s.defs), stats)
	return result, nil
}

// Close implements Matcher.
func (s *Set) Close() error {
	return nil
}

type patternRun struct {
	occurrences []*types.Occurrence
	duration    time.Duration
	err         error
}

func (s *Set) run(text string, d *types.PatternDef) patternRun {
	start := time.Now()
	occ, err := MatchAll(text, s.patterns[s.index[d]])
	return patternRun{occurrences: occ, duration: time.Since(start), err: err}
}

func (r patternRun) stat(id string) PatternStat {
	st := PatternStat{
		PatternID: id,
		Status:    PatternCompleted,
		Duration:  r.duration,
		Matches:   len(r.occurrences),
		Error:     r.err,
	}
	switch {
	case r.err == nil:
	case errors.Is(r.err, ErrTimeout):
		st.Status = PatternTimedOut
	default:
		st.Status = PatternError
	}
	return st
}
