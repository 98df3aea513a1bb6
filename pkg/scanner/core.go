// Package scanner runs a pattern catalog over texts and records the resolved
// occurrences in a store.
package scanner

import (
	"context"
	"fmt"
	"sync"

	"github.com/praetorian-inc/matchindex/pkg/catalog"
	"github.com/praetorian-inc/matchindex/pkg/enum"
	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/store"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

var (
	// cachedBuiltin holds the builtin catalog, loaded once per process
	cachedBuiltin    []*types.PatternDef
	cachedBuiltinErr error
	cacheOnce        sync.Once
)

// GetBuiltinPatterns returns the built-in catalog (cached).
func GetBuiltinPatterns() ([]*types.PatternDef, error) {
	cacheOnce.Do(func() {
		cachedBuiltin, cachedBuiltinErr = catalog.NewLoader().LoadBuiltin()
	})
	return cachedBuiltin, cachedBuiltinErr
}

// Config configures a Core.
type Config struct {
	// Patterns to run. Nil loads the builtin catalog.
	Patterns []*types.PatternDef

	// Matcher options. Tolerant is forced on: a failing pattern becomes a
	// warning on the affected text instead of aborting the scan.
	Matcher matcher.Options

	// Store receives results. Nil creates an in-memory store owned by the Core.
	Store store.Store

	// Incremental skips texts the store already holds.
	Incremental bool

	// Texts, if set, keeps every text that produced at least one occurrence.
	Texts TextSink

	Logger DebugLogger
}

// Core wraps the matcher and store for scanning operations
type Core struct {
	matcher     *matcher.Set
	patterns    []*types.PatternDef
	store       store.Store
	ownsStore   bool
	incremental bool
	texts       TextSink
	logger      DebugLogger
}

// TextSink keeps scanned texts so reports can show them later.
type TextSink interface {
	Put(text string) (types.TextID, error)
}

// NewCore compiles the patterns and prepares the store.
func NewCore(cfg Config) (*Core, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = NoopLogger{}
	}

	patterns := cfg.Patterns
	if patterns == nil {
		logger.Log("Loading builtin patterns (cached)...")
		var err error
		patterns, err = GetBuiltinPatterns()
		if err != nil {
			return nil, fmt.Errorf("loading builtin patterns: %w", err)
		}
	}
	logger.Log("Compiling %d patterns...", len(patterns))

	opts := cfg.Matcher
	opts.Tolerant = true
	m, err := matcher.NewSet(patterns, opts)
	if err != nil {
		return nil, err
	}

	c := &Core{
		matcher:     m,
		patterns:    patterns,
		store:       cfg.Store,
		incremental: cfg.Incremental,
		texts:       cfg.Texts,
		logger:      logger,
	}
	if c.store == nil {
		c.store = store.NewMemory()
		c.ownsStore = true
	}

	for _, d := range patterns {
		if err := c.store.AddPattern(d); err != nil {
			c.Close()
			return nil, fmt.Errorf("storing pattern %s: %w", d.ID, err)
		}
	}

	logger.Log("Scanner ready")
	return c, nil
}

// Patterns returns the patterns the core runs.
func (c *Core) Patterns() []*types.PatternDef {
	return c.patterns
}

// Store returns the store results are written to.
func (c *Core) Store() store.Store {
	return c.store
}

// Scan scans a single text handed in directly; source labels it.
func (c *Core) Scan(ctx context.Context, content, source string) (*ScanResult, error) {
	return c.ScanText(ctx, content, types.ComputeTextID(content), types.InlineProvenance{Source: source})
}

// ScanText scans one text, records it with its provenance and stores every
// occurrence found. Safe for concurrent use.
func (c *Core) ScanText(ctx context.Context, text string, id types.TextID, prov types.Provenance) (*ScanResult, error) {
	result := &ScanResult{Source: prov.Path(), TextID: id}

	if c.incremental {
		exists, err := c.store.TextExists(id)
		if err != nil {
			return nil, err
		}
		if exists {
			c.logger.Log("Skipping %s (%s already scanned)", prov.Path(), id)
			result.Cached = true
			return result, c.store.AddProvenance(id, prov)
		}
	}

	m, err := c.matcher.Match(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.store.AddText(id, int64(len(text))); err != nil {
		return nil, err
	}
	if c.texts != nil && m.OccurrenceCount() > 0 {
		if _, err := c.texts.Put(text); err != nil {
			return nil, fmt.Errorf("keeping text %s: %w", prov.Path(), err)
		}
	}
	if err := c.store.AddProvenance(id, prov); err != nil {
		return nil, err
	}
	for _, pr := range m.Results {
		if err := c.store.AddOccurrences(id, pr.PatternID, pr.Occurrences); err != nil {
			return nil, err
		}
	}

	for _, d := range c.patterns {
		st := m.Stats[d.ID]
		switch st.Status {
		case matcher.PatternTimedOut:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("pattern %s timed out on %s (skipping pattern for this text)", d.ID, prov.Path()))
		case matcher.PatternError:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("pattern %s failed on %s (skipping pattern for this text): %v", d.ID, prov.Path(), st.Error))
		}
	}

	result.Results = m.Results
	c.logger.Log("Scanned %s: %d occurrences, %d/%d patterns skipped by prefilter",
		prov.Path(), m.OccurrenceCount(), m.Summary.SkippedPatterns, m.Summary.TotalPatterns)
	return result, nil
}

// ScanBatch scans multiple content items. Items that fail are left out.
func (c *Core) ScanBatch(ctx context.Context, items []ContentItem) (*BatchScanResult, error) {
	batch := &BatchScanResult{Results: []ScanResult{}}

	for _, item := range items {
		r, err := c.Scan(ctx, item.Content, item.Source)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Log("Skipping %s: %v", item.Source, err)
			continue
		}
		batch.Results = append(batch.Results, *r)
		batch.Total += r.OccurrenceCount()
	}

	return batch, nil
}

// ScanEnumerator scans every text yielded by e. onResult, if set, is called
// once per text, serialized.
func (c *Core) ScanEnumerator(ctx context.Context, e enum.Enumerator, onResult func(*ScanResult) error) (*Summary, error) {
	var mu sync.Mutex
	summary := &Summary{}

	err := e.Enumerate(ctx, func(text string, id types.TextID, prov types.Provenance) error {
		r, err := c.ScanText(ctx, text, id, prov)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", prov.Path(), err)
		}

		mu.Lock()
		defer mu.Unlock()
		summary.Texts++
		if r.Cached {
			summary.CachedTexts++
		}
		summary.Occurrences += r.OccurrenceCount()
		summary.Warnings += len(r.Warnings)
		if onResult != nil {
			return onResult(r)
		}
		return nil
	})
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// Close releases scanner resources. A store passed in through Config stays open.
func (c *Core) Close() {
	if c.matcher != nil {
		c.matcher.Close()
	}
	if c.ownsStore && c.store != nil {
		c.store.Close()
	}
}
