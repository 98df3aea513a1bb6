package scanner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/enum"
	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/store"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

func testPatterns() []*types.PatternDef {
	return []*types.PatternDef{
		{ID: "t.kv", Name: "Key Value", Pattern: `(\w+)=(\w+)`, Keywords: []string{"="}},
		{ID: "t.nested", Name: "Nested", Pattern: `t(e)(st(\d?))`, Keywords: []string{"test"}},
	}
}

func TestNewCore_Builtin(t *testing.T) {
	c, err := NewCore(Config{})
	require.NoError(t, err)
	defer c.Close()

	builtin, err := GetBuiltinPatterns()
	require.NoError(t, err)
	assert.Equal(t, builtin, c.Patterns())

	d, err := c.Store().GetPattern("mi.date.1")
	require.NoError(t, err)
	assert.Equal(t, "ISO-8601 Date", d.Name)
}

func TestNewCore_InvalidPattern(t *testing.T) {
	_, err := NewCore(Config{Patterns: []*types.PatternDef{{ID: "bad", Pattern: "no group"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture group")
}

func TestCore_Scan(t *testing.T) {
	var logs bytes.Buffer
	c, err := NewCore(Config{Patterns: testPatterns(), Logger: NewWriterLogger(&logs)})
	require.NoError(t, err)
	defer c.Close()

	text := "a=1 test1test2"
	r, err := c.Scan(context.Background(), text, "inline:1")
	require.NoError(t, err)

	assert.Equal(t, "inline:1", r.Source)
	assert.Equal(t, types.ComputeTextID(text), r.TextID)
	assert.Empty(t, r.Warnings)
	require.Len(t, r.Results, 2)
	assert.Equal(t, "t.kv", r.Results[0].PatternID)
	assert.Equal(t, "t.nested", r.Results[1].PatternID)
	assert.Equal(t, 3, r.OccurrenceCount())

	nested := r.Results[1].Occurrences
	assert.Equal(t, []types.CaptureGroup{{Text: "e", Index: 5}, {Text: "st1", Index: 6}, {Text: "1", Index: -1}},
		nested[0].CaptureGroups)

	records, err := c.Store().GetOccurrences(r.TextID)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	provs, err := c.Store().GetProvenance(r.TextID)
	require.NoError(t, err)
	assert.Equal(t, []types.Provenance{types.InlineProvenance{Source: "inline:1"}}, provs)

	assert.Contains(t, logs.String(), "[debug] Scanned inline:1: 3 occurrences")
}

func TestCore_TimeoutBecomesWarning(t *testing.T) {
	defs := []*types.PatternDef{
		{ID: "t.slow", Name: "Slow", Pattern: `^(a+)+$`, Engine: "ecmascript"},
		{ID: "t.fast", Name: "Fast", Pattern: `(a{3})`},
	}
	c, err := NewCore(Config{Patterns: defs, Matcher: matcher.Options{Timeout: 10 * time.Millisecond}})
	require.NoError(t, err)
	defer c.Close()

	r, err := c.Scan(context.Background(), strings.Repeat("a", 40)+"!", "slow")
	require.NoError(t, err)

	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "pattern t.slow timed out on slow")
	require.Len(t, r.Results, 1)
	assert.Equal(t, "t.fast", r.Results[0].PatternID)
}

func TestCore_Incremental(t *testing.T) {
	s := store.NewMemory()
	c, err := NewCore(Config{Patterns: testPatterns(), Store: s, Incremental: true})
	require.NoError(t, err)

	first, err := c.Scan(context.Background(), "x=1", "first")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Scan(context.Background(), "x=1", "second")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Empty(t, second.Results)

	provs, err := s.GetProvenance(first.TextID)
	require.NoError(t, err)
	assert.Len(t, provs, 2)

	c.Close()
	// A store passed in stays usable after Close.
	exists, err := s.TextExists(first.TextID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCore_ScanBatch(t *testing.T) {
	c, err := NewCore(Config{Patterns: testPatterns()})
	require.NoError(t, err)
	defer c.Close()

	batch, err := c.ScanBatch(context.Background(), []ContentItem{
		{Source: "one", Content: "a=1 b=2"},
		{Source: "two", Content: "nothing"},
		{Source: "three", Content: "test9"},
	})
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, "two", batch.Results[1].Source)
	assert.Empty(t, batch.Results[1].Results)
}

func TestCore_ScanEnumerator(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.env"), []byte("user=alice\nrole=admin\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("test1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("no matches"), 0o644))

	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer s.Close()

	c, err := NewCore(Config{Patterns: testPatterns(), Store: s})
	require.NoError(t, err)
	defer c.Close()

	var sources []string
	summary, err := c.ScanEnumerator(context.Background(), enum.NewFilesystemEnumerator(enum.Config{Root: root}),
		func(r *ScanResult) error {
			sources = append(sources, filepath.Base(r.Source))
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Texts)
	assert.Equal(t, 3, summary.Occurrences)
	assert.ElementsMatch(t, []string{"a.env", "b.txt", "c.txt"}, sources)

	all, err := s.GetAllOccurrences()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNoopLogger(t *testing.T) {
	assert.NotPanics(t, func() { NoopLogger{}.Log("ignored %d", 1) })
}

// mapSink is a TextSink kept in memory.
type mapSink map[types.TextID]string

func (m mapSink) Put(text string) (types.TextID, error) {
	id := types.ComputeTextID(text)
	m[id] = text
	return id, nil
}

func TestCore_KeepsTextsWithOccurrences(t *testing.T) {
	sink := mapSink{}
	c, err := NewCore(Config{Patterns: testPatterns(), Texts: sink})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Scan(context.Background(), "a=1", "one")
	require.NoError(t, err)
	_, err = c.Scan(context.Background(), "no occurrences", "two")
	require.NoError(t, err)

	assert.Equal(t, mapSink{types.ComputeTextID("a=1"): "a=1"}, sink)
}
