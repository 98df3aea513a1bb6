package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/pattern"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// backends returns a fresh store per backend. PostgreSQL runs only when
// MATCHINDEX_TEST_POSTGRES holds a connection URL.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	b := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"sqlite-memory": func(t *testing.T) Store {
			s, err := NewSQLite(":memory:")
			require.NoError(t, err)
			return s
		},
		"sqlite-file": func(t *testing.T) Store {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "results.db"))
			require.NoError(t, err)
			return s
		},
	}
	if url := os.Getenv("MATCHINDEX_TEST_POSTGRES"); url != "" {
		b["postgres"] = func(t *testing.T) Store {
			s, err := NewPostgres(url)
			require.NoError(t, err)
			for _, table := range []string{"occurrences", "provenance", "patterns", "texts"} {
				_, err := s.DB().Exec("DELETE FROM " + table)
				require.NoError(t, err)
			}
			return s
		}
	}
	return b
}

func mustMatch(t *testing.T, text, source string) []*types.Occurrence {
	t.Helper()
	occ, err := matcher.MatchAll(text, pattern.MustCompile(source))
	require.NoError(t, err)
	return occ
}

func TestNew(t *testing.T) {
	s, err := New(Config{Memory: true})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()
	require.IsType(t, &SQLStore{}, s)
	assert.Equal(t, "sqlite", s.(*SQLStore).Dialect())

	_, err = New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestIsPostgresURL(t *testing.T) {
	assert.True(t, IsPostgresURL("postgres://user@localhost/db"))
	assert.True(t, IsPostgresURL("postgresql://localhost/db"))
	assert.False(t, IsPostgresURL("results.db"))
	assert.False(t, IsPostgresURL(":memory:"))
}

func TestStore_Contract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("texts", func(t *testing.T) { testTexts(t, open(t)) })
			t.Run("occurrences", func(t *testing.T) { testOccurrences(t, open(t)) })
			t.Run("provenance", func(t *testing.T) { testProvenance(t, open(t)) })
			t.Run("patterns", func(t *testing.T) { testPatterns(t, open(t)) })
		})
	}
}

func testTexts(t *testing.T, s Store) {
	defer s.Close()

	id := types.ComputeTextID("hello")
	exists, err := s.TextExists(id)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.AddText(id, 5))
	require.NoError(t, s.AddText(id, 5))

	exists, err = s.TextExists(id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func testOccurrences(t *testing.T, s Store) {
	defer s.Close()

	text := "k=v\nname=test1test2"
	id := types.ComputeTextID(text)
	require.NoError(t, s.AddText(id, int64(len(text))))

	kv := mustMatch(t, text, `(\w+)=(\w+)`)
	nested := mustMatch(t, text, `t(e)(st(\d?))`)
	require.NoError(t, s.AddOccurrences(id, "t.kv", kv))
	require.NoError(t, s.AddOccurrences(id, "t.nested", nested))
	// Re-adding is idempotent.
	require.NoError(t, s.AddOccurrences(id, "t.kv", kv))
	require.NoError(t, s.AddOccurrences(id, "t.empty", nil))

	records, err := s.GetOccurrences(id)
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, id, first.TextID)
	assert.Equal(t, "t.kv", first.PatternID)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "k=v", first.Match())
	assert.Equal(t, []types.CaptureGroup{{Text: "k", Index: 0}, {Text: "v", Index: 2}}, first.CaptureGroups)

	second := records[1]
	assert.Equal(t, "name=test1test2", second.Match())
	assert.Equal(t, 4, second.Index)
	assert.Equal(t, types.SourcePoint{Line: 2, Column: 1}, second.Location.Source.Start)
	assert.Equal(t, types.SourcePoint{Line: 2, Column: 16}, second.Location.Source.End)

	// The unresolved sentinel survives the round trip.
	nestedRec := records[2]
	assert.Equal(t, "t.nested", nestedRec.PatternID)
	assert.Equal(t, types.Unresolved, nestedRec.CaptureGroups[2].Index)

	occ := nestedRec.Occurrence()
	assert.Equal(t, nested[0].All, occ.All)
	assert.Equal(t, nested[0].CaptureGroups, occ.CaptureGroups)
	assert.Empty(t, occ.Input)

	other := types.ComputeTextID("other")
	records, err = s.GetOccurrences(other)
	require.NoError(t, err)
	assert.Empty(t, records)

	all, err := s.GetAllOccurrences()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testProvenance(t *testing.T, s Store) {
	defer s.Close()

	id := types.ComputeTextID("content")
	require.NoError(t, s.AddText(id, 7))

	when := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	git := types.GitProvenance{
		RepoPath: "/repo",
		BlobPath: "config/app.env",
		Commit:   &types.CommitInfo{CommitID: "abc123", Author: "Dev <dev@example.com>", Timestamp: when},
	}
	file := types.FileProvenance{FilePath: "/tmp/app.env"}

	require.NoError(t, s.AddProvenance(id, file))
	require.NoError(t, s.AddProvenance(id, git))
	require.NoError(t, s.AddProvenance(id, file))
	require.NoError(t, s.AddProvenance(id, types.InlineProvenance{Source: "stdin"}))

	provs, err := s.GetProvenance(id)
	require.NoError(t, err)
	require.Len(t, provs, 3)
	assert.Contains(t, provs, types.Provenance(file))
	assert.Contains(t, provs, types.Provenance(types.InlineProvenance{Source: "stdin"}))

	var gotGit types.GitProvenance
	for _, p := range provs {
		if g, ok := p.(types.GitProvenance); ok {
			gotGit = g
		}
	}
	assert.Equal(t, "/repo", gotGit.RepoPath)
	assert.Equal(t, "config/app.env", gotGit.BlobPath)
	require.NotNil(t, gotGit.Commit)
	assert.Equal(t, "abc123", gotGit.Commit.CommitID)
	assert.True(t, when.Equal(gotGit.Commit.Timestamp))

	provs, err = s.GetProvenance(types.ComputeTextID("unknown"))
	require.NoError(t, err)
	assert.Empty(t, provs)
}

func testPatterns(t *testing.T, s Store) {
	defer s.Close()

	d := &types.PatternDef{ID: "t.kv", Name: "Key Value", Pattern: `(\w+)=(\w+)`, Flags: "i"}
	d.StructuralID = d.ComputeStructuralID()
	require.NoError(t, s.AddPattern(d))

	d2 := *d
	d2.Name = "Renamed"
	require.NoError(t, s.AddPattern(&d2))

	got, err := s.GetPattern("t.kv")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, d.Pattern, got.Pattern)
	assert.Equal(t, "i", got.Flags)
	assert.Equal(t, d.StructuralID, got.StructuralID)

	_, err = s.GetPattern("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddProvenance_Unknown(t *testing.T) {
	type otherProvenance struct{ types.FileProvenance }

	s := NewMemory()
	err := s.AddProvenance(types.ComputeTextID("x"), otherProvenance{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provenance type")
}
