package enum

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// collectPaths enumerates and returns the root-relative, slash-separated
// paths that were yielded.
func collectPaths(t *testing.T, e Enumerator, root string) []string {
	t.Helper()
	var mu sync.Mutex
	var paths []string
	err := e.Enumerate(context.Background(), func(text string, id types.TextID, prov types.Provenance) error {
		assert.Equal(t, types.ComputeTextID(text), id)
		rel, err := filepath.Rel(root, prov.Path())
		if err != nil {
			rel = prov.Path()
		}
		mu.Lock()
		paths = append(paths, filepath.ToSlash(rel))
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestFilesystemEnumerator(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"file1.txt":          "hello world",
		"file2.txt":          "test content",
		"subdir/subfile.txt": "nested content",
	})

	e := NewFilesystemEnumerator(Config{Root: root, Readers: 2})
	assert.Equal(t, []string{"file1.txt", "file2.txt", "subdir/subfile.txt"}, collectPaths(t, e, root))
}

func TestFilesystemEnumerator_Provenance(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "k=v"})

	var got types.Provenance
	var gotText string
	err := NewFilesystemEnumerator(Config{Root: root}).Enumerate(context.Background(),
		func(text string, id types.TextID, prov types.Provenance) error {
			got, gotText = prov, text
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, "k=v", gotText)
	assert.Equal(t, types.FileProvenance{FilePath: filepath.Join(root, "a.txt")}, got)
}

func TestFilesystemEnumerator_HiddenFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"visible.txt":       "visible",
		".hidden.txt":       "hidden",
		".config/inner.txt": "inner",
	})

	e := NewFilesystemEnumerator(Config{Root: root})
	assert.Equal(t, []string{"visible.txt"}, collectPaths(t, e, root))

	e = NewFilesystemEnumerator(Config{Root: root, IncludeHidden: true})
	assert.Equal(t, []string{".config/inner.txt", ".hidden.txt", "visible.txt"}, collectPaths(t, e, root))
}

func TestFilesystemEnumerator_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"small.txt": "tiny",
		"large.txt": "this content is larger than ten bytes",
	})

	e := NewFilesystemEnumerator(Config{Root: root, MaxFileSize: 10})
	assert.Equal(t, []string{"small.txt"}, collectPaths(t, e, root))
}

func TestFilesystemEnumerator_SkipsBinary(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"text.txt":   "plain",
		"binary.bin": "abc\x00def",
	})

	e := NewFilesystemEnumerator(Config{Root: root})
	assert.Equal(t, []string{"text.txt"}, collectPaths(t, e, root))
}

func TestFilesystemEnumerator_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":    "*.log\nbuild/\n",
		"keep.txt":      "keep",
		"debug.log":     "ignored",
		"build/out.txt": "ignored",
		"src/main.txt":  "keep",
		"src/trace.log": "ignored",
	})

	e := NewFilesystemEnumerator(Config{Root: root})
	assert.Equal(t, []string{"keep.txt", "src/main.txt"}, collectPaths(t, e, root))
}

func TestFilesystemEnumerator_SingleFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"only.txt": "x=1"})

	e := NewFilesystemEnumerator(Config{Root: filepath.Join(root, "only.txt")})
	assert.Equal(t, []string{"only.txt"}, collectPaths(t, e, root))
}

func TestFilesystemEnumerator_MissingRoot(t *testing.T) {
	e := NewFilesystemEnumerator(Config{Root: filepath.Join(t.TempDir(), "missing")})
	err := e.Enumerate(context.Background(), func(string, types.TextID, types.Provenance) error { return nil })
	assert.Error(t, err)
}

func TestFilesystemEnumerator_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a", "b.txt": "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFilesystemEnumerator(Config{Root: root}).Enumerate(ctx,
		func(string, types.TextID, types.Provenance) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilesystemEnumerator_CallbackError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a"})

	boom := assert.AnError
	err := NewFilesystemEnumerator(Config{Root: root}).Enumerate(context.Background(),
		func(string, types.TextID, types.Provenance) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".git"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
	assert.False(t, isHidden("file.txt"))
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary("plain text"))
	assert.True(t, isBinary("a\x00b"))
	assert.False(t, isBinary(string(make([]byte, 0))))
}
