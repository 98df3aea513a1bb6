package enum

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// FilesystemEnumerator enumerates files from a filesystem directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// Enumerate walks the tree to collect eligible paths, then reads them and
// invokes callback from a pool of readers. Binary files are skipped, as is
// anything matched by a .gitignore at the root.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	info, err := os.Stat(e.config.Root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", e.config.Root, err)
	}
	if !info.IsDir() {
		return e.processFile(ctx, e.config.Root, callback)
	}

	files, err := e.collect(ctx)
	if err != nil {
		return err
	}

	readers := e.config.Readers
	if readers <= 0 {
		readers = runtime.NumCPU()
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	paths := make(chan string, readers*2)

	g.Go(func() error {
		defer close(paths)
		for _, f := range files {
			select {
			case paths <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < readers; i++ {
		g.Go(func() error {
			for path := range paths {
				if err := e.processFile(ctx, path, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// Cancellation noticed by no goroutine still counts.
	return origCtx.Err()
}

// collect walks the tree and returns eligible file paths in lexical order.
func (e *FilesystemEnumerator) collect(ctx context.Context) ([]string, error) {
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(e.config.Root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, err = gitignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", gitignorePath, err)
		}
	}

	var files []string
	err := filepath.WalkDir(e.config.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(e.config.Root, path)
		if err != nil {
			return err
		}
		ignored := ignore != nil && rel != "." && ignore.MatchesPath(rel)

		if d.IsDir() {
			if path != e.config.Root && ((!e.config.IncludeHidden && isHidden(d.Name())) || ignored) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}
		if !e.config.IncludeHidden && isHidden(d.Name()) {
			return nil
		}
		if ignored {
			return nil
		}
		if e.config.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > e.config.MaxFileSize {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// processFile reads a single file and invokes the callback.
func (e *FilesystemEnumerator) processFile(ctx context.Context, path string, callback Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	text := string(content)
	if isBinary(text) {
		return nil
	}

	return callback(text, types.ComputeTextID(text), types.FileProvenance{FilePath: path})
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isBinary reports whether the first 8KB of text contain a NUL byte.
func isBinary(text string) bool {
	if len(text) > 8192 {
		text = text[:8192]
	}
	return strings.IndexByte(text, 0) != -1
}
