// Package enum discovers texts to scan: files below a directory or blobs in
// a git repository.
package enum

import (
	"context"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// Callback receives one text, its content ID and where it came from.
// It may be called from several goroutines at once.
type Callback func(text string, id types.TextID, prov types.Provenance) error

// Enumerator discovers texts to scan from a source.
type Enumerator interface {
	// Enumerate yields every text of the source to callback.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Readers is the number of parallel file readers (0 = NumCPU).
	Readers int
}
