// Package datastore manages a directory that holds a scan database together
// with the texts that produced occurrences, so reports can show context.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/matchindex/pkg/store"
)

// DBName is the database file inside a datastore directory.
const DBName = "datastore.db"

// Datastore is an opened datastore directory.
type Datastore struct {
	Path  string      // directory path, e.g. "matchindex.ds"
	Store store.Store // SQLite store for occurrences
	Texts *TextStore  // nil when texts are not kept
}

// Options configures datastore behavior.
type Options struct {
	// StoreTexts creates the texts/ directory. An existing texts/ directory
	// is always opened.
	StoreTexts bool
}

// Open opens or creates a datastore directory.
func Open(path string, opts Options) (*Datastore, error) {
	if path == "" {
		return nil, fmt.Errorf("datastore path is required")
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating datastore directory: %w", err)
	}

	gitignorePath := filepath.Join(path, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("*\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing .gitignore: %w", err)
	}

	s, err := store.New(store.Config{Path: filepath.Join(path, DBName)})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	ds := &Datastore{Path: path, Store: s}

	textsDir := filepath.Join(path, "texts")
	_, statErr := os.Stat(textsDir)
	if opts.StoreTexts || statErr == nil {
		ts, err := NewTextStore(textsDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		ds.Texts = ts
	}

	return ds, nil
}

// IsDatastore reports whether path is a datastore directory.
func IsDatastore(path string) bool {
	info, err := os.Stat(filepath.Join(path, DBName))
	return err == nil && info.Mode().IsRegular()
}

// Close closes the datastore and releases resources.
func (d *Datastore) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
