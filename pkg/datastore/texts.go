package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// TextStore keeps texts on disk, addressed by their TextID.
type TextStore struct {
	Root string
}

// NewTextStore creates root if needed.
func NewTextStore(root string) (*TextStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating texts directory: %w", err)
	}
	return &TextStore{Root: root}, nil
}

// Put writes text and returns its ID. Storing the same text twice is a no-op.
func (t *TextStore) Put(text string) (types.TextID, error) {
	id := types.ComputeTextID(text)

	path := t.textPath(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.TextID{}, fmt.Errorf("creating text directory: %w", err)
	}

	// temp file + rename so readers never see a partial text
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(text), 0o644); err != nil {
		return types.TextID{}, fmt.Errorf("writing text: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return types.TextID{}, fmt.Errorf("renaming text: %w", err)
	}

	return id, nil
}

// Get retrieves a text by ID.
func (t *TextStore) Get(id types.TextID) (string, error) {
	content, err := os.ReadFile(t.textPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("text not found: %s", id.Hex())
		}
		return "", fmt.Errorf("reading text: %w", err)
	}
	return string(content), nil
}

// Exists checks if a text is stored.
func (t *TextStore) Exists(id types.TextID) bool {
	_, err := os.Stat(t.textPath(id))
	return err == nil
}

// textPath uses a 2-char prefix directory: texts/ab/cdef1234...
func (t *TextStore) textPath(id types.TextID) string {
	hexID := id.Hex()
	return filepath.Join(t.Root, hexID[:2], hexID[2:])
}
