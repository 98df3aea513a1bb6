// Package store persists scanned texts, their provenance and the resolved
// occurrences found in them.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistence for scan results.
// Backends: SQLite (file or ":memory:"), PostgreSQL and a plain in-memory store.
type Store interface {
	// AddText records a scanned text. Adding the same ID twice is a no-op.
	AddText(id types.TextID, size int64) error

	// AddPattern records the definition occurrences are attributed to.
	AddPattern(d *types.PatternDef) error

	// AddProvenance associates provenance with a text.
	AddProvenance(id types.TextID, prov types.Provenance) error

	// AddOccurrences stores the resolved occurrences of one pattern in one text.
	// Occurrences must carry their Input so locations can be computed.
	AddOccurrences(id types.TextID, patternID string, occurrences []*types.Occurrence) error

	// GetOccurrences retrieves the records of one text, ordered by pattern and offset.
	GetOccurrences(id types.TextID) ([]*Record, error)

	// GetAllOccurrences retrieves every record, ordered by text, pattern and offset.
	GetAllOccurrences() ([]*Record, error)

	// GetProvenance retrieves every provenance stored for a text.
	GetProvenance(id types.TextID) ([]types.Provenance, error)

	// GetPattern retrieves a stored definition, or ErrNotFound.
	GetPattern(id string) (*types.PatternDef, error)

	// TextExists checks if a text has already been scanned.
	TextExists(id types.TextID) (bool, error)

	// Close releases the backend.
	Close() error
}

// Record is a persisted occurrence. The searched text itself is not stored;
// Location keeps the line/column position computed at scan time.
type Record struct {
	TextID        types.TextID         `json:"text_id"`
	PatternID     string               `json:"pattern_id"`
	Index         int                  `json:"index"`
	All           []string             `json:"all"`
	CaptureGroups []types.CaptureGroup `json:"captureGroups"`
	Location      types.Location       `json:"location"`
}

// Occurrence converts the record back to an occurrence without Input.
func (r *Record) Occurrence() *types.Occurrence {
	return &types.Occurrence{
		All:           r.All,
		Index:         r.Index,
		CaptureGroups: r.CaptureGroups,
	}
}

// Match returns the full matched text.
func (r *Record) Match() string {
	if len(r.All) == 0 {
		return ""
	}
	return r.All[0]
}

func newRecord(id types.TextID, patternID string, occ *types.Occurrence) *Record {
	return &Record{
		TextID:        id,
		PatternID:     patternID,
		Index:         occ.Index,
		All:           occ.All,
		CaptureGroups: occ.CaptureGroups,
		Location:      occ.Location(),
	}
}

// Config for store initialization.
type Config struct {
	// Path is a SQLite file path, ":memory:" for a throwaway SQLite database,
	// or a postgres:// URL.
	Path string

	// Memory selects the map-backed store and ignores Path.
	Memory bool
}

// New creates a Store for cfg.
func New(cfg Config) (Store, error) {
	if cfg.Memory {
		return NewMemory(), nil
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if IsPostgresURL(cfg.Path) {
		return NewPostgres(cfg.Path)
	}
	return NewSQLite(cfg.Path)
}

// IsPostgresURL reports whether path names a PostgreSQL database.
func IsPostgresURL(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}
