package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// recordKey identifies an occurrence the way the SQL primary key does.
type recordKey struct {
	text    types.TextID
	pattern string
	start   int
}

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu         sync.RWMutex
	texts      map[types.TextID]int64
	patterns   map[string]*types.PatternDef
	records    map[recordKey]*Record
	provenance map[types.TextID][]types.Provenance
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		texts:      make(map[types.TextID]int64),
		patterns:   make(map[string]*types.PatternDef),
		records:    make(map[recordKey]*Record),
		provenance: make(map[types.TextID][]types.Provenance),
	}
}

// AddText stores a text record.
func (m *MemoryStore) AddText(id types.TextID, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.texts[id]; !exists {
		m.texts[id] = size
	}
	return nil
}

// AddPattern stores or refreshes a pattern definition.
func (m *MemoryStore) AddPattern(d *types.PatternDef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *d
	m.patterns[d.ID] = &cp
	return nil
}

// GetPattern retrieves a stored definition.
func (m *MemoryStore) GetPattern(id string) (*types.PatternDef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.patterns[id]
	if !ok {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

// AddProvenance associates provenance with a text.
func (m *MemoryStore) AddProvenance(id types.TextID, prov types.Provenance) error {
	row, err := provenanceRow(prov)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.provenance[id] {
		if other, _ := provenanceRow(existing); sameProvenance(row, other) {
			return nil
		}
	}
	m.provenance[id] = append(m.provenance[id], prov)
	return nil
}

func sameProvenance(a, b provRow) bool {
	return a.kind == b.kind && a.path == b.path && a.repoPath == b.repoPath && a.commitHash == b.commitHash
}

// GetProvenance retrieves every provenance stored for a text.
func (m *MemoryStore) GetProvenance(id types.TextID) ([]types.Provenance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]types.Provenance, len(m.provenance[id]))
	copy(result, m.provenance[id])
	return result, nil
}

// AddOccurrences stores the occurrences of one pattern in one text.
func (m *MemoryStore) AddOccurrences(id types.TextID, patternID string, occurrences []*types.Occurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, occ := range occurrences {
		key := recordKey{text: id, pattern: patternID, start: occ.Index}
		if _, exists := m.records[key]; exists {
			continue
		}
		m.records[key] = newRecord(id, patternID, occ)
	}
	return nil
}

// GetOccurrences retrieves the records of one text.
func (m *MemoryStore) GetOccurrences(id types.TextID) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*Record{}
	for key, rec := range m.records {
		if key.text == id {
			result = append(result, rec)
		}
	}
	sortRecords(result)
	return result, nil
}

// GetAllOccurrences retrieves every record.
func (m *MemoryStore) GetAllOccurrences() ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		result = append(result, rec)
	}
	sortRecords(result)
	return result, nil
}

// TextExists checks if a text has already been scanned.
func (m *MemoryStore) TextExists(id types.TextID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.texts[id]
	return exists, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// sortRecords orders records like the SQL backends: text, pattern, offset.
func sortRecords(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.TextID != b.TextID {
			return a.TextID.Hex() < b.TextID.Hex()
		}
		if a.PatternID != b.PatternID {
			return a.PatternID < b.PatternID
		}
		return a.Index < b.Index
	})
}
