package scanner

import (
	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

// ContentItem represents a content item to scan
type ContentItem struct {
	Source   string            `json:"source"`   // caller supplied label, e.g. "request:1"
	Content  string            `json:"content"`  // the text to scan
	Metadata map[string]string `json:"metadata"` // optional metadata
}

// ScanResult represents scan results for a single text
type ScanResult struct {
	Source   string                   `json:"source"`
	TextID   types.TextID             `json:"text_id"`
	Results  []*matcher.PatternResult `json:"results"`
	Warnings []string                 `json:"warnings,omitempty"`
	// Cached is set when the text was already in the store and was not rescanned.
	Cached bool `json:"cached,omitempty"`
}

// OccurrenceCount returns the number of occurrences across all patterns.
func (r *ScanResult) OccurrenceCount() int {
	n := 0
	for _, pr := range r.Results {
		n += len(pr.Occurrences)
	}
	return n
}

// BatchScanResult represents batch scan results
type BatchScanResult struct {
	Results []ScanResult `json:"results"`
	Total   int          `json:"total"`
}

// Summary aggregates an enumeration scan.
type Summary struct {
	Texts       int `json:"texts"`
	CachedTexts int `json:"cached_texts"`
	Occurrences int `json:"occurrences"`
	Warnings    int `json:"warnings"`
}
