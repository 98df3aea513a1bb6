package types

// Unresolved is the offset reported for a capture group whose position in the
// searched text cannot be reconstructed (groups nested inside another group).
const Unresolved = -1

// CaptureGroup is the text of one capturing group and its byte offset in the
// searched text.
type CaptureGroup struct {
	Text  string `json:"text"`
	Index int    `json:"index"` // Unresolved when the offset cannot be recovered
}

// Resolved reports whether the group carries a real offset.
func (g CaptureGroup) Resolved() bool {
	return g.Index != Unresolved
}

// End returns the offset one past the last byte of the group.
// Only meaningful when Resolved() is true.
func (g CaptureGroup) End() int {
	return g.Index + len(g.Text)
}

// Span returns the group's byte range, or false when unresolved.
func (g CaptureGroup) Span() (OffsetSpan, bool) {
	if !g.Resolved() {
		return OffsetSpan{}, false
	}
	return OffsetSpan{Start: int64(g.Index), End: int64(g.End())}, true
}

// Occurrence is one match found during an exhaustive scan.
type Occurrence struct {
	// All holds the full match followed by each capture text in pattern order.
	// Groups that did not participate are empty strings.
	All []string `json:"all"`

	// Input is the text that was searched (shared by every occurrence of a search).
	Input string `json:"input"`

	// Index is the byte offset where the full match starts.
	Index int `json:"index"`

	// CaptureGroups has one entry per capturing group, len(All)-1 entries.
	CaptureGroups []CaptureGroup `json:"captureGroups"`
}

// Match returns the full matched text.
func (o *Occurrence) Match() string {
	if len(o.All) == 0 {
		return ""
	}
	return o.All[0]
}

// End returns the offset one past the end of the full match.
func (o *Occurrence) End() int {
	return o.Index + len(o.Match())
}

// Groups returns the raw capture texts, without the full match.
func (o *Occurrence) Groups() []string {
	if len(o.All) < 2 {
		return nil
	}
	return o.All[1:]
}

// Location returns the byte and line/column range of the full match.
func (o *Occurrence) Location() Location {
	return LocateSpan(o.Input, o.Index, o.End())
}
