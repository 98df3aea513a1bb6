package types

// OffsetSpan is byte range [Start, End) - half-open interval.
type OffsetSpan struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s OffsetSpan) Len() int64 {
	return s.End - s.Start
}

// SourcePoint is line:column position (1-based).
type SourcePoint struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// SourceSpan is start-end line:column range.
type SourceSpan struct {
	Start SourcePoint `json:"start"`
	End   SourcePoint `json:"end"`
}

// Location combines byte offsets and source positions.
type Location struct {
	Offset OffsetSpan `json:"offset"`
	Source SourceSpan `json:"source"`
}

// LocateSpan builds a Location for the byte range [start, end) of content.
func LocateSpan(content string, start, end int) Location {
	startLine, startCol := ComputeLineColumn(content, start)
	endLine, endCol := ComputeLineColumn(content, end)
	return Location{
		Offset: OffsetSpan{Start: int64(start), End: int64(end)},
		Source: SourceSpan{
			Start: SourcePoint{Line: startLine, Column: startCol},
			End:   SourcePoint{Line: endLine, Column: endCol},
		},
	}
}

// LocateCapture returns the Location of a capture group within content.
// The second result is false for unresolved groups.
func LocateCapture(content string, g CaptureGroup) (Location, bool) {
	if !g.Resolved() {
		return Location{}, false
	}
	return LocateSpan(content, g.Index, g.End()), true
}
