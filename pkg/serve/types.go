package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/matchindex/pkg/scanner"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "match_all" | "match_capture_group_all" | "scan" | "scan_batch" | "close"
	Payload json.RawMessage `json:"payload"`
}

// MatchPayload is the payload for "match_all" and "match_capture_group_all".
// Pattern is either a bare source used with Flags, or a /source/flags literal
// when Flags is empty.
type MatchPayload struct {
	Text    string `json:"text"`
	Pattern string `json:"pattern"`
	Flags   string `json:"flags,omitempty"`
	Engine  string `json:"engine,omitempty"` // "re2" (default) or "ecmascript"
}

// ScanPayload is the payload for "scan" requests
type ScanPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ScanBatchPayload is the payload for "scan_batch" requests
type ScanBatchPayload struct {
	Items []scanner.ContentItem `json:"items"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // request type, "ready", or "decode"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	// Code classifies failures: "invalid_pattern", "timeout" or "bad_request".
	Code string `json:"code,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version  string `json:"version"`
	Patterns int    `json:"patterns"`
}

// MatchAllData is the data field for "match_all" responses
type MatchAllData struct {
	Occurrences []*types.Occurrence `json:"occurrences"`
}

// CaptureGroupsData is the data field for "match_capture_group_all" responses
type CaptureGroupsData struct {
	CaptureGroups []types.CaptureGroup `json:"captureGroups"`
}
