// Package sarif renders stored occurrences as a SARIF 2.1.0 log. The full
// match is the primary location of a result; every capture group with a
// resolved offset becomes a related location with its own region.
package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/matchindex/pkg/store"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "matchindex"
	ToolVersion = "0.1.0"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes one catalog pattern.
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
	Properties       *RuleProperties  `json:"properties,omitempty"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// RuleProperties carries the pattern itself so a log can be re-checked.
type RuleProperties struct {
	Pattern string   `json:"pattern"`
	Engine  string   `json:"engine,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Result represents a single occurrence
type Result struct {
	RuleID           string            `json:"ruleId"`
	Level            string            `json:"level"`
	Message          Message           `json:"message"`
	Locations        []Location        `json:"locations"`
	RelatedLocations []Location        `json:"relatedLocations,omitempty"`
	Properties       *ResultProperties `json:"properties,omitempty"`
}

// ResultProperties lists the capture groups whose offset could not be recovered.
type ResultProperties struct {
	UnresolvedGroups []int `json:"unresolvedGroups,omitempty"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	ID               int              `json:"id,omitempty"`
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
	Message          *Message         `json:"message,omitempty"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the byte range and, when known, the line/column range.
type Region struct {
	StartLine   int      `json:"startLine,omitempty"`
	StartColumn int      `json:"startColumn,omitempty"`
	EndLine     int      `json:"endLine,omitempty"`
	EndColumn   int      `json:"endColumn,omitempty"`
	ByteOffset  int      `json:"byteOffset"`
	ByteLength  int      `json:"byteLength"`
	Snippet     *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the matched text
type Snippet struct {
	Text string `json:"text"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds a catalog pattern to the report
func (r *Report) AddRule(d *types.PatternDef) {
	r.Runs[0].Tool.Driver.Rules = append(r.Runs[0].Tool.Driver.Rules, Rule{
		ID:   d.ID,
		Name: d.Name,
		ShortDescription: ShortDescription{
			Text: d.Description,
		},
		Properties: &RuleProperties{
			Pattern: "/" + d.Pattern + "/" + d.Flags,
			Engine:  d.Engine,
			Tags:    d.Categories,
		},
	})
}

// AddRecord adds a stored occurrence found in the file at filePath. Stored
// records do not keep the searched text, so capture group regions carry byte
// offsets only.
func (r *Report) AddRecord(rec *store.Record, ruleName, filePath string) {
	region := Region{
		StartLine:   rec.Location.Source.Start.Line,
		StartColumn: rec.Location.Source.Start.Column,
		EndLine:     rec.Location.Source.End.Line,
		EndColumn:   rec.Location.Source.End.Column,
		ByteOffset:  int(rec.Location.Offset.Start),
		ByteLength:  int(rec.Location.Offset.Len()),
	}
	if m := rec.Match(); m != "" {
		region.Snippet = &Snippet{Text: m}
	}
	r.addResult(rec.PatternID, ruleName, filePath, region, rec.CaptureGroups, "")
}

// AddOccurrence adds an occurrence straight from a scan. Its Input is used to
// give capture group regions line and column numbers.
func (r *Report) AddOccurrence(patternID, ruleName string, occ *types.Occurrence, filePath string) {
	loc := occ.Location()
	region := Region{
		StartLine:   loc.Source.Start.Line,
		StartColumn: loc.Source.Start.Column,
		EndLine:     loc.Source.End.Line,
		EndColumn:   loc.Source.End.Column,
		ByteOffset:  occ.Index,
		ByteLength:  len(occ.Match()),
	}
	if m := occ.Match(); m != "" {
		region.Snippet = &Snippet{Text: m}
	}
	r.addResult(patternID, ruleName, filePath, region, occ.CaptureGroups, occ.Input)
}

func (r *Report) addResult(ruleID, ruleName, filePath string, region Region, groups []types.CaptureGroup, content string) {
	uri := formatFileURI(filePath)

	result := Result{
		RuleID: ruleID,
		Level:  "note",
		Message: Message{
			Text: ruleName,
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: uri},
					Region:           region,
				},
			},
		},
	}

	var unresolved []int
	for i, g := range groups {
		if !g.Resolved() {
			unresolved = append(unresolved, i+1)
			continue
		}
		result.RelatedLocations = append(result.RelatedLocations, Location{
			ID: i + 1,
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: uri},
				Region:           captureRegion(g, content),
			},
			Message: &Message{Text: fmt.Sprintf("capture group %d", i+1)},
		})
	}
	if len(unresolved) > 0 {
		result.Properties = &ResultProperties{UnresolvedGroups: unresolved}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// captureRegion builds the region of a resolved group. Line and column are
// filled in only when the searched text is available.
func captureRegion(g types.CaptureGroup, content string) Region {
	region := Region{
		ByteOffset: g.Index,
		ByteLength: len(g.Text),
	}
	if g.Text != "" {
		region.Snippet = &Snippet{Text: g.Text}
	}
	if content == "" {
		return region
	}
	if loc, ok := types.LocateCapture(content, g); ok {
		region.StartLine = loc.Source.Start.Line
		region.StartColumn = loc.Source.Start.Column
		region.EndLine = loc.Source.End.Line
		region.EndColumn = loc.Source.End.Column
	}
	return region
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		path = filepath.ToSlash(path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	return filepath.ToSlash(path)
}
