package types

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
)

// PatternDef is a catalog entry: a pattern source plus the metadata needed to
// compile, prefilter and report it.
type PatternDef struct {
	ID               string   `json:"id"`                      // e.g., "mi.kv.1"
	Name             string   `json:"name"`                    // human-readable name
	Pattern          string   `json:"pattern"`                 // pattern source, must contain a capturing group
	Flags            string   `json:"flags,omitempty"`         // e.g., "i", "ms"
	Engine           string   `json:"engine,omitempty"`        // "re2" (default) or "ecmascript"
	StructuralID     string   `json:"structural_id,omitempty"` // SHA-1 of normalized pattern (computed)
	Description      string   `json:"description,omitempty"`
	Examples         []string `json:"examples,omitempty"`          // texts that must produce an occurrence
	NegativeExamples []string `json:"negative_examples,omitempty"` // texts that must not
	Categories       []string `json:"categories,omitempty"`
	Keywords         []string `json:"keywords,omitempty"` // literals for Aho-Corasick prefiltering
}

// namedGroupRe matches named capture groups in both (?P<name>...) and
// (?<name>...) spellings.
var namedGroupRe = regexp.MustCompile(`\(\?P?<[A-Za-z_][A-Za-z0-9_]*>`)

// ComputeStructuralID hashes the pattern with named groups rewritten to plain
// groups, so renaming a group does not change the identity of a pattern.
// Flags take part in the hash because they change what the pattern matches.
func (d *PatternDef) ComputeStructuralID() string {
	normalized := namedGroupRe.ReplaceAllString(d.Pattern, "(")
	h := sha1.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(d.Flags))
	return hex.EncodeToString(h.Sum(nil))
}
