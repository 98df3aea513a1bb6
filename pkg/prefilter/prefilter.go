// Package prefilter rules out patterns that cannot match a text, using an
// Aho-Corasick scan for the literal keywords each pattern requires.
package prefilter

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// keywordSet is one Aho-Corasick automaton and the definitions behind each keyword.
type keywordSet struct {
	matcher  *ahocorasick.Matcher
	keywords []string         // keyword at each automaton index
	defs     map[string][]int // keyword -> positions of definitions needing it
}

func newKeywordSet() *keywordSet {
	return &keywordSet{defs: make(map[string][]int)}
}

func (ks *keywordSet) add(keyword string, pos int) {
	if _, ok := ks.defs[keyword]; !ok {
		ks.keywords = append(ks.keywords, keyword)
	}
	ks.defs[keyword] = append(ks.defs[keyword], pos)
}

func (ks *keywordSet) build() {
	if len(ks.keywords) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(ks.keywords)
	}
}

func (ks *keywordSet) mark(text string, keep []bool) {
	if ks.matcher == nil {
		return
	}
	for _, hit := range ks.matcher.Match([]byte(text)) {
		for _, pos := range ks.defs[ks.keywords[hit]] {
			keep[pos] = true
		}
	}
}

// Prefilter selects candidate pattern definitions for a text.
// It is read-only after New and safe for concurrent use.
type Prefilter struct {
	defs      []*types.PatternDef
	exact     *keywordSet // keywords of case-sensitive patterns
	folded    *keywordSet // lower-cased keywords of patterns with the i flag
	always    []int       // definitions without keywords
	hasFolded bool
}

// New creates a prefilter over defs.
func New(defs []*types.PatternDef) *Prefilter {
	pf := &Prefilter{
		defs:   defs,
		exact:  newKeywordSet(),
		folded: newKeywordSet(),
	}

	for pos, d := range defs {
		if len(d.Keywords) == 0 {
			pf.always = append(pf.always, pos)
			continue
		}
		fold := strings.ContainsRune(d.Flags, 'i')
		for _, kw := range d.Keywords {
			if kw == "" {
				continue
			}
			if fold {
				pf.folded.add(strings.ToLower(kw), pos)
				pf.hasFolded = true
			} else {
				pf.exact.add(kw, pos)
			}
		}
	}

	pf.exact.build()
	pf.folded.build()
	return pf
}

// Filter returns the definitions that might match text: those without
// keywords plus those with at least one keyword present. Order follows the
// definitions passed to New.
func (pf *Prefilter) Filter(text string) []*types.PatternDef {
	keep := make([]bool, len(pf.defs))
	for _, pos := range pf.always {
		keep[pos] = true
	}

	pf.exact.mark(text, keep)
	if pf.hasFolded {
		pf.folded.mark(strings.ToLower(text), keep)
	}

	result := make([]*types.PatternDef, 0, len(pf.defs))
	for pos, ok := range keep {
		if ok {
			result = append(result, pf.defs[pos])
		}
	}
	return result
}
