package matcher

import "github.com/praetorian-inc/matchindex/pkg/pattern"

// scanRE2 runs Go's regexp in find-all mode. An empty match advances the scan
// by one character, and an empty match directly after the previous match is
// dropped, per regexp's FindAll semantics.
func scanRE2(text string, p *pattern.Pattern) []rawMatch {
	indices := p.Stdlib().FindAllStringSubmatchIndex(text, -1)
	matches := make([]rawMatch, 0, len(indices))

	for _, loc := range indices {
		texts := make([]string, 0, len(loc)/2)
		for i := 0; i < len(loc); i += 2 {
			start, end := loc[i], loc[i+1]
			if start >= 0 && end >= 0 {
				texts = append(texts, text[start:end])
			} else {
				texts = append(texts, "")
			}
		}
		matches = append(matches, rawMatch{start: loc[0], texts: texts})
	}

	return matches
}
