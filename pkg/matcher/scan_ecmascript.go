package matcher

import (
	"unicode/utf8"

	"github.com/praetorian-inc/matchindex/pkg/pattern"
)

// scanECMAScript walks regexp2 matches with FindStringMatch/FindNextMatch.
// regexp2 reports positions in runes, so they are mapped back to byte offsets.
// Groups are read in pattern order rather than regexp2's numbering.
func scanECMAScript(text string, p *pattern.Pattern) ([]rawMatch, error) {
	re := p.ECMAScript()
	order := p.GroupNumbers()
	offsets := runeOffsets(text)

	var matches []rawMatch
	match, err := re.FindStringMatch(text)
	if err != nil {
		return nil, err
	}

	for match != nil {
		texts := make([]string, 0, len(order)+1)
		texts = append(texts, match.String())
		for _, n := range order {
			group := match.GroupByNumber(n)
			if group == nil || len(group.Captures) == 0 {
				texts = append(texts, "")
				continue
			}
			// Group embeds its last capture, which is what a repeated
			// group reports.
			texts = append(texts, group.String())
		}

		matches = append(matches, rawMatch{
			start: offsets.byteOffset(match.Index),
			texts: texts,
		})

		match, err = re.FindNextMatch(match)
		if err != nil {
			return nil, err
		}
	}

	return matches, nil
}

// runeIndex maps rune positions to byte offsets. A nil table means the text
// is ASCII and positions are already byte offsets.
type runeIndex []int

func runeOffsets(text string) runeIndex {
	if utf8.RuneCountInString(text) == len(text) {
		return nil
	}
	idx := make(runeIndex, 0, len(text)+1)
	for i := range text {
		idx = append(idx, i)
	}
	return append(idx, len(text))
}

func (r runeIndex) byteOffset(runePos int) int {
	if r == nil {
		return runePos
	}
	if runePos >= len(r) {
		return r[len(r)-1]
	}
	return r[runePos]
}
