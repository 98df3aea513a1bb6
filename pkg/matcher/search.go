package matcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/praetorian-inc/matchindex/pkg/pattern"
	"github.com/praetorian-inc/matchindex/pkg/resolve"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

// ErrTimeout is wrapped by errors returned when the ECMAScript engine gives up
// on a match after the pattern's timeout.
var ErrTimeout = errors.New("match timeout")

// rawMatch is one engine match: start offset (bytes) and the full match text
// followed by each capture text, "" for groups that did not participate.
type rawMatch struct {
	start int
	texts []string
}

// Search finds every non-overlapping match of p in text, left to right.
// Capture offsets are not resolved; use MatchAll for that.
//
// p is scanned exhaustively whether or not it carries the g flag; p itself is
// never modified. Patterns without a capturing group fail with
// *pattern.InvalidPatternError before any scanning.
func Search(text string, p *pattern.Pattern) ([]*types.Occurrence, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	raw, err := scan(text, p.Global())
	if err != nil {
		return nil, err
	}

	occurrences := make([]*types.Occurrence, 0, len(raw))
	for _, m := range raw {
		occurrences = append(occurrences, &types.Occurrence{
			All:   m.texts,
			Input: text,
			Index: m.start,
		})
	}
	return occurrences, nil
}

// MatchAll is Search followed by offset resolution of every capture group.
func MatchAll(text string, p *pattern.Pattern) ([]*types.Occurrence, error) {
	occurrences, err := Search(text, p)
	if err != nil {
		return nil, err
	}
	for _, occ := range occurrences {
		occ.CaptureGroups = resolve.Resolve(text, occ.Index, occ.Groups())
	}
	return occurrences, nil
}

// FlattenCaptures concatenates the capture groups of every occurrence,
// in occurrence order and then group order.
func FlattenCaptures(occurrences []*types.Occurrence) []types.CaptureGroup {
	n := 0
	for _, occ := range occurrences {
		n += len(occ.CaptureGroups)
	}

	captures := make([]types.CaptureGroup, 0, n)
	for _, occ := range occurrences {
		captures = append(captures, occ.CaptureGroups...)
	}
	return captures
}

// MatchCaptureGroupAll is MatchAll flattened to a single capture group list.
func MatchCaptureGroupAll(text string, p *pattern.Pattern) ([]types.CaptureGroup, error) {
	occurrences, err := MatchAll(text, p)
	if err != nil {
		return nil, err
	}
	return FlattenCaptures(occurrences), nil
}

func scan(text string, p *pattern.Pattern) ([]rawMatch, error) {
	switch p.Engine() {
	case pattern.EngineRE2:
		return scanRE2(text, p), nil
	case pattern.EngineECMAScript:
		matches, err := scanECMAScript(text, p)
		if err != nil {
			if strings.Contains(err.Error(), "match timeout") {
				return nil, fmt.Errorf("pattern %s: %w: %v", p, ErrTimeout, err)
			}
			return nil, fmt.Errorf("pattern %s: %w", p, err)
		}
		return matches, nil
	default:
		return nil, fmt.Errorf("unsupported engine %q", p.Engine())
	}
}
