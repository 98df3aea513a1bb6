// Package resolve reconstructs capture group offsets from capture texts.
//
// Go's matchers report group boundaries, but callers that only hold the
// texts of a match (or engines that report indices in another unit) need the
// offsets rebuilt. Resolve walks the groups left to right, searching forward
// from the end of the previous group, and uses the next group's text as an
// upper bound so empty and repeated texts land on the right occurrence.
//
// Groups nested inside an earlier group cannot be told apart from text that
// follows it; they may resolve to types.Unresolved. That is a known limit of
// working from texts alone and is kept as observable behavior.
package resolve

import (
	"strings"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// IndexFrom returns the offset of the first occurrence of sub in s at or after
// from, or -1. from is clamped to [0, len(s)], and an empty sub is found at
// the clamped position.
func IndexFrom(s, sub string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		from = len(s)
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}

// LocateBoundedOccurrence finds the last occurrence of needle that starts in
// [searchStart, boundaryStart]. Each hit moves the search one byte past it; the
// returned value is one less than the final search position, which is the
// last hit itself, or searchStart-1 if there was none. The walk also stops
// when IndexFrom clamps a hit back behind the search position, which happens
// for an empty needle at the end of haystack.
func LocateBoundedOccurrence(haystack, needle string, searchStart, boundaryStart int) int {
	pos := searchStart
	for {
		hit := IndexFrom(haystack, needle, pos)
		if hit == -1 || hit > boundaryStart || hit < pos {
			break
		}
		pos = hit + 1
	}
	return pos - 1
}

// Resolve computes the offset of each group text of a match starting at start.
// The result has one entry per element of groups, in the same order.
func Resolve(text string, start int, groups []string) []types.CaptureGroup {
	captures := make([]types.CaptureGroup, 0, len(groups))
	cursor := start

	for i, group := range groups {
		var offset int
		if i+1 < len(groups) && group != groups[i+1] {
			boundary := IndexFrom(text, groups[i+1], cursor)
			offset = LocateBoundedOccurrence(text, group, cursor, boundary)
		} else {
			offset = IndexFrom(text, group, cursor)
		}

		captures = append(captures, types.CaptureGroup{
			Text:  group,
			Index: offset,
		})
		cursor = offset + len(group)
	}

	return captures
}
