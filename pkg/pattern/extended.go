package pattern

import (
	"regexp"
	"strings"
)

// commentRe matches (?# ... ) comments.
var commentRe = regexp.MustCompile(`\(\?#[^)]*\)`)

// stripExtended rewrites free-spacing syntax into plain syntax, since Go's
// regexp has no extended flag:
//  1. removes a leading (?x)
//  2. removes (?# ... ) comments
//  3. removes unescaped whitespace (escaped whitespace like "\ " is kept)
//
// Whitespace inside character classes is removed too, matching what
// free-spacing mode does in most engines outside of Perl's /xx.
func stripExtended(source string) string {
	source = strings.TrimSpace(source)
	source = strings.TrimPrefix(source, "(?x)")
	source = commentRe.ReplaceAllString(source, "")

	var result strings.Builder
	escaped := false
	for _, char := range source {
		if escaped {
			result.WriteRune(char)
			escaped = false
			continue
		}

		if char == '\\' {
			result.WriteRune(char)
			escaped = true
			continue
		}

		if char == ' ' || char == '\t' || char == '\n' || char == '\r' {
			continue
		}

		result.WriteRune(char)
	}

	return result.String()
}

// hasExtendedPrefix reports whether source turns on free-spacing mode inline.
func hasExtendedPrefix(source string) bool {
	return strings.HasPrefix(strings.TrimSpace(source), "(?x)")
}
