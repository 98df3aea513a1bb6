package pattern

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// sourceGroups lists the capturing groups of source in the order their
// opening parens appear: "" for an unnamed group, the name otherwise.
// Escapes, character classes, (?#...) comments and, in free-spacing mode,
// #-comments are skipped. ok is false when a comment is left open.
func sourceGroups(source string, extended bool) (groups []string, ok bool) {
	inClass := false
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case extended && c == '#':
			end := strings.IndexByte(source[i:], '\n')
			if end < 0 {
				return groups, true
			}
			i += end
		case c == '(':
			rest := source[i+1:]
			if !strings.HasPrefix(rest, "?") {
				groups = append(groups, "")
				continue
			}
			if strings.HasPrefix(rest, "?#") {
				end := strings.IndexByte(rest, ')')
				if end < 0 {
					return nil, false
				}
				i += end + 1
				continue
			}
			if name, named := groupName(rest[1:]); named {
				groups = append(groups, name)
			}
		}
	}
	return groups, true
}

// groupName reads the name of a (?<name>, (?P<name> or (?'name' group from
// the text after "(?". Lookbehinds and other constructs are not named groups.
// A balancing group (?<a-b> is named by its first part.
func groupName(s string) (string, bool) {
	s = strings.TrimPrefix(s, "P")

	var closer byte
	switch {
	case strings.HasPrefix(s, "<=") || strings.HasPrefix(s, "<!"):
		return "", false
	case strings.HasPrefix(s, "<"):
		closer = '>'
	case strings.HasPrefix(s, "'"):
		closer = '\''
	default:
		return "", false
	}

	end := strings.IndexByte(s[1:], closer)
	if end < 0 {
		return "", false
	}
	name, _, _ := strings.Cut(s[1:1+end], "-")
	if name == "" {
		return "", false
	}
	return name, true
}

// ecmaGroupOrder returns regexp2's group numbers arranged in pattern order.
// regexp2 numbers unnamed groups first and named groups after them, so for
// (?<n>a)(b) the engine order is b, n while the pattern order is n, b.
// When the source cannot be mapped unambiguously the engine order is kept.
func ecmaGroupOrder(source string, extended bool, re *regexp2.Regexp) []int {
	numbers := re.GetGroupNumbers()
	engine := append([]int(nil), numbers[1:]...)

	groups, ok := sourceGroups(source, extended)
	if !ok || len(groups) != len(engine) {
		return engine
	}

	valid := make(map[int]bool, len(engine))
	for _, n := range engine {
		valid[n] = true
	}

	order := make([]int, 0, len(groups))
	unnamed := 0
	for _, name := range groups {
		var n int
		if name == "" {
			unnamed++
			n = unnamed
		} else {
			n = re.GroupNumberFromName(name)
		}
		if !valid[n] {
			return engine
		}
		delete(valid, n)
		order = append(order, n)
	}
	return order
}
