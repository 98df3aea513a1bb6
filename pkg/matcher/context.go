package matcher

import "strings"

// ExtractContext returns up to lines lines of text before start and after end.
// The results are clones, so keeping them does not pin text in memory.
// Out-of-range offsets and lines <= 0 yield empty context.
func ExtractContext(text string, start, end int, lines int) (before, after string) {
	if lines <= 0 {
		return "", ""
	}
	if start < 0 || start > len(text) {
		return "", ""
	}
	if end < 0 || end > len(text) {
		return "", ""
	}
	if start > end {
		return "", ""
	}

	return strings.Clone(extractBefore(text, start, lines)), strings.Clone(extractAfter(text, end, lines))
}

// extractBefore walks backward from start counting newlines.
func extractBefore(text string, start, lines int) string {
	if start == 0 {
		return ""
	}

	found := 0
	for pos := start - 1; pos >= 0; pos-- {
		if text[pos] != '\n' {
			continue
		}
		found++
		if found == lines {
			lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
			return text[lineStart:start]
		}
	}
	return text[:start]
}

// extractAfter walks forward from end counting newlines. A newline right at
// end belongs to the matched line.
func extractAfter(text string, end, lines int) string {
	if end >= len(text) {
		return ""
	}

	start := end
	if text[end] == '\n' {
		start = end + 1
		if start >= len(text) {
			return ""
		}
	}

	found := 0
	for pos := start; pos < len(text); pos++ {
		if text[pos] == '\n' {
			found++
			if found == lines {
				return text[start : pos+1]
			}
		}
	}
	return text[start:]
}
