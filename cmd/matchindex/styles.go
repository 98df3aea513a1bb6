package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// styles holds the color formatters of human output
type styles struct {
	heading  *color.Color
	id       *color.Color
	name     *color.Color
	match    *color.Color
	group    *color.Color
	metadata *color.Color
	warn     *color.Color
}

// newStyles creates color formatters. enabled=false respects --color never
// and NO_COLOR.
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold),
		id:       color.New(color.FgHiGreen),
		name:     color.New(color.Bold, color.FgHiBlue),
		match:    color.New(color.FgYellow),
		group:    color.New(color.Bold, color.FgHiYellow),
		metadata: color.New(color.FgHiBlue),
		warn:     color.New(color.FgRed),
	}

	if !enabled {
		for _, c := range []*color.Color{s.heading, s.id, s.name, s.match, s.group, s.metadata, s.warn} {
			c.DisableColor()
		}
	}
	return s
}

// stylesFor resolves --color against the writer human output goes to.
func stylesFor(out io.Writer) *styles {
	switch colorMode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		color.NoColor = !isTerminal(out) || os.Getenv("NO_COLOR") != ""
	}
	return newStyles(!color.NoColor)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// snippetParts holds separated snippet components for colored output
type snippetParts struct {
	prefix   string // "..." if truncated at start
	before   string
	matching string
	after    string
	suffix   string // "..." if truncated at end
}

// formatSnippetWithParts joins before/matching/after and truncates the result
// to maxLen bytes, centering the window on the matched text.
func formatSnippetWithParts(before, matching, after string, maxLen int) snippetParts {
	full := before + matching + after

	if len(full) <= maxLen {
		return snippetParts{before: before, matching: matching, after: after}
	}

	matchStart := len(before)
	matchEnd := matchStart + len(matching)

	if len(matching) >= maxLen {
		return snippetParts{
			prefix:   "...",
			matching: matching[:maxLen-6],
			suffix:   "...",
		}
	}

	// reserve 6 for "..." on each side
	halfContext := (maxLen - len(matching) - 6) / 2
	if halfContext < 0 {
		halfContext = 0
	}

	start := matchStart - halfContext
	end := matchEnd + halfContext
	if start < 0 {
		end -= start
		start = 0
	}
	if end > len(full) {
		start -= end - len(full)
		if start < 0 {
			start = 0
		}
		end = len(full)
	}

	parts := snippetParts{
		before:   full[start:matchStart],
		matching: matching,
		after:    full[matchEnd:end],
	}
	if start > 0 {
		parts.prefix = "..."
	}
	if end < len(full) {
		parts.suffix = "..."
	}
	return parts
}

func (p snippetParts) empty() bool {
	return p.prefix == "" && p.before == "" && p.matching == "" && p.after == "" && p.suffix == ""
}

func (p snippetParts) render(s *styles) string {
	return p.prefix + p.before + s.match.Sprint(p.matching) + p.after + p.suffix
}
