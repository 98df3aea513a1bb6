package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/pattern"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

var (
	matchFile         string
	matchFlags        string
	matchEngine       string
	matchFormat       string
	matchContextLines int
	matchTimeout      time.Duration
)

var matchCmd = &cobra.Command{
	Use:   "match <pattern> [text]",
	Short: "Run one pattern over a text",
	Long: `Find every occurrence of a pattern and the offset of each capture group.

The pattern is a bare expression, combined with --flags, or a /source/flags
literal. The text comes from the second argument, --file, or stdin.
Capture groups nested inside another group are reported at offset -1.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchFile, "file", "f", "", "Read the text from a file")
	matchCmd.Flags().StringVar(&matchFlags, "flags", "", "Pattern flags (g, i, m, s, x)")
	matchCmd.Flags().StringVar(&matchEngine, "engine", "re2", "Pattern engine: re2, ecmascript")
	matchCmd.Flags().StringVar(&matchFormat, "format", "human", "Output format: human, json, groups")
	matchCmd.Flags().IntVar(&matchContextLines, "context-lines", 1, "Lines of context before/after occurrences (0 to disable)")
	matchCmd.Flags().DurationVar(&matchTimeout, "timeout", pattern.DefaultTimeout, "Per-match timeout of the ecmascript engine")
}

func runMatch(cmd *cobra.Command, args []string) error {
	engine, err := pattern.ParseEngine(matchEngine)
	if err != nil {
		return err
	}

	opts := []pattern.Option{pattern.WithEngine(engine), pattern.WithTimeout(matchTimeout)}
	var p *pattern.Pattern
	if matchFlags == "" {
		p, err = pattern.Parse(args[0], opts...)
	} else {
		p, err = pattern.Compile(args[0], append(opts, pattern.WithFlags(matchFlags))...)
	}
	if err != nil {
		return err
	}

	text, err := readMatchText(cmd, args)
	if err != nil {
		return err
	}

	occurrences, err := matcher.MatchAll(text, p)
	if err != nil {
		return err
	}

	switch matchFormat {
	case "json":
		return outputMatchJSON(cmd.OutOrStdout(), occurrences)
	case "groups":
		return outputMatchGroups(cmd.OutOrStdout(), occurrences)
	case "human":
		s := stylesFor(cmd.OutOrStdout())
		out := cmd.OutOrStdout()
		if len(occurrences) == 0 {
			if !quiet {
				fmt.Fprintf(out, "No occurrences of %s.\n", p)
			}
			return nil
		}
		for i, occ := range occurrences {
			printOccurrence(out, s, i+1, len(occurrences), occ, matchContextLines)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", matchFormat)
	}
}

func readMatchText(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) == 2 && matchFile != "":
		return "", fmt.Errorf("text argument and --file are mutually exclusive")
	case len(args) == 2:
		return args[1], nil
	case matchFile != "":
		data, err := os.ReadFile(matchFile)
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
}

// occurrenceView is the JSON shape of an occurrence: the searched text is
// left out and the location is spelled out.
type occurrenceView struct {
	Index         int                  `json:"index"`
	Match         string               `json:"match"`
	All           []string             `json:"all"`
	CaptureGroups []types.CaptureGroup `json:"captureGroups"`
	Location      types.Location       `json:"location"`
}

func newOccurrenceView(occ *types.Occurrence) occurrenceView {
	return occurrenceView{
		Index:         occ.Index,
		Match:         occ.Match(),
		All:           occ.All,
		CaptureGroups: occ.CaptureGroups,
		Location:      occ.Location(),
	}
}

func outputMatchJSON(out io.Writer, occurrences []*types.Occurrence) error {
	views := make([]occurrenceView, 0, len(occurrences))
	for _, occ := range occurrences {
		views = append(views, newOccurrenceView(occ))
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(views)
}

// outputMatchGroups prints one "offset<TAB>text" line per capture group.
func outputMatchGroups(out io.Writer, occurrences []*types.Occurrence) error {
	for _, g := range matcher.FlattenCaptures(occurrences) {
		if _, err := fmt.Fprintf(out, "%d\t%s\n", g.Index, g.Text); err != nil {
			return err
		}
	}
	return nil
}

// printOccurrence writes one occurrence in human form: header, location,
// capture groups with offsets and a context snippet.
func printOccurrence(out io.Writer, s *styles, n, total int, occ *types.Occurrence, contextLines int) {
	loc := occ.Location()
	fmt.Fprintf(out, "%s %s %s\n",
		s.heading.Sprintf("Occurrence %d/%d", n, total),
		s.heading.Sprint("at"),
		s.id.Sprintf("%d", occ.Index))
	fmt.Fprintf(out, "    %s %d:%d-%d:%d\n",
		s.heading.Sprint("Lines:"),
		loc.Source.Start.Line, loc.Source.Start.Column,
		loc.Source.End.Line, loc.Source.End.Column)

	for j, g := range occ.CaptureGroups {
		offset := "unresolved"
		if g.Resolved() {
			offset = fmt.Sprintf("%d", g.Index)
		}
		fmt.Fprintf(out, "    %s %s %s\n",
			s.heading.Sprintf("Group %d:", j+1),
			s.group.Sprintf("%q", g.Text),
			s.metadata.Sprintf("@ %s", offset))
	}

	before, after := matcher.ExtractContext(occ.Input, occ.Index, occ.End(), contextLines)
	parts := formatSnippetWithParts(before, occ.Match(), strings.TrimSuffix(after, "\n"), 500)
	if contextLines > 0 && !parts.empty() {
		fmt.Fprintf(out, "\n        %s\n", parts.render(s))
	}
	fmt.Fprintln(out)
}
