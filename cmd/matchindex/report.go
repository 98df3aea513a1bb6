package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/matchindex/pkg/datastore"
	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/store"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

var (
	reportDatastore string
	reportFormat    string
	reportPattern   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print occurrences from a scan database",
	Long:  "Read stored occurrences from a database written by scan and print them",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "matchindex.db", "Database path or postgres:// URL")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportPattern, "pattern", "", "Only report occurrences of this pattern ID")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportDatastore == ":memory:" {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if !store.IsPostgresURL(reportDatastore) {
		if _, err := os.Stat(reportDatastore); err != nil {
			return fmt.Errorf("datastore not found: %s", reportDatastore)
		}
	}

	var (
		s     store.Store
		texts textSource
	)
	if datastore.IsDatastore(reportDatastore) {
		ds, err := datastore.Open(reportDatastore, datastore.Options{})
		if err != nil {
			return fmt.Errorf("opening datastore: %w", err)
		}
		defer ds.Close()
		s = ds.Store
		if ds.Texts != nil {
			texts = ds.Texts
		}
	} else {
		var err error
		s, err = store.New(store.Config{Path: reportDatastore})
		if err != nil {
			return fmt.Errorf("opening datastore: %w", err)
		}
		defer s.Close()
	}

	records, err := s.GetAllOccurrences()
	if err != nil {
		return fmt.Errorf("retrieving occurrences: %w", err)
	}
	if reportPattern != "" {
		filtered := records[:0]
		for _, rec := range records {
			if rec.PatternID == reportPattern {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	defs, err := storedPatterns(s, records)
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		return outputRecordsJSON(cmd.OutOrStdout(), s, records)
	case "human":
		return outputReportHuman(cmd.OutOrStdout(), s, texts, records, defs)
	case "sarif":
		return outputSARIF(cmd.OutOrStdout(), s, texts, defs, records)
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// storedPatterns loads the definition of every pattern referenced by records,
// in first-seen order. Patterns missing from the store get a stub definition.
func storedPatterns(s store.Store, records []*store.Record) ([]*types.PatternDef, error) {
	seen := make(map[string]bool)
	var defs []*types.PatternDef
	for _, rec := range records {
		if seen[rec.PatternID] {
			continue
		}
		seen[rec.PatternID] = true

		d, err := s.GetPattern(rec.PatternID)
		if errors.Is(err, store.ErrNotFound) {
			d = &types.PatternDef{ID: rec.PatternID, Name: rec.PatternID}
		} else if err != nil {
			return nil, fmt.Errorf("loading pattern %s: %w", rec.PatternID, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func outputReportHuman(out io.Writer, s store.Store, texts textSource, records []*store.Record, defs []*types.PatternDef) error {
	st := stylesFor(out)

	if len(records) == 0 {
		fmt.Fprintln(out, "No occurrences.")
		return nil
	}

	names := patternNames(defs)
	paths := newPathCache(s)
	total := len(records)

	for i, rec := range records {
		fmt.Fprintf(out, "%s (%s %s)\n",
			st.heading.Sprintf("Occurrence %d/%d", i+1, total),
			st.heading.Sprint("text"),
			st.id.Sprint(rec.TextID.Hex()))
		fmt.Fprintf(out, "%s %s %s\n",
			st.heading.Sprint("Pattern:"),
			st.name.Sprint(names[rec.PatternID]),
			st.id.Sprintf("(%s)", rec.PatternID))

		for _, p := range paths.lookup(rec.TextID) {
			fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("File:"), st.metadata.Sprint(filepath.ToSlash(p)))
		}

		loc := rec.Location.Source
		fmt.Fprintf(out, "%s %d:%d-%d:%d (offset %d)\n",
			st.heading.Sprint("Lines:"),
			loc.Start.Line, loc.Start.Column, loc.End.Line, loc.End.Column, rec.Index)
		fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("Match:"), st.match.Sprintf("%q", rec.Match()))

		for j, g := range rec.CaptureGroups {
			offset := "unresolved"
			if g.Resolved() {
				offset = fmt.Sprintf("%d", g.Index)
			}
			fmt.Fprintf(out, "%s %s %s\n",
				st.heading.Sprintf("Group %d:", j+1),
				st.group.Sprintf("%q", g.Text),
				st.metadata.Sprintf("@ %s", offset))
		}

		if occ := occurrenceWithInput(texts, rec); occ != nil {
			before, after := matcher.ExtractContext(occ.Input, occ.Index, occ.End(), 1)
			parts := formatSnippetWithParts(before, occ.Match(), strings.TrimSuffix(after, "\n"), 500)
			if !parts.empty() {
				fmt.Fprintf(out, "\n        %s\n", parts.render(st))
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
