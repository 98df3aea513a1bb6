package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/matchindex/pkg/datastore"
	"github.com/praetorian-inc/matchindex/pkg/enum"
	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/sarif"
	"github.com/praetorian-inc/matchindex/pkg/scanner"
	"github.com/praetorian-inc/matchindex/pkg/store"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

var (
	scanPatternsPath  string
	scanInclude       string
	scanExclude       string
	scanOutputPath    string
	scanOutputFormat  string
	scanGit           bool
	scanAllHistory    bool
	scanCommitRef     string
	scanMaxFileSize   int64
	scanIncludeHidden bool
	scanContextLines  int
	scanIncremental   bool
	scanWorkers       int
	scanTimeout       time.Duration
	scanStoreTexts    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Run the pattern catalog over files or a git repository",
	Long: `Scan a file, directory, or git repository with the pattern catalog.

Every occurrence is stored with its resolved capture group offsets in the
output database (SQLite path or postgres:// URL) for later reporting.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanPatternsPath, "patterns", "", "Path to a pattern file or directory (default: builtin catalog)")
	scanCmd.Flags().StringVar(&scanInclude, "include", "", "Include patterns whose ID matches these expressions (comma-separated)")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "Exclude patterns whose ID matches these expressions (comma-separated)")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "matchindex.db", "Output database path or postgres:// URL")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().BoolVar(&scanGit, "git", false, "Treat target as git repository")
	scanCmd.Flags().BoolVar(&scanAllHistory, "all-history", false, "With --git, scan every commit reachable from --ref")
	scanCmd.Flags().StringVar(&scanCommitRef, "ref", "HEAD", "With --git, the revision to scan")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().IntVar(&scanContextLines, "context-lines", 1, "Lines of context before/after occurrences (0 to disable)")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip texts already in the output database")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Patterns run in parallel on large texts (0 = GOMAXPROCS)")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 0, "Per-match timeout of ecmascript patterns (0 = default)")
	scanCmd.Flags().BoolVar(&scanStoreTexts, "store-texts", false, "Write a datastore directory to --output and keep texts with occurrences")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("target does not exist: %s", target)
	}

	defs, err := loadPatterns(scanPatternsPath, scanInclude, scanExclude)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	var (
		s     store.Store
		sink  scanner.TextSink
		texts textSource
	)
	if scanStoreTexts {
		ds, err := datastore.Open(scanOutputPath, datastore.Options{StoreTexts: true})
		if err != nil {
			return fmt.Errorf("opening datastore: %w", err)
		}
		defer ds.Close()
		s, sink, texts = ds.Store, ds.Texts, ds.Texts
	} else {
		s, err = store.New(store.Config{Path: scanOutputPath})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		defer s.Close()
	}

	mopts := matcher.DefaultOptions()
	mopts.Workers = scanWorkers
	mopts.Timeout = scanTimeout

	core, err := scanner.NewCore(scanner.Config{
		Patterns:    defs,
		Matcher:     mopts,
		Store:       s,
		Incremental: scanIncremental,
		Texts:       sink,
		Logger:      newLogger(),
	})
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}
	defer core.Close()

	enumerator := createEnumerator(target, scanGit)

	// json and sarif keep stdout pure; progress goes to stderr
	human := scanOutputFormat == "human"
	status := cmd.OutOrStdout()
	if !human {
		status = cmd.ErrOrStderr()
	}
	st := stylesFor(cmd.OutOrStdout())
	names := patternNames(defs)

	summary, err := core.ScanEnumerator(context.Background(), enumerator, func(r *scanner.ScanResult) error {
		for _, w := range r.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "[warn] %s\n", w)
		}
		if human && !quiet {
			printScanResult(cmd.OutOrStdout(), st, r, names)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	if !quiet {
		if scanIncremental {
			fmt.Fprintf(status, "Scan complete: %d occurrences in %d texts (%d texts skipped)\n",
				summary.Occurrences, summary.Texts, summary.CachedTexts)
		} else {
			fmt.Fprintf(status, "Scan complete: %d occurrences in %d texts\n", summary.Occurrences, summary.Texts)
		}
		fmt.Fprintf(status, "Results stored in: %s\n", scanOutputPath)
	}

	switch scanOutputFormat {
	case "human":
		return nil
	case "json":
		records, err := s.GetAllOccurrences()
		if err != nil {
			return fmt.Errorf("retrieving occurrences: %w", err)
		}
		return outputRecordsJSON(cmd.OutOrStdout(), s, records)
	case "sarif":
		records, err := s.GetAllOccurrences()
		if err != nil {
			return fmt.Errorf("retrieving occurrences: %w", err)
		}
		return outputSARIF(cmd.OutOrStdout(), s, texts, defs, records)
	default:
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func createEnumerator(target string, useGit bool) enum.Enumerator {
	config := enum.Config{
		Root:           target,
		IncludeHidden:  scanIncludeHidden,
		MaxFileSize:    scanMaxFileSize,
		FollowSymlinks: false,
	}

	if useGit {
		g := enum.NewGitEnumerator(config)
		g.CommitRef = scanCommitRef
		g.AllHistory = scanAllHistory
		return g
	}

	return enum.NewFilesystemEnumerator(config)
}

func patternNames(defs []*types.PatternDef) map[string]string {
	names := make(map[string]string, len(defs))
	for _, d := range defs {
		names[d.ID] = d.Name
	}
	return names
}

func printScanResult(out io.Writer, s *styles, r *scanner.ScanResult, names map[string]string) {
	if r.OccurrenceCount() == 0 {
		return
	}

	fmt.Fprintf(out, "%s %s (%s %s)\n",
		s.heading.Sprint("File:"),
		s.metadata.Sprint(filepath.ToSlash(r.Source)),
		s.heading.Sprint("text"),
		s.id.Sprint(r.TextID.Hex()))

	for _, pr := range r.Results {
		fmt.Fprintf(out, "%s %s %s\n\n",
			s.heading.Sprint("Pattern:"),
			s.name.Sprint(names[pr.PatternID]),
			s.id.Sprintf("(%s)", pr.PatternID))
		for i, occ := range pr.Occurrences {
			printOccurrence(out, s, i+1, len(pr.Occurrences), occ, scanContextLines)
		}
	}
}

// recordView is a stored occurrence with the paths its text was seen at.
type recordView struct {
	*store.Record
	Paths []string `json:"paths,omitempty"`
}

func outputRecordsJSON(out io.Writer, s store.Store, records []*store.Record) error {
	paths := newPathCache(s)
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{Record: rec, Paths: paths.lookup(rec.TextID)})
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(views)
}

// textSource returns kept texts by ID. A nil textSource means no texts were kept.
type textSource interface {
	Get(id types.TextID) (string, error)
}

// occurrenceWithInput rebuilds the occurrence of rec with its searched text,
// or returns nil when the text is not available.
func occurrenceWithInput(texts textSource, rec *store.Record) *types.Occurrence {
	if texts == nil {
		return nil
	}
	text, err := texts.Get(rec.TextID)
	if err != nil {
		return nil
	}
	occ := rec.Occurrence()
	occ.Input = text
	return occ
}

// outputSARIF writes records in SARIF 2.1.0 format. A text seen at several
// paths produces one result per path. Kept texts give capture groups line
// and column numbers.
func outputSARIF(out io.Writer, s store.Store, texts textSource, defs []*types.PatternDef, records []*store.Record) error {
	report := sarif.NewReport()
	names := make(map[string]string, len(defs))
	for _, d := range defs {
		report.AddRule(d)
		names[d.ID] = d.Name
	}

	paths := newPathCache(s)
	for _, rec := range records {
		locations := paths.lookup(rec.TextID)
		if len(locations) == 0 {
			locations = []string{rec.TextID.Hex()}
		}
		occ := occurrenceWithInput(texts, rec)
		for _, p := range locations {
			if occ != nil {
				report.AddOccurrence(rec.PatternID, names[rec.PatternID], occ, p)
			} else {
				report.AddRecord(rec, names[rec.PatternID], p)
			}
		}
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}
	if _, err := out.Write(jsonBytes); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

// pathCache caches provenance paths by text ID to avoid repeated queries.
type pathCache struct {
	store store.Store
	paths map[types.TextID][]string
}

func newPathCache(s store.Store) *pathCache {
	return &pathCache{store: s, paths: make(map[types.TextID][]string)}
}

func (c *pathCache) lookup(id types.TextID) []string {
	if paths, ok := c.paths[id]; ok {
		return paths
	}

	var paths []string
	provs, err := c.store.GetProvenance(id)
	if err == nil {
		for _, p := range provs {
			paths = append(paths, p.Path())
		}
	}
	c.paths[id] = paths
	return paths
}
