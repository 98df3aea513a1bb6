package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/matchindex/pkg/store"
)

var (
	mergeOutput string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source1.db> <source2.db> [source3.db...]",
	Short: "Merge multiple scan databases",
	Long: `Merge multiple scan databases into a single output database.

This is useful for combining results from distributed scans or
merging results from different scan targets.

Deduplication is automatic - texts, patterns, occurrences and provenance
already present in the output are only stored once.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path or postgres:// URL")
}

func runMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merge complete:\n")
	fmt.Fprintf(out, "  Sources processed: %d\n", stats.SourcesProcessed)
	fmt.Fprintf(out, "  Texts merged: %d\n", stats.TextsMerged)
	fmt.Fprintf(out, "  Patterns merged: %d\n", stats.PatternsMerged)
	fmt.Fprintf(out, "  Occurrences merged: %d\n", stats.OccurrencesMerged)
	fmt.Fprintf(out, "  Provenance merged: %d\n", stats.ProvenanceMerged)
	fmt.Fprintf(out, "Output: %s\n", mergeOutput)

	return nil
}
