package main

import (
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/matchindex/pkg/scanner"
)

var (
	verbose   bool
	quiet     bool
	colorMode string
)

var rootCmd = &cobra.Command{
	Use:   "matchindex",
	Short: "matchindex - find every match of a pattern and where each capture group sits",
	Long: `matchindex runs regular expressions exhaustively over text and reports every
occurrence together with the byte offset of each capture group.

Single patterns are run with "match"; catalogs of patterns are run over files,
directories and git repositories with "scan", and results are kept in SQLite
or PostgreSQL for later reporting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger returns the debug logger selected by --verbose.
func newLogger() scanner.DebugLogger {
	if verbose && !quiet {
		return scanner.NewStderrLogger()
	}
	return scanner.NoopLogger{}
}
