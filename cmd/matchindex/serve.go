package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/scanner"
	"github.com/praetorian-inc/matchindex/pkg/serve"
)

var (
	servePatternsPath string
	serveInclude      string
	serveExclude      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming NDJSON server",
	Long: `Run matchindex as a long-lived server that reads NDJSON requests from stdin
and writes one NDJSON response per request to stdout.

Request types: match_all, match_capture_group_all, scan, scan_batch, close.
The catalog is loaded once at startup; the process runs until stdin closes,
a close request arrives, or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePatternsPath, "patterns", "", "Path to a pattern file or directory (default: builtin catalog)")
	serveCmd.Flags().StringVar(&serveInclude, "include", "", "Include patterns whose ID matches these expressions (comma-separated)")
	serveCmd.Flags().StringVar(&serveExclude, "exclude", "", "Exclude patterns whose ID matches these expressions (comma-separated)")
}

func runServe(cmd *cobra.Command, args []string) error {
	defs, err := loadPatterns(servePatternsPath, serveInclude, serveExclude)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	core, err := scanner.NewCore(scanner.Config{
		Patterns: defs,
		Matcher:  matcher.DefaultOptions(),
		Logger:   newLogger(),
	})
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
