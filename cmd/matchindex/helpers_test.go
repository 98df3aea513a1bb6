package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/pattern"
)

const kvPatternsYAML = `patterns:
  - id: t.kv
    name: Test Key Value
    pattern: '(\w+)=(\w+)'
    keywords:
      - "="
    examples:
      - 'a=1'
`

// resetFlags restores every package-level flag variable to its default.
func resetFlags() {
	verbose, quiet, colorMode = false, false, "never"

	matchFile, matchFlags, matchEngine, matchFormat = "", "", "re2", "human"
	matchContextLines, matchTimeout = 1, pattern.DefaultTimeout

	scanPatternsPath, scanInclude, scanExclude = "", "", ""
	scanOutputPath, scanOutputFormat = ":memory:", "human"
	scanGit, scanAllHistory, scanCommitRef = false, false, "HEAD"
	scanMaxFileSize, scanIncludeHidden, scanContextLines = 10*1024*1024, false, 1
	scanIncremental, scanWorkers, scanTimeout, scanStoreTexts = false, 0, 0, false

	reportDatastore, reportFormat, reportPattern = "matchindex.db", "human", ""

	patternsPath, patternsFormat, patternsInclude, patternsExclude = "", "table", "", ""

	servePatternsPath, serveInclude, serveExclude = "", "", ""

	mergeOutput = "merged.db"
}

// newTestCommand returns a command with captured stdout and stderr.
func newTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writePatterns writes the key/value test catalog and returns its path.
func writePatterns(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yml")
	writeFile(t, path, kvPatternsYAML)
	return path
}
