package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/datastore"
)

// scanToDatabase scans a fresh target into a SQLite file and returns its path.
func scanToDatabase(t *testing.T) string {
	t.Helper()
	resetFlags()
	scanPatternsPath = writePatterns(t)
	scanOutputPath = filepath.Join(t.TempDir(), "scan.db")
	quiet = true

	cmd, _, _ := newTestCommand()
	require.NoError(t, runScan(cmd, []string{setupScanTarget(t)}))

	path := scanOutputPath
	resetFlags()
	return path
}

func TestRunReport_Human(t *testing.T) {
	reportDatastore = scanToDatabase(t)

	cmd, out, _ := newTestCommand()
	require.NoError(t, runReport(cmd, nil))

	output := out.String()
	assert.Contains(t, output, "Occurrence 1/2")
	assert.Contains(t, output, "Occurrence 2/2")
	assert.Contains(t, output, "Pattern: Test Key Value (t.kv)")
	assert.Contains(t, output, "app.env")
	assert.Contains(t, output, "Lines: 2:1-2:11 (offset 11)")
	assert.Contains(t, output, `Match: "user=alice"`)
	assert.Contains(t, output, `Group 2: "admin" @ 16`)
}

func TestRunReport_JSON(t *testing.T) {
	reportDatastore = scanToDatabase(t)
	reportFormat = "json"

	cmd, out, _ := newTestCommand()
	require.NoError(t, runReport(cmd, nil))

	var records []jsonRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, 11, records[1].Index)
}

func TestRunReport_PatternFilter(t *testing.T) {
	reportDatastore = scanToDatabase(t)
	reportPattern = "other"

	cmd, out, _ := newTestCommand()
	require.NoError(t, runReport(cmd, nil))
	assert.Contains(t, out.String(), "No occurrences.")
}

func TestRunReport_SARIF(t *testing.T) {
	reportDatastore = scanToDatabase(t)
	reportFormat = "sarif"

	cmd, out, _ := newTestCommand()
	require.NoError(t, runReport(cmd, nil))

	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	runs := report["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.Len(t, run["results"], 2)

	rules := run["tool"].(map[string]any)["driver"].(map[string]any)["rules"].([]any)
	require.Len(t, rules, 1)
	assert.Equal(t, "t.kv", rules[0].(map[string]any)["id"])
}

func TestRunReport_Errors(t *testing.T) {
	resetFlags()
	cmd, _, _ := newTestCommand()

	reportDatastore = ":memory:"
	assert.ErrorContains(t, runReport(cmd, nil), "in-memory")

	reportDatastore = filepath.Join(t.TempDir(), "missing.db")
	assert.ErrorContains(t, runReport(cmd, nil), "datastore not found")

	reportDatastore = scanToDatabase(t)
	reportFormat = "xml"
	assert.ErrorContains(t, runReport(cmd, nil), "unknown output format")
}

func scanToDatastore(t *testing.T) string {
	t.Helper()
	resetFlags()
	scanPatternsPath = writePatterns(t)
	scanOutputPath = filepath.Join(t.TempDir(), "scan.ds")
	scanStoreTexts = true
	quiet = true

	cmd, _, _ := newTestCommand()
	require.NoError(t, runScan(cmd, []string{setupScanTarget(t)}))

	path := scanOutputPath
	resetFlags()
	return path
}

func TestRunScan_StoreTexts(t *testing.T) {
	dir := scanToDatastore(t)

	require.True(t, datastore.IsDatastore(dir))
	kept, err := filepath.Glob(filepath.Join(dir, "texts", "*", "*"))
	require.NoError(t, err)
	assert.Len(t, kept, 1, "only app.env has occurrences")
}

func TestRunReport_DatastoreShowsContext(t *testing.T) {
	reportDatastore = scanToDatastore(t)

	cmd, out, _ := newTestCommand()
	require.NoError(t, runReport(cmd, nil))

	output := out.String()
	assert.Contains(t, output, "Occurrence 2/2")
	assert.Contains(t, output, "        user=alice\nrole=admin\n")
}

func TestRunReport_DatastoreSARIFGroupLines(t *testing.T) {
	reportDatastore = scanToDatastore(t)
	reportFormat = "sarif"

	cmd, out, _ := newTestCommand()
	require.NoError(t, runReport(cmd, nil))

	var report struct {
		Runs []struct {
			Results []struct {
				RelatedLocations []struct {
					PhysicalLocation struct {
						Region struct {
							StartLine   int `json:"startLine"`
							StartColumn int `json:"startColumn"`
							ByteOffset  int `json:"byteOffset"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"relatedLocations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Runs, 1)
	require.Len(t, report.Runs[0].Results, 2)

	related := report.Runs[0].Results[1].RelatedLocations
	require.Len(t, related, 2)
	assert.Equal(t, 2, related[1].PhysicalLocation.Region.StartLine)
	assert.Equal(t, 6, related[1].PhysicalLocation.Region.StartColumn)
	assert.Equal(t, 16, related[1].PhysicalLocation.Region.ByteOffset)
}
