package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

func TestRunPatternsList(t *testing.T) {
	resetFlags()

	cmd, out, _ := newTestCommand()
	require.NoError(t, runPatternsList(cmd, []string{}))

	output := out.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Engine")
	assert.Contains(t, output, "mi.kv.1")
	assert.Contains(t, output, "ecmascript")
}

func TestRunPatternsListJSON(t *testing.T) {
	resetFlags()
	patternsPath = writePatterns(t)
	patternsFormat = "json"

	cmd, out, _ := newTestCommand()
	require.NoError(t, runPatternsList(cmd, []string{}))

	var defs []*types.PatternDef
	require.NoError(t, json.Unmarshal(out.Bytes(), &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, "t.kv", defs[0].ID)
	assert.NotEmpty(t, defs[0].StructuralID)
}

func TestRunPatternsList_Filter(t *testing.T) {
	resetFlags()
	patternsInclude = `^mi\.date\.`
	patternsFormat = "json"

	cmd, out, _ := newTestCommand()
	require.NoError(t, runPatternsList(cmd, []string{}))

	var defs []*types.PatternDef
	require.NoError(t, json.Unmarshal(out.Bytes(), &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, "mi.date.1", defs[0].ID)
}

func TestRunPatternsValidate(t *testing.T) {
	resetFlags()

	cmd, out, _ := newTestCommand()
	require.NoError(t, runPatternsValidate(cmd, []string{}))
	assert.Contains(t, out.String(), "patterns valid")
}

func TestRunPatternsValidate_Failures(t *testing.T) {
	resetFlags()
	patternsPath = filepath.Join(t.TempDir(), "bad.yml")
	writeFile(t, patternsPath, `patterns:
  - id: bad.nogroup
    name: No Group
    pattern: 'abc'
  - id: bad.example
    name: Bad Example
    pattern: '(\d+)'
    examples:
      - 'no digits'
`)

	cmd, _, _ := newTestCommand()
	err := runPatternsValidate(cmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.nogroup")
	assert.Contains(t, err.Error(), "bad.example")
}
