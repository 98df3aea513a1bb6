package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/serve"
)

func TestRunServe(t *testing.T) {
	resetFlags()
	servePatternsPath = writePatterns(t)

	cmd, out, _ := newTestCommand()
	cmd.SetIn(strings.NewReader(
		`{"type":"match_capture_group_all","payload":{"text":"ABC ABC","pattern":"(ABC)"}}` + "\n" +
			`{"type":"scan","payload":{"content":"k=v","source":"req"}}` + "\n"))

	require.NoError(t, runServe(cmd, []string{}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var ready serve.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ready))
	assert.Equal(t, "ready", ready.Type)

	var groups serve.Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &groups))
	assert.True(t, groups.Success)
	assert.JSONEq(t, `{"captureGroups":[{"text":"ABC","index":0},{"text":"ABC","index":4}]}`, string(groups.Data))

	var scan serve.Response
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &scan))
	assert.True(t, scan.Success)
	assert.Equal(t, "scan", scan.Type)
	assert.Contains(t, string(scan.Data), `"pattern_id":"t.kv"`)
}
