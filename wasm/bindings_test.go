//go:build wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

func call(fn func(js.Value, []js.Value) interface{}, args ...interface{}) interface{} {
	values := make([]js.Value, len(args))
	for i, a := range args {
		values[i] = js.ValueOf(a)
	}
	return fn(js.Value{}, values)
}

func TestMatchAll(t *testing.T) {
	out := call(matchAll, "test1test2", `/t(e)(st(\d?))/g`)

	var occurrences []types.Occurrence
	require.NoError(t, json.Unmarshal([]byte(out.(string)), &occurrences))
	require.Len(t, occurrences, 2)
	assert.Equal(t, 5, occurrences[1].Index)
	assert.Equal(t, types.Unresolved, occurrences[1].CaptureGroups[2].Index)
}

func TestMatchCaptureGroupAll(t *testing.T) {
	out := call(matchCaptureGroupAll, "ABC EFG", `/(\w+) (\w+)/`, "ecmascript")

	var groups []types.CaptureGroup
	require.NoError(t, json.Unmarshal([]byte(out.(string)), &groups))
	assert.Equal(t, []types.CaptureGroup{{Text: "ABC", Index: 0}, {Text: "EFG", Index: 4}}, groups)
}

func TestMatchCaptureGroupAll_DefaultsToECMAScript(t *testing.T) {
	var groups []types.CaptureGroup
	out := call(matchCaptureGroupAll, "123xxx789", "/(x*)/g")
	require.NoError(t, json.Unmarshal([]byte(out.(string)), &groups))

	indexes := make([]int, 0, len(groups))
	for _, g := range groups {
		indexes = append(indexes, g.Index)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 6, 7, 8, 9}, indexes)

	var re2Groups []types.CaptureGroup
	out = call(matchCaptureGroupAll, "123xxx789", "/(x*)/g", "re2")
	require.NoError(t, json.Unmarshal([]byte(out.(string)), &re2Groups))
	assert.Len(t, re2Groups, 7)
}

func TestMatchAll_InvalidPattern(t *testing.T) {
	out := call(matchAll, "abc", "/abc/")

	res, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "invalid_pattern", res["code"])
}

func TestSetLifecycle(t *testing.T) {
	created := call(newSet, "builtin").(map[string]interface{})
	require.NotContains(t, created, "error")
	handle := created["handle"].(int)

	out := call(setMatch, handle, "released 2024-01-15")
	assert.Contains(t, out.(string), "2024")

	assert.Nil(t, call(closeSet, handle))
	res := call(closeSet, handle).(map[string]interface{})
	assert.Equal(t, "invalid set handle", res["error"])
}

func TestGetBuiltinPatterns(t *testing.T) {
	var defs []*types.PatternDef
	require.NoError(t, json.Unmarshal([]byte(call(getBuiltinPatterns).(string)), &defs))
	assert.NotEmpty(t, defs)
}
