package serve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_MatchUnmarshal(t *testing.T) {
	input := `{"type":"match_all","payload":{"text":"ABC ABC","pattern":"(ABC)","flags":"g","engine":"re2"}}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(input), &req))
	assert.Equal(t, "match_all", req.Type)

	var payload MatchPayload
	require.NoError(t, json.Unmarshal(req.Payload, &payload))
	assert.Equal(t, MatchPayload{Text: "ABC ABC", Pattern: "(ABC)", Flags: "g", Engine: "re2"}, payload)
}

func TestRequest_ScanUnmarshal(t *testing.T) {
	input := `{"type":"scan","payload":{"content":"secret=abc123","source":"test"}}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(input), &req))
	assert.Equal(t, "scan", req.Type)

	var payload ScanPayload
	require.NoError(t, json.Unmarshal(req.Payload, &payload))
	assert.Equal(t, "secret=abc123", payload.Content)
	assert.Equal(t, "test", payload.Source)
}

func TestResponse_Marshal(t *testing.T) {
	data, err := json.Marshal(Response{Success: true, Type: "ready"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"type":"ready"}`, string(data))

	data, err = json.Marshal(Response{Type: "match_all", Error: "boom", Code: "invalid_pattern"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"type":"match_all","error":"boom","code":"invalid_pattern"}`, string(data))
}
