package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTextID_GitCompatible(t *testing.T) {
	// `printf 'hello world' | git hash-object --stdin`
	id := ComputeTextID("hello world")
	assert.Equal(t, "95d09f2b10159347eece71399a7e2e907ea3df4f", id.Hex())
}

func TestComputeTextID_Empty(t *testing.T) {
	// Git's well-known empty blob hash
	id := ComputeTextID("")
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", id.String())
}

func TestParseTextID_RoundTrip(t *testing.T) {
	id := ComputeTextID("aabccde")

	parsed, err := ParseTextID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseTextID_Invalid(t *testing.T) {
	_, err := ParseTextID("abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid text ID length")

	_, err = ParseTextID("zz5d09f2b10159347eece71399a7e2e907ea3df4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid hex string")
}

func TestTextID_JSON(t *testing.T) {
	id := ComputeTextID("ABC ABC")

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.Hex()+`"`, string(data))

	var decoded TextID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	keyed, err := json.Marshal(map[TextID]int{id: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"`+id.Hex()+`":2}`, string(keyed))

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &decoded))
}

func TestTextID_Scan(t *testing.T) {
	id := ComputeTextID("test1test2")

	var fromString TextID
	require.NoError(t, fromString.Scan(id.Hex()))
	assert.Equal(t, id, fromString)

	var fromBytes TextID
	require.NoError(t, fromBytes.Scan([]byte(id.Hex())))
	assert.Equal(t, id, fromBytes)

	var bad TextID
	assert.Error(t, bad.Scan(nil))
	assert.Error(t, bad.Scan(42))
}
