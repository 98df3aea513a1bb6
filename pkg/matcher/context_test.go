package matcher

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contextText = "user=alice\nrole=admin\nhost=db\nport=5432\n"

func TestExtractContext(t *testing.T) {
	tests := []struct {
		name          string
		start, end    int
		lines         int
		before, after string
	}{
		{"one line each side", 11, 21, 1, "user=alice\n", "host=db\n"},
		{"fewer lines before than requested", 11, 21, 2, "user=alice\n", "host=db\nport=5432\n"},
		{"first line", 0, 10, 1, "", "role=admin\n"},
		{"last line", 30, 39, 1, "host=db\n", ""},
		{"mid-line occurrence keeps line prefix", 5, 10, 1, "user=", "role=admin\n"},
		{"occurrence ending in newline", 11, 22, 1, "user=alice\n", "host=db\n"},
		{"empty occurrence at line start", 22, 22, 1, "role=admin\n", "host=db\n"},
		{"zero lines", 11, 21, 0, "", ""},
		{"negative lines", 11, 21, -1, "", ""},
		{"start past end of text", 100, 100, 1, "", ""},
		{"end past end of text", 0, 100, 1, "", ""},
		{"start after end", 21, 11, 1, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := ExtractContext(contextText, tt.start, tt.end, tt.lines)
			assert.Equal(t, tt.before, before, "before")
			assert.Equal(t, tt.after, after, "after")
		})
	}
}

func TestExtractContext_EmptyText(t *testing.T) {
	before, after := ExtractContext("", 0, 0, 3)
	assert.Empty(t, before)
	assert.Empty(t, after)
}

func TestExtractContext_DoesNotShareText(t *testing.T) {
	text := strings.Repeat("x", 64) + "\nline2\nMATCH\nline4\n" + strings.Repeat("y", 64)
	start := strings.Index(text, "MATCH")
	end := start + len("MATCH")

	before, after := ExtractContext(text, start, end, 1)
	require.Equal(t, "line2\n", before)
	require.Equal(t, "line4\n", after)

	textStart := uintptr(unsafe.Pointer(unsafe.StringData(text)))
	textEnd := textStart + uintptr(len(text))
	for _, s := range []string{before, after} {
		p := uintptr(unsafe.Pointer(unsafe.StringData(s)))
		assert.False(t, p >= textStart && p < textEnd, "context %q points into the searched text", s)
	}
}
