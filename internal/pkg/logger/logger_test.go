package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := defaultLogger.level
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(prev)
		SetRedact(true)
	})
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]string {
	t.Helper()
	var entries []map[string]string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]string
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		entries = append(entries, m)
	}
	return entries
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("hidden")
	Warn("shown", "campaign_id", "c1")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Equal(t, "c1", entries[0]["campaign_id"])
}

func TestSecretRedaction(t *testing.T) {
	buf := capture(t)

	Info("starting", "api_key", "0123456789abcdef0123456789abcdef-us19")
	Error("request failed", "error", "bad key 0123456789abcdef0123456789abcdef-us19 for owner bob.smith@example.com")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "****-us19", entries[0]["api_key"])
	assert.NotContains(t, entries[1]["error"], "0123456789abcdef")
	assert.Contains(t, entries[1]["error"], "****-us19")
	assert.Contains(t, entries[1]["error"], "bo***@example.com")
}

func TestRedactionDisabled(t *testing.T) {
	buf := capture(t)
	SetRedact(false)

	Info("raw", "token", "abc")
	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["token"])
}

func TestWithFields(t *testing.T) {
	buf := capture(t)

	log := With("run_id", "r-1")
	log.Info("processed", "campaign_id", "c9")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "r-1", entries[0]["run_id"])
	assert.Equal(t, "c9", entries[0]["campaign_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("Warning"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestRedactHelpers(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
	assert.Equal(t, "****-us19", RedactSecret("abc-us19"))
	assert.Equal(t, "****", RedactSecret("hunter2"))
	assert.Equal(t, "", RedactSecret(""))
}
