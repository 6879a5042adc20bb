package logging

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	require.NoError(t, w.Close())
	os.Stdout = old

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestWithTraceID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithTraceID(context.Background(), "")
	assert.NotEmpty(t, TraceID(ctx))
}

func TestWithTraceID_PreservesGivenValue(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-123")
	assert.Equal(t, "trace-123", TraceID(ctx))
}

func TestTraceID_MissingReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
}

func TestNewNop_EmitsNothing(t *testing.T) {
	log := NewNop()
	out := captureStdout(t, func() {
		log.Info("should not appear")
		log.Error("neither should this")
	})
	assert.Empty(t, out)
}

func TestStructuredLogger_EmitsJSONWithFields(t *testing.T) {
	t.Setenv("COLLECTOR_LOG_JSON", "true")
	log := New(LevelInfo)

	out := captureStdout(t, func() {
		log.Info("hello world", "key", "value")
	})

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "hello world", entry.Message)
	assert.Equal(t, "value", entry.Fields["key"])
}

func TestStructuredLogger_BelowLevelIsSuppressed(t *testing.T) {
	log := New(LevelWarn)
	out := captureStdout(t, func() {
		log.Info("should be suppressed")
	})
	assert.Empty(t, out)
}

func TestStructuredLogger_ContextCarriesTraceID(t *testing.T) {
	t.Setenv("COLLECTOR_LOG_JSON", "true")
	log := New(LevelInfo)
	ctx := WithTraceID(context.Background(), "trace-abc")

	out := captureStdout(t, func() {
		log.InfoContext(ctx, "with trace")
	})

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "trace-abc", entry.TraceID)
}

func TestWithComponent_TagsSubsequentEntries(t *testing.T) {
	t.Setenv("COLLECTOR_LOG_JSON", "true")
	log := New(LevelInfo).WithComponent("upsert.pipeline")

	out := captureStdout(t, func() {
		log.Info("tagged")
	})

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "upsert.pipeline", entry.Component)
}

func TestStructuredLogger_TextModeIsHumanReadable(t *testing.T) {
	t.Setenv("COLLECTOR_LOG_JSON", "false")
	log := New(LevelInfo)

	out := captureStdout(t, func() {
		log.Info("plain text entry", "k", "v")
	})

	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "plain text entry")
	assert.Contains(t, out, "k=v")
}
