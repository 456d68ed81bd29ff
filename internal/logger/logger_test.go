package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithFields(ctx, map[string]any{"contact_id": 7})
	logg.Error(ctx, "pdf.failed", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "test", line["service"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, 7.0, line["contact_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "pdf.failed", line["message"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: &buf})

	logg.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	logg.Warn(context.Background(), "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}
