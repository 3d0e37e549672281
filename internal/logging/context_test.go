package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", RequestID(ctx))
	assert.Equal(t, "", Surface(ctx))
	assert.Equal(t, "", Provider(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSurface(ctx, SurfacePanel)
	ctx = WithProvider(ctx, "gemini")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, SurfacePanel, Surface(ctx))
	assert.Equal(t, "gemini", Provider(ctx))
}

func TestNewRequest(t *testing.T) {
	ctx := NewRequest(context.Background(), SurfaceCLI)
	_, err := uuid.Parse(RequestID(ctx))
	require.NoError(t, err)
	assert.Equal(t, SurfaceCLI, Surface(ctx))

	again := NewRequest(ctx, SurfaceMCP)
	assert.Equal(t, RequestID(ctx), RequestID(again), "existing id is kept")
	assert.Equal(t, SurfaceMCP, Surface(again))
}

func TestLogWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithRequestID(context.Background(), "req-abc")
	ctx = WithSurface(ctx, SurfaceTUI)

	LogWith(ctx, logger).Info("test message")

	output := buf.String()
	assert.Contains(t, output, "request_id=req-abc")
	assert.Contains(t, output, "surface=tui")
	assert.NotContains(t, output, "provider=")
	assert.Contains(t, output, "test message")
}

func TestCorrelationHandler(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := New(&buf, level)

	ctx := WithProvider(WithRequestID(context.Background(), "req-9"), "ollama")
	logger.With("component", "suggest").WarnContext(ctx, "fallback used")

	output := buf.String()
	assert.Contains(t, output, "request_id=req-9")
	assert.Contains(t, output, "provider=ollama")
	assert.Contains(t, output, "component=suggest")

	buf.Reset()
	logger.DebugContext(ctx, "hidden")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelDebug)
	logger.DebugContext(ctx, "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
