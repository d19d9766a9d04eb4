package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "outbox read", "pending", 3)
	log.Info(ctx, "sync finished", "adapter", "rest")
	log.Warn(ctx, "remote unavailable", "attempt", 2)
	log.Error(ctx, "mark synced failed", "ids", 1)

	out := buf.String()
	for _, want := range []string{
		`level=DEBUG msg="outbox read" pending=3`,
		`level=INFO msg="sync finished" adapter=rest`,
		`level=WARN msg="remote unavailable" attempt=2`,
		`level=ERROR msg="mark synced failed" ids=1`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("component", "syncengine", "adapter", "grpc").Info(context.Background(), "batch sent", "events", 5)

	out := buf.String()
	for _, want := range []string{"component=syncengine", "adapter=grpc", "events=5", `msg="batch sent"`} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_WithLeavesParentUnchanged(t *testing.T) {
	log, buf := newTestLogger(t)
	_ = log.With("adapter", "nats")
	log.Info(context.Background(), "plain")
	assert.NotContains(t, buf.String(), "adapter=nats")
}

func TestNewSlogLogger_NilUsesDefault(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSlogLogger(nil).Debug(context.Background(), "default handler")
	})
}

func TestNew_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn")

	log.Info(context.Background(), "dropped")
	log.Warn(context.Background(), "kept", "table", "products")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "products", rec["table"])
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "text", "loud")
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With("k", "v").Error(context.TODO(), "discarded")
	})
}
