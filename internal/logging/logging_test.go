package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept", "booking_id", "b-1")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["booking_id"] != "b-1" {
		t.Fatalf("expected warn entry with attributes, got %v", entry)
	}
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	t.Run("round trips a logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		ctx := ContextWithLogger(context.Background(), logger)
		if got := FromContext(ctx); got != logger {
			t.Fatalf("expected stored logger, got %v", got)
		}
	})

	t.Run("ignores nil loggers", func(t *testing.T) {
		t.Parallel()

		ctx := ContextWithLogger(context.Background(), nil)
		if got := FromContext(ctx); got != nil {
			t.Fatalf("expected no logger, got %v", got)
		}
	})
}
