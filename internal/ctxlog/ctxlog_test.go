package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Info("hello", "watch", "big-orders")
	if !strings.Contains(buf.String(), "watch=big-orders") {
		t.Errorf("expected log through context logger, got %q", buf.String())
	}
}

func TestForAction(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ForAction(context.Background(), base, "big-orders", "log")

	FromContext(ctx).Info("Watch alert", "rows", 2)
	for _, want := range []string{"watch=big-orders", "action=log", "rows=2"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in %q", want, buf.String())
		}
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected slog.Default for a bare context")
	}
}
