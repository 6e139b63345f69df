package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"debug level text", Config{Level: "debug", Format: "text"}},
		{"info level json", Config{Level: "info", Format: "json"}},
		{"warn level text", Config{Level: "warn", Format: "text"}},
		{"error level json", Config{Level: "error", Format: "json"}},
		{"default level", Config{Level: "invalid", Format: "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(tt.config)
			slog.Info("test message")
		})
	}
}

func TestWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	ctx := context.Background()
	ctx = context.WithValue(ctx, RequestIDKey, "req-123")
	ctx = context.WithValue(ctx, UserIDKey, "user-1")
	ctx = context.WithValue(ctx, JobIDKey, "job-7")

	WithContext(ctx).Info("hello")

	out := buf.String()
	for _, want := range []string{"req-123", "user-1", "job-7"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in log output: %s", want, out)
		}
	}
}

func TestWithContextEmpty(t *testing.T) {
	Init(Config{Level: "info", Format: "text"})

	if WithContext(context.Background()) == nil {
		t.Error("Expected non-nil logger")
	}
}

func TestLogFunctions(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	ctx := context.WithValue(context.Background(), JobIDKey, "job-9")

	Info(ctx, "info message", "key", "value")
	if !strings.Contains(buf.String(), "info message") {
		t.Error("Expected info message in log")
	}

	buf.Reset()
	Debug(ctx, "debug message")
	if !strings.Contains(buf.String(), "debug message") {
		t.Error("Expected debug message in log")
	}

	buf.Reset()
	Warn(ctx, "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("Expected warn message in log")
	}

	buf.Reset()
	Error(ctx, "error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Error("Expected error message in log")
	}
}
