package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Service:   "demo",
		Version:   "v0.0.1",
		Env:       EnvDev,
		Backend:   BackendStd,
		Level:     slog.LevelDebug,
		AddSource: true,
		Output:    &buf,
	})
	slog.Info("Hello world")

	out := buf.String()
	if strings.Contains(out, "{") && strings.Contains(out, "}") {
		t.Fatalf("expected text output in dev/std, got JSON: %s", out)
	}
	if !strings.Contains(out, "Hello world") {
		t.Fatalf("message missing: %s", out)
	}
	if !strings.Contains(out, "service=demo") {
		t.Fatalf("service attr missing: %s", out)
	}
	if !strings.Contains(out, "env=dev") {
		t.Fatalf("env attr missing: %s", out)
	}
}

func TestInit_DebugFlagLowersLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Env: EnvDev, Backend: BackendStd, Output: &buf})
	slog.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug must be filtered at info level: %s", buf.String())
	}

	buf.Reset()
	Init(Config{Env: EnvDev, Backend: BackendStd, Debug: true, Output: &buf})
	slog.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug flag must enable debug output: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := Init(Config{Env: EnvDev, Backend: BackendStd, Output: &buf})

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to the default logger")
	}

	ctx := WithContext(context.Background(), base.With("session", "s-1"))
	FromContext(ctx).Info("scoped")
	if !strings.Contains(buf.String(), "session=s-1") {
		t.Fatalf("context logger attrs missing: %s", buf.String())
	}
}
