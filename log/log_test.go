package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog", "/default")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs", "/default")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("PASTA_LOG_PATH", "/tmp/pasta-env-log")
	got, err := ResolveDir("", "/default")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/pasta-env-log" {
		t.Errorf("got %q, want /tmp/pasta-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("PASTA_LOG_PATH", "")
	got, err := ResolveDir("", "/default")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/default" {
		t.Errorf("got %q, want /default", got)
	}
	if _, err := ResolveDir("", ""); err == nil {
		t.Error("expected error without any directory")
	}
}

func TestInitCreatesFile(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "diagnostics_log.txt")); err != nil {
		t.Errorf("diagnostics_log.txt not created: %v", err)
	}
}

func TestClipboardChangeOmitsContent(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Close)

	ClipboardChange("text", 42, "0123456789abcdef0123")
	out := buf.String()
	if !strings.Contains(out, "clipboard_change") {
		t.Fatalf("missing event, got %q", out)
	}
	if !strings.Contains(out, "fp=0123456789ab") || strings.Contains(out, "0123456789abc") {
		t.Errorf("fingerprint not truncated: %q", out)
	}
}

func TestPasteEndFailureIsWarning(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Close)

	PasteEnd(PasteMetrics{Mode: "clipboard", Requested: "auto", Chars: 5, Failure: "injection", Duration: time.Millisecond})
	MonitorFailure(3, errors.New("locked"))
	out := buf.String()
	if !strings.Contains(out, "WRN") || !strings.Contains(out, "failure=injection") {
		t.Errorf("expected warning with failure field, got %q", out)
	}
	if !strings.Contains(out, "monitor_read_failure") {
		t.Errorf("missing monitor failure, got %q", out)
	}
}

func TestNoopBeforeInit(t *testing.T) {
	Close()
	Info("dropped")
	PasteStart("typing", "auto", 1) // should not panic
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
