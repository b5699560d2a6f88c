//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("PASTA_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "PASTA_TEST_BIN not set; build pasta and point PASTA_TEST_BIN at it")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runPasta runs the binary against home and returns its output.
func runPasta(t *testing.T, home, stdin string, args ...string) string {
	t.Helper()
	cmdArgs := append([]string{"--home", home}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "PASTA_MONITOR_POLL_INTERVAL=50ms")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("pasta %v exited with error: %v\noutput: %s", args, err, out)
	}
	return string(out)
}

func runSession(t *testing.T, home, stdin string, args ...string) string {
	t.Helper()
	return runPasta(t, home, stdin, append([]string{"run", "--test"}, args...)...)
}

func readLog(t *testing.T, home, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(home, "logs", filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestCaptureAndPasteLast(t *testing.T) {
	home := t.TempDir()
	out := runSession(t, home,
		cmds("COPY first", "WAIT_CAPTURE", "COPY second", "WAIT_CAPTURE", "PASTE_LAST", "WAIT_PASTE", "QUIT"),
		"--mode", "typing")
	if !strings.Contains(out, `typed "second"`) {
		t.Errorf("newest entry not typed:\n%s", out)
	}

	diag := readLog(t, home, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "clipboard_change", "paste_end", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("expected %s in diagnostics", want)
		}
	}
	if strings.Contains(diag, "second") {
		t.Error("clipboard content leaked into diagnostics")
	}
}

func TestHistoryPersistsAcrossRuns(t *testing.T) {
	home := t.TempDir()
	runSession(t, home, cmds("COPY https://example.com", "WAIT_CAPTURE", "QUIT"))

	list := runPasta(t, home, "", "history", "list")
	if !strings.Contains(list, "url") || !strings.Contains(list, "https://example.com") {
		t.Errorf("entry missing from history list:\n%s", list)
	}
	show := runPasta(t, home, "", "history", "show", "1")
	if strings.TrimSpace(show) != "https://example.com" {
		t.Errorf("history show = %q", show)
	}
}

func TestSensitiveNotRecorded(t *testing.T) {
	home := t.TempDir()
	runSession(t, home, cmds("COPY password=hunter2", "SLEEP 300", "QUIT"))

	list := runPasta(t, home, "", "history", "list")
	if strings.Contains(list, "hunter2") {
		t.Errorf("secret recorded:\n%s", list)
	}
	if !strings.Contains(readLog(t, home, "diagnostics_log.txt"), "skipped sensitive") {
		t.Error("expected skip notice in diagnostics")
	}
}

func TestClipboardModeRestores(t *testing.T) {
	home := t.TempDir()
	out := runSession(t, home,
		cmds("COPY keep me", "WAIT_CAPTURE", "PASTE_LAST", "WAIT_PASTE", "QUIT"),
		"--mode", "clipboard")
	if !strings.Contains(out, `pasted "keep me"`) {
		t.Errorf("paste shortcut did not see staged text:\n%s", out)
	}
	if !strings.Contains(out, "via clipboard") {
		t.Errorf("expected clipboard outcome:\n%s", out)
	}
}

func TestDoubleEscStopsTyping(t *testing.T) {
	home := t.TempDir()
	long := strings.Repeat("abcdefghij", 60)
	out := runSession(t, home,
		cmds("COPY "+long, "WAIT_CAPTURE", "PASTE_LAST", "SLEEP 150", "ESC", "ESC", "WAIT_PASTE", "QUIT"),
		"--mode", "typing", "--delay", "5ms")
	if !strings.Contains(out, "paste failed (aborted)") {
		t.Errorf("paste was not aborted:\n%s", out)
	}
	if strings.Count(out, "typed ") >= 3 {
		t.Errorf("typing continued after abort:\n%s", out)
	}
}

func TestBusyWhilePasting(t *testing.T) {
	home := t.TempDir()
	long := strings.Repeat("x", 400)
	out := runSession(t, home,
		cmds("COPY "+long, "WAIT_CAPTURE", "PASTE_LAST", "SLEEP 50", "PASTE_LAST", "WAIT_PASTE", "WAIT_PASTE", "QUIT"),
		"--mode", "typing", "--delay", "2ms")
	if !strings.Contains(out, "paste failed (busy)") {
		t.Errorf("second paste was not rejected:\n%s", out)
	}
	if !strings.Contains(out, "typed 400 chars") {
		t.Errorf("first paste did not finish:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out := runPasta(t, t.TempDir(), "", "version")
	if !strings.HasPrefix(out, "pasta ") {
		t.Errorf("version output %q", out)
	}
}
