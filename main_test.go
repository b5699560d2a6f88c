package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pasta/log"
)

// execute runs the root command with a private home directory.
func execute(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(log.Close)
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--home", home}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	home := t.TempDir()
	if _, err := execute(t, home, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(home, "config", "pasta.toml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := execute(t, home, "config", "init"); err == nil {
		t.Error("second init without --force succeeded")
	}

	t.Setenv("PASTA_PASTE_MODE", "typing")
	out, err := execute(t, home, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "paste.mode = typing") {
		t.Errorf("env override not shown:\n%s", out)
	}
}

func TestFlagOverridesSetting(t *testing.T) {
	home := t.TempDir()
	root := newRootCmd()
	root.SetArgs([]string{"--home", home, "run", "--mode", "clipboard", "--test"})
	root.SetIn(strings.NewReader("QUIT\n"))
	var out bytes.Buffer
	root.SetOut(&out)
	t.Cleanup(log.Close)
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	diag, err := os.ReadFile(filepath.Join(home, "logs", "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(diag), "mode=clipboard") {
		t.Errorf("session did not start in clipboard mode:\n%s", diag)
	}
}

func TestInvalidSettingRejected(t *testing.T) {
	t.Setenv("PASTA_PASTE_CHUNK_SIZE", "1")
	if _, err := execute(t, t.TempDir(), "history", "list"); err == nil {
		t.Fatal("invalid chunk size accepted")
	}
}

func TestHistoryCommandsOnEmptyStore(t *testing.T) {
	home := t.TempDir()
	out, err := execute(t, home, "history", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "history is empty") {
		t.Errorf("list output %q", out)
	}
	if _, err := execute(t, home, "history", "clear"); err == nil {
		t.Error("clear without --yes succeeded")
	}
	if _, err := execute(t, home, "history", "show", "abc"); err == nil {
		t.Error("bad id accepted")
	}
}

func TestSnippetCommands(t *testing.T) {
	home := t.TempDir()
	out, err := execute(t, home, "snippet", "add", "greet", "Hello {{name}}", "--template", "--tag", "mail")
	if err != nil {
		t.Fatal(err)
	}
	id := strings.TrimSpace(strings.TrimPrefix(out, "added "))

	out, err = execute(t, home, "snippet", "use", id, "--print", "--var", "name=Ada")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Hello Ada" {
		t.Errorf("rendered %q", out)
	}

	out, err = execute(t, home, "snippet", "list", "--tag", "mail")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "greet (template)") {
		t.Errorf("list output:\n%s", out)
	}

	if _, err := execute(t, home, "snippet", "rm", id); err != nil {
		t.Fatal(err)
	}
	out, _ = execute(t, home, "snippet", "list")
	if !strings.Contains(out, "no snippets") {
		t.Errorf("snippet still listed:\n%s", out)
	}
}

func TestPasteInput(t *testing.T) {
	got, err := pasteInput(strings.NewReader("from stdin"), nil)
	if err != nil || got != "from stdin" {
		t.Errorf("stdin: %q, %v", got, err)
	}
	got, _ = pasteInput(strings.NewReader("x"), []string{"-"})
	if got != "x" {
		t.Errorf("dash: %q", got)
	}
	got, _ = pasteInput(nil, []string{"two", "words"})
	if got != "two words" {
		t.Errorf("args: %q", got)
	}
}
