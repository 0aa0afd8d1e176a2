package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadDocumentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.md")
	if err := os.WriteFile(path, []byte("# hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	source, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	if string(source) != "# hello\n" {
		t.Errorf("source = %q", source)
	}
	if _, err := readDocument(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNormalizePathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := normalizePath("~/notes.md"); got != filepath.Join(home, "notes.md") {
		t.Errorf("normalizePath = %q", got)
	}
	if got := normalizePath("~"); got != home {
		t.Errorf("normalizePath(~) = %q", got)
	}
	abs, _ := filepath.Abs("notes.md")
	if got := normalizePath("notes.md"); got != abs {
		t.Errorf("normalizePath relative = %q, want %q", got, abs)
	}
}

func TestTerminalWidthColumnsFallback(t *testing.T) {
	// Stdout is not a terminal under go test, so the env var decides.
	t.Setenv("COLUMNS", "123")
	if got := terminalWidth(0); got != 123 {
		t.Errorf("terminalWidth = %d", got)
	}
	t.Setenv("COLUMNS", "bogus")
	if got := terminalWidth(7); got != 7 {
		t.Errorf("terminalWidth fallback = %d", got)
	}
}

func TestResolveStylesheetExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.yaml")
	sheet := "styles:\n  - selector: emphasis\n    bold: true\n"
	if err := os.WriteFile(path, []byte(sheet), 0o644); err != nil {
		t.Fatal(err)
	}
	ss, err := resolveStylesheet(path)
	if err != nil {
		t.Fatalf("resolveStylesheet: %v", err)
	}
	if ss == nil {
		t.Fatal("explicit sheet not loaded")
	}
	if _, err := resolveStylesheet(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit sheet")
	}
}

func TestDumpEvents(t *testing.T) {
	var buf bytes.Buffer
	dumpEvents(&buf, []byte("*hi*\n"))
	out := buf.String()
	if !strings.Contains(out, "hi") {
		t.Errorf("event dump missing text: %q", out)
	}
	if lines := strings.Count(out, "\n"); lines < 3 {
		t.Errorf("event dump too short: %q", out)
	}
}
