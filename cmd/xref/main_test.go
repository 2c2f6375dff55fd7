package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestMergeCommandPrintsJSON(t *testing.T) {
	dir := t.TempDir()
	base := write(t, dir, "base.yaml", "stages:\n  - id: build\nowner: ops\n")
	override := write(t, dir, "override.toml", "owner = \"platform\"\n")

	out, err := run(t, "merge", "-o", "json", base, override)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(out, `"owner": "platform"`) || !strings.Contains(out, `"id": "build"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestMergeCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	base := write(t, dir, "base.yaml", "owner: ops\n")
	if _, err := run(t, "merge", "-o", "xml", base); err == nil {
		t.Fatalf("expected error for xml output")
	}
}

func TestConfigCheckCommand(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "xref.yaml", "engine: cel\nlog_level: warn\nactivity:\n  enabled: false\n")

	out, err := run(t, "config", "check", path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := "engine: cel\nlog_level: warn\nactivity: false\n"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}

	bad := write(t, dir, "bad.yaml", "engine: lua\n")
	if _, err := run(t, "config", "check", bad); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}

func TestMergeCommandPrintsYAML(t *testing.T) {
	dir := t.TempDir()
	base := write(t, dir, "base.json", `{"owner": "ops", "stages": [{"id": "build"}]}`)
	override := write(t, dir, "override.yaml", "owner: platform\n")

	out, err := run(t, "merge", "-o", "yaml", base, override)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(out, "owner: platform\n") || !strings.Contains(out, "  - id: build\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
