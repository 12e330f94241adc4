package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedRender(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("event.rejected", map[string]any{"Reason": "not your turn"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Move rejected: not your turn" {
		t.Fatalf("unexpected %q", got)
	}
	if !strings.Contains(c.Text("cmd.help", nil), "promote <sq>") {
		t.Fatalf("help text missing")
	}
}

func TestRenderMissing(t *testing.T) {
	c, _ := New("")
	if _, err := c.Render("event.rejected", map[string]any{}); err == nil {
		t.Fatalf("expected missing field error")
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("expected missing key error")
	}
	if got := c.Text("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("fallback %q", got)
	}
}

func TestOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("board:\n  check: \"Schach!\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("board.check", nil); got != "Schach!" {
		t.Fatalf("override not applied: %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("board:\n  check: \"again\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}
