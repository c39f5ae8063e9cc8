package parser_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
	"github.com/KaramelBytes/sentinel-cli/internal/parser"
)

func TestLoadFileCSV_SniffsSemicolon(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "demo_updates.csv")
	content := "date;state;district;demo_age_5_17;demo_age_17_\n" +
		"01-03-2025;Maharashtra;Pune;10;20\n" +
		"\n" +
		"02-03-2025;Maharashtra;Nashik;;4\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := parser.LoadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Name != "demo_updates.csv" {
		t.Fatalf("name = %q", f.Name)
	}
	if f.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (blank line skipped)", f.Len())
	}
	c, ok := f.Column("demo_age_5_17")
	if !ok || c.Kind != frame.Numeric {
		t.Fatalf("expected numeric demo_age_5_17")
	}
	if c.NullCount() != 1 {
		t.Fatalf("nulls = %d, want 1", c.NullCount())
	}
}

func TestReadCSV_EmptyAndMaxRows(t *testing.T) {
	f, err := parser.ReadCSV(strings.NewReader(""), "empty.csv", ',', 0)
	if err != nil {
		t.Fatalf("read empty: %v", err)
	}
	if f.Len() != 0 || len(f.Columns) != 0 {
		t.Fatalf("expected empty frame")
	}
	f, err = parser.ReadCSV(strings.NewReader("\ufeffdistrict,n\na,1\nb,2\nc,3\n"), "x.csv", ',', 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("rows = %d, want 2", f.Len())
	}
	if !f.Has("district") {
		t.Fatalf("BOM not stripped from header: %v", f.Names())
	}
}
