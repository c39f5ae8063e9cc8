package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
	"github.com/KaramelBytes/sentinel-cli/internal/parser"
	"github.com/xuri/excelize/v2"
)

func TestLoadFileUnsupported(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.docx")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := parser.LoadFile(p, parser.Options{})
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestLoadFileXLSX(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bio_updates.xlsx")
	wb := excelize.NewFile()
	rows := [][]interface{}{
		{"state", "district", "bio_age_5_17"},
		{"Goa", "North Goa", 12},
		{"Goa", "South Goa", 7},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell: %v", err)
		}
		if err := wb.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := wb.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = wb.Close()

	f, err := parser.LoadFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("rows = %d, want 2", f.Len())
	}
	c, ok := f.Column("bio_age_5_17")
	if !ok || c.Kind != frame.Numeric {
		t.Fatalf("expected numeric bio_age_5_17, got %+v", c)
	}
	if _, err := parser.LoadFile(p, parser.Options{SheetName: "Missing"}); err == nil {
		t.Fatalf("expected missing sheet error")
	}
}
