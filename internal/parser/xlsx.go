package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Load reads the selected sheet (first sheet by default). The first row is
// the header.
func (xlsxLoader) Load(path string, opt Options) (*frame.Frame, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return frame.New(filepath.Base(path), nil, nil), nil
	}
	sheet := sheets[0]
	if opt.SheetName != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.SheetName, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return frame.New(filepath.Base(path), nil, nil), nil
	}
	header := rows[0]
	var records [][]string
	for _, r := range rows[1:] {
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
		if blankRecord(r) {
			continue
		}
		records = append(records, r)
	}
	return frame.New(filepath.Base(path), header, records), nil
}
