package district

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
)

// field binds an output column to a Record.
type field struct {
	name string
	get  func(r *Record) (any, bool)
	set  func(r *Record, s string) error
}

func num(get func(r *Record) *float64) field {
	return field{
		get: func(r *Record) (any, bool) { return *get(r), true },
		set: func(r *Record, s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*get(r) = v
			return nil
		},
	}
}

func optNum(get func(r *Record) **float64) field {
	return field{
		get: func(r *Record) (any, bool) {
			p := *get(r)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(r *Record, s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*get(r) = &v
			return nil
		},
	}
}

func named(name string, f field) field {
	f.name = name
	return f
}

var (
	headFields = []field{
		{
			name: "district",
			get:  func(r *Record) (any, bool) { return r.District, true },
			set:  func(r *Record, s string) error { r.District = s; return nil },
		},
		{
			name: "state",
			get:  func(r *Record) (any, bool) { return r.State, true },
			set:  func(r *Record, s string) error { r.State = s; return nil },
		},
	}

	singleFields = []field{
		named("total_updates", num(func(r *Record) *float64 { return &r.TotalUpdates })),
		named("youth_updates", num(func(r *Record) *float64 { return &r.YouthUpdates })),
		named("adult_updates", num(func(r *Record) *float64 { return &r.AdultUpdates })),
		{
			name: "record_count",
			get:  func(r *Record) (any, bool) { return r.RecordCount, true },
			set: func(r *Record, s string) error {
				v, err := strconv.Atoi(s)
				r.RecordCount = v
				return err
			},
		},
		named("avg_per_record", num(func(r *Record) *float64 { return &r.AvgPerRecord })),
		named("youth_ratio", num(func(r *Record) *float64 { return &r.YouthRatio })),
	}

	multiFields = []field{
		named("enrol_total", num(func(r *Record) *float64 { return &r.EnrolTotal })),
		named("demo_total", num(func(r *Record) *float64 { return &r.DemoTotal })),
		named("bio_total", num(func(r *Record) *float64 { return &r.BioTotal })),
		named("gap", num(func(r *Record) *float64 { return &r.Gap })),
		named("gap_abs", num(func(r *Record) *float64 { return &r.GapAbs })),
		named("compliance_rate", num(func(r *Record) *float64 { return &r.ComplianceRate })),
		named("migration_index", num(func(r *Record) *float64 { return &r.MigrationIndex })),
	}

	scoreFields = []field{
		named("anomaly_score", num(func(r *Record) *float64 { return &r.AnomalyScore })),
		{
			name: "risk_level",
			get:  func(r *Record) (any, bool) { return string(r.RiskLevel), true },
			set: func(r *Record, s string) error {
				t, err := ParseTier(s)
				r.RiskLevel = t
				return err
			},
		},
	}

	datasetTypeField = field{
		name: "dataset_type",
		get:  func(r *Record) (any, bool) { return r.DatasetType, true },
		set:  func(r *Record, s string) error { r.DatasetType = s; return nil },
	}

	mlFields = []field{
		{
			name: "ml_anomaly_score",
			get: func(r *Record) (any, bool) {
				if r.MLAnomalyFlag == nil {
					return nil, false
				}
				return *r.MLAnomalyFlag, true
			},
			set: func(r *Record, s string) error {
				if s == "" {
					return nil
				}
				v, err := strconv.Atoi(s)
				if err != nil {
					return err
				}
				r.MLAnomalyFlag = &v
				return nil
			},
		},
		named("ml_confidence", optNum(func(r *Record) **float64 { return &r.MLConfidence })),
		named("ml_critical_probability", optNum(func(r *Record) **float64 { return &r.MLCriticalProbability })),
		named("ml_predicted_risk", optNum(func(r *Record) **float64 { return &r.MLPredictedRisk })),
		named("ml_ensemble_score", optNum(func(r *Record) **float64 { return &r.MLEnsembleScore })),
		{
			name: "ml_risk_level",
			get: func(r *Record) (any, bool) {
				if r.MLRiskLevel == nil {
					return nil, false
				}
				return string(*r.MLRiskLevel), true
			},
			set: func(r *Record, s string) error {
				if s == "" {
					return nil
				}
				t, err := ParseTier(s)
				if err != nil {
					return err
				}
				r.MLRiskLevel = &t
				return nil
			},
		},
	}
)

// fields returns the output columns for a mode. ML columns are included when
// any record carries them.
func (t *Table) fields() []field {
	out := append([]field(nil), headFields...)
	if t.Mode == Multi {
		out = append(out, multiFields...)
		out = append(out, scoreFields...)
	} else {
		out = append(out, singleFields...)
		out = append(out, scoreFields...)
		out = append(out, datasetTypeField)
	}
	for _, f := range mlFields {
		for _, r := range t.Records {
			if _, ok := f.get(r); ok {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Layout is a table's output column set, computed once and reused for
// every row of a write.
type Layout struct {
	fields []field
}

// Layout fixes the output columns for the table's current records.
func (t *Table) Layout() Layout {
	return Layout{fields: t.fields()}
}

// Columns returns the output column names.
func (l Layout) Columns() []string {
	out := make([]string, len(l.fields))
	for i, f := range l.fields {
		out[i] = f.name
	}
	return out
}

// Values renders a record in Columns order. Absent optional values are
// empty strings.
func (l Layout) Values(r *Record) []string {
	out := make([]string, len(l.fields))
	for i, f := range l.fields {
		v, ok := f.get(r)
		if !ok {
			continue
		}
		out[i] = formatValue(v)
	}
	return out
}

// Row renders a record as column name to typed value, leaving absent
// optional values out.
func (l Layout) Row(r *Record) map[string]any {
	out := map[string]any{}
	for _, f := range l.fields {
		if v, ok := f.get(r); ok {
			out[f.name] = v
		}
	}
	return out
}

// Columns returns the output column names for the table.
func (t *Table) Columns() []string { return t.Layout().Columns() }

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return frame.FormatNumber(x)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes the header and every record. Quoting follows
// encoding/csv so names with commas, quotes or newlines survive.
func (t *Table) WriteCSV(w io.Writer) error {
	return t.writeCSV(w, t.Records)
}

// WriteCriticalCSV writes only the CRITICAL records.
func (t *Table) WriteCriticalCSV(w io.Writer) error {
	return t.writeCSV(w, t.Critical())
}

func (t *Table) writeCSV(w io.Writer, recs []*Record) error {
	l := t.Layout()
	cw := csv.NewWriter(w)
	if err := cw.Write(l.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(l.Values(r)); err != nil {
			return fmt.Errorf("write %s: %w", r.District, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. The mode is taken from the
// columns present.
func ReadCSV(rd io.Reader) (*Table, error) {
	cr := csv.NewReader(rd)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty district table")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Mode: Single}
	for _, h := range header {
		if h == "enrol_total" {
			t.Mode = Multi
		}
	}
	known := map[string]field{}
	for _, f := range append(append(append(append(append([]field(nil), headFields...), singleFields...), multiFields...), scoreFields...), mlFields...) {
		known[f.name] = f
	}
	known[datasetTypeField.name] = datasetTypeField
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		r := &Record{}
		for i, h := range header {
			f, ok := known[h]
			if !ok || i >= len(rec) {
				continue
			}
			if err := f.set(r, rec[i]); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, h, err)
			}
		}
		t.Records = append(t.Records, r)
	}
	return t, nil
}

// WriteXLSX writes a workbook with a Districts sheet and a Critical sheet.
func (t *Table) WriteXLSX(path string) error {
	x := excelize.NewFile()
	defer x.Close()
	if err := x.SetSheetName("Sheet1", "Districts"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := t.fillSheet(x, "Districts", t.Records); err != nil {
		return err
	}
	if _, err := x.NewSheet("Critical"); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := t.fillSheet(x, "Critical", t.Critical()); err != nil {
		return err
	}
	if err := x.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func (t *Table) fillSheet(x *excelize.File, sheet string, recs []*Record) error {
	fs := t.fields()
	header := make([]any, len(fs))
	for i, f := range fs {
		header[i] = f.name
	}
	if err := x.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, r := range recs {
		row := make([]any, len(fs))
		for j, f := range fs {
			if v, ok := f.get(r); ok {
				row[j] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
