// Package render prints analysis results for people and for other tools.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sentinel-cli/internal/cleanse"
	"github.com/KaramelBytes/sentinel-cli/internal/district"
	"github.com/KaramelBytes/sentinel-cli/internal/pipeline"
)

// Format selects an output encoding.
type Format string

const (
	Table    Format = "table"
	Markdown Format = "markdown"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// Formats lists the accepted formats.
var Formats = []Format{Table, Markdown, JSON, YAML}

// ParseFormat accepts a format name, with "md" as an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return Table, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want %s)", s, FormatList())
}

// FormatList joins Formats for help and error text.
func FormatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, " | ")
}

// DefaultTopN is how many districts the table and markdown views list.
const DefaultTopN = 10

// document is the machine-readable form of a run: the result plus the
// district rows the result itself leaves out.
type document struct {
	pipeline.Result `yaml:",inline"`
	Districts       []map[string]any `json:"districts" yaml:"districts"`
}

func newDocument(res *pipeline.Result) document {
	d := document{Result: *res, Districts: []map[string]any{}}
	if res.Table != nil {
		l := res.Table.Layout()
		for _, r := range res.Table.Records {
			d.Districts = append(d.Districts, l.Row(r))
		}
	}
	return d
}

// Result writes a run in the chosen format. topN limits the district list in
// the table and markdown views; JSON and YAML always carry every district.
func Result(w io.Writer, res *pipeline.Result, f Format, topN int) error {
	if topN <= 0 {
		topN = DefaultTopN
	}
	switch f {
	case JSON:
		return writeJSON(w, newDocument(res))
	case YAML:
		return writeYAML(w, newDocument(res))
	case Markdown:
		_, err := io.WriteString(w, ResultMarkdown(res, topN))
		return err
	default:
		return resultTable(w, res, topN)
	}
}

// Report writes one cleansing report in the chosen format.
func Report(w io.Writer, rep *cleanse.Report, f Format) error {
	switch f {
	case JSON:
		return writeJSON(w, rep)
	case YAML:
		return writeYAML(w, rep)
	case Markdown:
		_, err := io.WriteString(w, ReportMarkdown(rep))
		return err
	default:
		return reportTable(w, rep)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func newWriter(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// compactColumns are the columns shown in the terminal view, per mode.
var compactColumns = map[district.Mode][]string{
	district.Single: {"district", "state", "total_updates", "youth_ratio", "anomaly_score", "risk_level", "ml_risk_level"},
	district.Multi:  {"district", "state", "enrol_total", "gap", "compliance_rate", "anomaly_score", "risk_level", "ml_risk_level"},
}

// Districts prints the first n records of t as a table. Columns the table
// does not carry are left out.
func Districts(w io.Writer, t *district.Table, n int) {
	l := t.Layout()
	all := l.Columns()
	pos := map[string]int{}
	for i, c := range all {
		pos[c] = i
	}
	var cols []string
	for _, c := range compactColumns[t.Mode] {
		if _, ok := pos[c]; ok {
			cols = append(cols, c)
		}
	}

	tw := newWriter(w, fmt.Sprintf("Top districts (%d of %d)", min(n, len(t.Records)), len(t.Records)))
	header := table.Row{"#"}
	for _, c := range cols {
		header = append(header, c)
	}
	tw.AppendHeader(header)
	for i, r := range t.Records {
		if i >= n {
			break
		}
		vals := l.Values(r)
		row := table.Row{i + 1}
		for _, c := range cols {
			row = append(row, vals[pos[c]])
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func resultTable(w io.Writer, res *pipeline.Result, topN int) error {
	h := res.Headline
	sum := newWriter(w, "Run "+res.RunID.String())
	sum.AppendRows([]table.Row{
		{"Mode", res.Mode},
		{"Rows cleansed", fmt.Sprintf("%d -> %d (%.2f%% removed)", res.Cleansing.RowsBefore, res.Cleansing.RowsAfter, res.Cleansing.RemovalRate)},
		{"Avg quality", fmt.Sprintf("%.1f", res.Cleansing.AvgQuality)},
		{"Districts", h.Districts},
		{"Critical", h.Critical},
		{"Affected (critical+high)", h.Affected},
		{"Urgent (score > 80)", h.Urgent},
	})
	if h.TopDistrict != "" {
		sum.AppendRow(table.Row{"Top district", fmt.Sprintf("%s, %s (%.1f)", h.TopDistrict, h.TopState, h.TopScore)})
	}
	if res.Mode == district.Multi {
		sum.AppendRow(table.Row{"Total positive gap", fmt.Sprintf("%.0f", h.TotalPositiveGap)})
		sum.AppendRow(table.Row{"Mean compliance", fmt.Sprintf("%.1f%%", h.MeanCompliance)})
	} else {
		sum.AppendRow(table.Row{"Total updates", fmt.Sprintf("%.0f", h.TotalUpdates)})
		sum.AppendRow(table.Row{"Mean youth ratio", fmt.Sprintf("%.1f%%", h.MeanYouthRatio)})
	}
	sum.Render()

	if res.Table != nil && len(res.Table.Records) > 0 {
		fmt.Fprintln(w)
		Districts(w, res.Table, topN)
	}

	if len(res.States) > 0 {
		fmt.Fprintln(w)
		st := newWriter(w, "States by average risk")
		st.AppendHeader(table.Row{"State", "Districts", "Avg score", "Alerts (critical / high)"})
		for i, s := range res.States {
			if i >= topN {
				break
			}
			st.AppendRow(table.Row{s.State, s.Districts, fmt.Sprintf("%.1f", s.AvgAnomalyScore), fmt.Sprintf("%d (%d / %d)", s.Alerts(), s.Critical, s.High)})
		}
		st.Render()
	}

	if m := res.Metrics; m != nil {
		fmt.Fprintln(w)
		mt := newWriter(w, "Models")
		mt.AppendHeader(table.Row{"Model", "Result"})
		mt.AppendRow(table.Row{"Isolation forest", fmt.Sprintf("%d of %d flagged", m.Detector.AnomaliesDetected, m.Detector.TotalSamples)})
		if m.Classifier.Skipped {
			mt.AppendRow(table.Row{"Random forest", "skipped: " + m.Classifier.Reason})
		} else {
			mt.AppendRow(table.Row{"Random forest", fmt.Sprintf("accuracy %.3f (%d classes)", m.Classifier.Accuracy, m.Classifier.NClasses)})
		}
		if m.Regressor.Skipped {
			mt.AppendRow(table.Row{"Gradient boosting", "skipped: " + m.Regressor.Reason})
		} else {
			mt.AppendRow(table.Row{"Gradient boosting", fmt.Sprintf("R2 %.3f, MAE %.2f", m.Regressor.R2, m.Regressor.MeanAbsError)})
		}
		if c := res.Comparison; c != nil {
			mt.AppendRow(table.Row{"Rule vs ML agreement", fmt.Sprintf("%.1f%% of %d", c.AgreementRate, c.Compared)})
		}
		mt.Render()
	}

	if len(res.Insights) > 0 {
		fmt.Fprintln(w)
		it := newWriter(w, "Insights")
		it.AppendHeader(table.Row{"Category", "Finding"})
		for _, in := range res.Insights {
			it.AppendRow(table.Row{in.Category, in.Finding})
		}
		it.Render()
	}
	return nil
}

func reportTable(w io.Writer, rep *cleanse.Report) error {
	tw := newWriter(w, "Cleansing "+rep.Source)
	tw.AppendRows([]table.Row{
		{"Rows", fmt.Sprintf("%d -> %d", rep.OriginalRows, rep.CleanedRows)},
		{"Removed", fmt.Sprintf("%d (%.2f%%)", rep.RowsRemoved, rep.RemovalRate)},
		{"Missing values", fmt.Sprintf("%d imputed across %d columns", rep.Missing.Imputed, len(rep.Missing.AffectedColumns))},
		{"Outliers", fmt.Sprintf("%d detected, %d removed over %d features", rep.Outliers.Detected, rep.Outliers.Removed, rep.Outliers.FeaturesAnalyzed)},
		{"Corrections", fmt.Sprintf("%d in %s", rep.Standardization.CorrectionsMade, joinOrNone(rep.Standardization.ColumnsProcessed))},
		{"Quality", fmt.Sprintf("avg %.1f (min %.1f, max %.1f)", rep.Quality.Avg, rep.Quality.Min, rep.Quality.Max)},
	})
	for _, k := range cleanse.Ratings {
		tw.AppendRow(table.Row{"  " + k, rep.Quality.Distribution[k]})
	}
	if len(rep.SkippedColumns) > 0 {
		tw.AppendRow(table.Row{"Mixed columns", fmt.Sprintf("%s (%d cells)", strings.Join(rep.SkippedColumns, ", "), rep.SkippedCells)})
	}
	tw.Render()
	return nil
}

func joinOrNone(ss []string) string {
	if len(ss) == 0 {
		return "none"
	}
	return strings.Join(ss, ", ")
}
