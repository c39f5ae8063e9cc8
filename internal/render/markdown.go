package render

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/sentinel-cli/internal/cleanse"
	"github.com/KaramelBytes/sentinel-cli/internal/district"
	"github.com/KaramelBytes/sentinel-cli/internal/pipeline"
)

// ResultMarkdown renders a run as a sectioned plain-text summary with a
// Markdown table of the top n districts.
func ResultMarkdown(res *pipeline.Result, n int) string {
	var b strings.Builder
	h := res.Headline
	b.WriteString("[RUN SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	b.WriteString(fmt.Sprintf("Mode: %s\n", res.Mode))
	for _, f := range res.Files {
		b.WriteString(fmt.Sprintf("- %s -> %s\n", f.Name, roleLabel(f.Role)))
	}
	b.WriteString(fmt.Sprintf("Districts: %d (critical %d, affected %d, urgent %d)\n", h.Districts, h.Critical, h.Affected, h.Urgent))
	if h.TopDistrict != "" {
		b.WriteString(fmt.Sprintf("Top district: %s, %s (score %.1f)\n", safeVal(h.TopDistrict), safeVal(h.TopState), h.TopScore))
	}
	if res.Mode == district.Multi {
		b.WriteString(fmt.Sprintf("Total positive gap: %.0f; mean compliance %.1f%%\n", h.TotalPositiveGap, h.MeanCompliance))
	} else {
		b.WriteString(fmt.Sprintf("Total updates: %.0f; mean youth ratio %.1f%%\n", h.TotalUpdates, h.MeanYouthRatio))
	}

	b.WriteString("\n[CLEANSING]\n")
	c := res.Cleansing
	b.WriteString(fmt.Sprintf("Rows: %d -> %d (%d removed, %.2f%%)\n", c.RowsBefore, c.RowsAfter, c.RowsRemoved, c.RemovalRate))
	b.WriteString(fmt.Sprintf("Average quality: %.1f\n", c.AvgQuality))
	for _, r := range c.Reports {
		b.WriteString(fmt.Sprintf("- %s: imputed %d, outliers removed %d, corrections %d\n",
			r.Source, r.Missing.Imputed, r.Outliers.Removed, r.Standardization.CorrectionsMade))
	}

	if res.Table != nil && len(res.Table.Records) > 0 {
		b.WriteString("\n[TOP DISTRICTS]\n")
		writeMarkdownTable(&b, res.Table, n)
	}

	if len(res.States) > 0 {
		b.WriteString("\n[STATES]\n")
		b.WriteString("| state | districts | avg anomaly score | critical | high |\n| --- | --- | --- | --- | --- |\n")
		for i, s := range res.States {
			if i >= n {
				break
			}
			b.WriteString(fmt.Sprintf("| %s | %d | %.1f | %d | %d |\n", safeVal(s.State), s.Districts, s.AvgAnomalyScore, s.Critical, s.High))
		}
	}

	if m := res.Metrics; m != nil {
		b.WriteString("\n[MODELS]\n")
		b.WriteString(fmt.Sprintf("- Isolation forest: %d of %d flagged\n", m.Detector.AnomaliesDetected, m.Detector.TotalSamples))
		if m.Classifier.Skipped {
			b.WriteString(fmt.Sprintf("- Random forest: skipped (%s)\n", m.Classifier.Reason))
		} else {
			b.WriteString(fmt.Sprintf("- Random forest: accuracy %.3f over %d test rows\n", m.Classifier.Accuracy, m.Classifier.TestSize))
			for i, fi := range m.Classifier.FeatureImportance {
				if i == 5 {
					break
				}
				b.WriteString(fmt.Sprintf("  • %s: %.3f\n", fi.Feature, fi.Importance))
			}
		}
		if m.Regressor.Skipped {
			b.WriteString(fmt.Sprintf("- Gradient boosting: skipped (%s)\n", m.Regressor.Reason))
		} else {
			b.WriteString(fmt.Sprintf("- Gradient boosting: R2 %.3f, MAE %.2f\n", m.Regressor.R2, m.Regressor.MeanAbsError))
		}
	}
	if cmp := res.Comparison; cmp != nil {
		b.WriteString("\n[MODEL AGREEMENT]\n")
		b.WriteString(fmt.Sprintf("Agreement: %.1f%% of %d districts\n", cmp.AgreementRate, cmp.Compared))
		b.WriteString("| rule \\ ml | NORMAL | HIGH | CRITICAL |\n| --- | --- | --- | --- |\n")
		for i, t := range district.Tiers {
			b.WriteString(fmt.Sprintf("| %s | %d | %d | %d |\n", t, cmp.Matrix[i][0], cmp.Matrix[i][1], cmp.Matrix[i][2]))
		}
	}

	if len(res.Insights) > 0 {
		b.WriteString("\n[INSIGHTS]\n")
		for _, in := range res.Insights {
			b.WriteString(fmt.Sprintf("- %s: %s\n", in.Category, in.Finding))
		}
	}

	d := res.Diagnostics
	if d.SkippedCells > 0 || len(d.MissingDistrict) > 0 {
		b.WriteString("\n[NOTES]\n")
		if d.SkippedCells > 0 {
			b.WriteString(fmt.Sprintf("- %d non-numeric cells counted as zero\n", d.SkippedCells))
		}
		for _, name := range d.MissingDistrict {
			b.WriteString(fmt.Sprintf("- %s has no district column and was left out\n", name))
		}
	}
	return b.String()
}

// ReportMarkdown renders one cleansing report.
func ReportMarkdown(r *cleanse.Report) string {
	var b strings.Builder
	b.WriteString("[CLEANSING REPORT]\n")
	b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	b.WriteString(fmt.Sprintf("Rows: %d -> %d (%d removed, %.2f%%)\n\n", r.OriginalRows, r.CleanedRows, r.RowsRemoved, r.RemovalRate))

	b.WriteString("[MISSING VALUES]\n")
	b.WriteString(fmt.Sprintf("- before %d, after %d, imputed %d\n", r.Missing.MissingBefore, r.Missing.MissingAfter, r.Missing.Imputed))
	if len(r.Missing.AffectedColumns) > 0 {
		b.WriteString(fmt.Sprintf("- columns: %s\n", strings.Join(r.Missing.AffectedColumns, ", ")))
	}

	b.WriteString("\n[OUTLIERS]\n")
	b.WriteString(fmt.Sprintf("- detected %d, removed %d\n", r.Outliers.Detected, r.Outliers.Removed))
	b.WriteString(fmt.Sprintf("- features: %s\n", joinOrNone(r.Outliers.Features)))

	b.WriteString("\n[STANDARDIZATION]\n")
	b.WriteString(fmt.Sprintf("- corrections %d in %s\n", r.Standardization.CorrectionsMade, joinOrNone(r.Standardization.ColumnsProcessed)))

	b.WriteString("\n[QUALITY]\n")
	b.WriteString(fmt.Sprintf("- avg %.1f, min %.1f, max %.1f\n", r.Quality.Avg, r.Quality.Min, r.Quality.Max))
	for _, k := range cleanse.Ratings {
		b.WriteString(fmt.Sprintf("  • %s: %d\n", k, r.Quality.Distribution[k]))
	}
	if len(r.SkippedColumns) > 0 {
		b.WriteString("\n[NOTES]\n")
		b.WriteString(fmt.Sprintf("- mixed text/number columns kept as text: %s (%d numeric-looking cells)\n", strings.Join(r.SkippedColumns, ", "), r.SkippedCells))
	}
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, t *district.Table, n int) {
	l := t.Layout()
	cols := l.Columns()
	b.WriteString("| ")
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString(" |\n|")
	for range cols {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for i, r := range t.Records {
		if i >= n {
			break
		}
		vals := l.Values(r)
		for j := range vals {
			vals[j] = safeVal(vals[j])
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(vals, " | "))
		b.WriteString(" |\n")
	}
}

func roleLabel(r pipeline.Role) string {
	switch r {
	case pipeline.Enrollment:
		return "enrollment"
	case pipeline.Demographic:
		return "demographic"
	case pipeline.Biometric:
		return "biometric"
	}
	return "unassigned"
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
