// Package cleanse prepares raw frames for aggregation: it normalizes column
// names, imputes missing values, drops the most extreme multivariate outliers,
// tidies location names and scores every row for completeness.
package cleanse

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
	"github.com/KaramelBytes/sentinel-cli/internal/ml"
)

const (
	// DefaultContamination is the expected outlier share for the detector.
	DefaultContamination = 0.05
	// RemovalPercentile bounds removal to rows scoring above it.
	RemovalPercentile = 0.98
	// Placeholder fills categorical columns that have no mode.
	Placeholder = "UNKNOWN"

	// QualityScoreColumn and QualityRatingColumn are appended to every
	// cleansed frame.
	QualityScoreColumn  = "data_quality_score"
	QualityRatingColumn = "quality_rating"

	detectorTrees = 20
)

var identifierHints = []string{"id", "code", "pincode", "zip"}

var locationColumns = []string{"state", "district"}

// Options configures an Engine.
type Options struct {
	// Contamination is the detector's expected outlier share. It controls
	// Report.Outliers.Detected only; removal always uses RemovalPercentile.
	Contamination float64
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// Engine runs the cleansing stages. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	contamination float64
	log           *slog.Logger
}

// NewEngine returns an Engine with defaults filled in.
func NewEngine(opt Options) *Engine {
	if opt.Contamination <= 0 {
		opt.Contamination = DefaultContamination
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{contamination: opt.Contamination, log: opt.Logger}
}

// Clean is shorthand for NewEngine(Options{Contamination: c}).Clean(f).
func Clean(f *frame.Frame, contamination float64) (*frame.Frame, *Report) {
	return NewEngine(Options{Contamination: contamination}).Clean(f)
}

// Clean returns a cleansed copy of f and its report. f is not modified.
func (e *Engine) Clean(f *frame.Frame) (*frame.Frame, *Report) {
	out := f.Clone()
	rep := &Report{Source: f.Name, OriginalRows: f.Len()}
	log := e.log.With("source", f.Name)

	standardizeNames(out)

	// Completeness is judged on the cells as they arrived.
	present := presentCounts(out)
	width := len(out.Columns)

	rep.SkippedColumns, rep.SkippedCells = mixedColumns(out)
	rep.Missing = impute(out)
	log.Debug("imputed missing values", "before", rep.Missing.MissingBefore, "columns", rep.Missing.AffectedColumns)

	keep := e.removeOutliers(out, &rep.Outliers)
	if keep != nil {
		if err := out.Filter(keep); err != nil {
			log.Warn("outlier filter skipped", "err", err)
		} else {
			kept := present[:0]
			for i, k := range keep {
				if k {
					kept = append(kept, present[i])
				}
			}
			present = kept
		}
	}
	log.Debug("outlier stage", "detected", rep.Outliers.Detected, "removed", rep.Outliers.Removed, "features", rep.Outliers.FeaturesAnalyzed)

	rep.Standardization = standardizeLocations(out)
	rep.Quality = scoreQuality(out, present, width)

	rep.CleanedRows = out.Len()
	rep.RowsRemoved = rep.OriginalRows - rep.CleanedRows
	if rep.OriginalRows > 0 {
		rep.RemovalRate = float64(rep.RowsRemoved) / float64(rep.OriginalRows) * 100
	}
	log.Info("cleansed", "rows_before", rep.OriginalRows, "rows_after", rep.CleanedRows)
	return out, rep
}

// StandardizeName trims and lowercases a column name and turns spaces and
// hyphens into underscores.
func StandardizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(n)
}

func standardizeNames(f *frame.Frame) {
	for _, c := range f.Columns {
		c.Name = StandardizeName(c.Name)
	}
}

func presentCounts(f *frame.Frame) []int {
	out := make([]int, f.Len())
	for _, c := range f.Columns {
		for i, ok := range c.Valid {
			if ok {
				out[i]++
			}
		}
	}
	return out
}

// mixedColumns finds categorical columns that hold some parseable numbers.
// Those cells cannot take part in numeric arithmetic and are counted instead.
func mixedColumns(f *frame.Frame) ([]string, int) {
	var cols []string
	cells := 0
	for _, c := range f.Columns {
		if c.Kind != frame.Categorical {
			continue
		}
		n := 0
		for i := range c.Valid {
			if _, ok := c.Float(i); ok {
				n++
			}
		}
		if n > 0 {
			cols = append(cols, c.Name)
			cells += n
		}
	}
	return cols, cells
}

func impute(f *frame.Frame) MissingStats {
	st := MissingStats{MissingBefore: f.NullCount(), AffectedColumns: []string{}}
	for _, c := range f.Columns {
		if c.NullCount() == 0 {
			continue
		}
		st.AffectedColumns = append(st.AffectedColumns, c.Name)
		if c.Kind == frame.Numeric {
			fill := meanOfValid(c)
			for i, ok := range c.Valid {
				if !ok {
					c.Num[i], c.Valid[i] = fill, true
				}
			}
			continue
		}
		fill := modeOf(c)
		for i, ok := range c.Valid {
			if !ok {
				c.Str[i], c.Valid[i] = fill, true
			}
		}
	}
	st.MissingAfter = f.NullCount()
	st.Imputed = st.MissingBefore - st.MissingAfter
	return st
}

func meanOfValid(c *frame.Column) float64 {
	m, ok := c.Mean()
	if !ok {
		return 0
	}
	return m
}

// modeOf returns the most frequent value, the smallest one on ties, or
// Placeholder when the column is entirely null.
func modeOf(c *frame.Column) string {
	counts := map[string]int{}
	for i, ok := range c.Valid {
		if ok {
			counts[c.Str[i]]++
		}
	}
	if len(counts) == 0 {
		return Placeholder
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// EligibleFeatures returns the numeric columns that do not look like
// identifiers.
func EligibleFeatures(f *frame.Frame) []*frame.Column {
	var out []*frame.Column
	for _, c := range f.Columns {
		if c.Kind != frame.Numeric || looksLikeIdentifier(c.Name) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func looksLikeIdentifier(name string) bool {
	n := strings.ToLower(name)
	for _, h := range identifierHints {
		if strings.Contains(n, h) {
			return true
		}
	}
	return false
}

// detectorConfig sizes the outlier detector for n rows.
func (e *Engine) detectorConfig(n int) ml.IsolationForestConfig {
	cfg := ml.DefaultIsolationForestConfig()
	cfg.Trees = detectorTrees
	cfg.MaxSamples = min(256, n)
	cfg.Contamination = e.contamination
	return cfg
}

// removeOutliers scores rows with an isolation forest and returns the keep
// mask, or nil when the stage is skipped.
func (e *Engine) removeOutliers(f *frame.Frame, st *OutlierStats) []bool {
	cols := EligibleFeatures(f)
	st.Features = []string{}
	for _, c := range cols {
		st.Features = append(st.Features, c.Name)
	}
	st.FeaturesAnalyzed = len(cols)
	n := f.Len()
	if len(cols) < 2 || n == 0 {
		return nil
	}
	X := make([][]float64, n)
	for i := range X {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.Num[i]
		}
		X[i] = row
	}
	var scaler ml.StandardScaler
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		e.log.Warn("outlier scaling failed", "err", err)
		return nil
	}
	det := ml.NewIsolationForest(e.detectorConfig(n))
	if err := det.Fit(Xs); err != nil {
		e.log.Warn("outlier detector failed", "err", err)
		return nil
	}
	for _, p := range det.Predict(Xs) {
		if p == -1 {
			st.Detected++
		}
	}
	scores := det.Score(Xs)
	threshold := ml.Quantile(scores, RemovalPercentile)
	keep := make([]bool, n)
	for i, s := range scores {
		keep[i] = s <= threshold
		if !keep[i] {
			st.Removed++
		}
	}
	return keep
}

// standardizeLocations trims and title-cases state and district names.
func standardizeLocations(f *frame.Frame) StandardizationStats {
	st := StandardizationStats{ColumnsProcessed: append([]string(nil), locationColumns...)}
	caser := cases.Title(language.Und)
	for _, name := range locationColumns {
		c, ok := f.Column(name)
		if !ok {
			continue
		}
		st.CorrectionsMade++
		if c.Kind != frame.Categorical {
			continue
		}
		for i := range c.Str {
			c.Str[i] = caser.String(strings.TrimSpace(c.Str[i]))
		}
	}
	return st
}

func scoreQuality(f *frame.Frame, present []int, width int) QualityStats {
	scores := make([]float64, len(present))
	ratings := make([]string, len(present))
	st := QualityStats{Distribution: map[string]int{}}
	for _, r := range Ratings {
		st.Distribution[r] = 0
	}
	for i, p := range present {
		if width > 0 {
			scores[i] = float64(p) / float64(width) * 100
		}
		ratings[i] = Rating(scores[i])
		st.Distribution[ratings[i]]++
	}
	if len(scores) > 0 {
		st.Avg = stat.Mean(scores, nil)
		st.Min = floats.Min(scores)
		st.Max = floats.Max(scores)
	}
	_ = f.AddNumeric(QualityScoreColumn, scores)
	_ = f.AddString(QualityRatingColumn, ratings)
	return st
}
