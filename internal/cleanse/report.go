package cleanse

// Quality rating labels, in ascending order.
const (
	RatingPoor      = "Poor"
	RatingFair      = "Fair"
	RatingGood      = "Good"
	RatingExcellent = "Excellent"
)

// Ratings lists every rating bucket from worst to best.
var Ratings = []string{RatingPoor, RatingFair, RatingGood, RatingExcellent}

// Rating buckets a completeness score: [0,50) Poor, [50,75) Fair,
// [75,90) Good, [90,100] Excellent.
func Rating(score float64) string {
	switch {
	case score >= 90:
		return RatingExcellent
	case score >= 75:
		return RatingGood
	case score >= 50:
		return RatingFair
	default:
		return RatingPoor
	}
}

// MissingStats describes the imputation stage.
type MissingStats struct {
	MissingBefore   int      `json:"missing_before" yaml:"missing_before"`
	MissingAfter    int      `json:"missing_after" yaml:"missing_after"`
	Imputed         int      `json:"imputed_values" yaml:"imputed_values"`
	AffectedColumns []string `json:"affected_columns" yaml:"affected_columns"`
}

// OutlierStats describes the outlier stage. Detected counts rows the
// detector flags at the configured contamination; Removed counts rows above
// the removal percentile.
type OutlierStats struct {
	Detected         int      `json:"outliers_detected" yaml:"outliers_detected"`
	Removed          int      `json:"outliers_removed" yaml:"outliers_removed"`
	FeaturesAnalyzed int      `json:"features_analyzed" yaml:"features_analyzed"`
	Features         []string `json:"features" yaml:"features"`
}

// StandardizationStats describes categorical standardization.
type StandardizationStats struct {
	CorrectionsMade  int      `json:"corrections_made" yaml:"corrections_made"`
	ColumnsProcessed []string `json:"columns_processed" yaml:"columns_processed"`
}

// QualityStats summarizes per-row completeness scores.
type QualityStats struct {
	Avg          float64        `json:"avg_quality_score" yaml:"avg_quality_score"`
	Min          float64        `json:"min_quality_score" yaml:"min_quality_score"`
	Max          float64        `json:"max_quality_score" yaml:"max_quality_score"`
	Distribution map[string]int `json:"quality_distribution" yaml:"quality_distribution"`
}

// Report is the outcome of cleansing one frame. It is not modified after
// Clean returns.
type Report struct {
	Source       string  `json:"source" yaml:"source"`
	OriginalRows int     `json:"original_rows" yaml:"original_rows"`
	CleanedRows  int     `json:"cleaned_rows" yaml:"cleaned_rows"`
	RowsRemoved  int     `json:"rows_removed" yaml:"rows_removed"`
	RemovalRate  float64 `json:"removal_rate" yaml:"removal_rate"`

	Missing         MissingStats         `json:"missing_values" yaml:"missing_values"`
	Outliers        OutlierStats         `json:"outliers" yaml:"outliers"`
	Standardization StandardizationStats `json:"standardization" yaml:"standardization"`
	Quality         QualityStats         `json:"quality" yaml:"quality"`

	// SkippedColumns are mixed text/number columns kept as text and left out
	// of numeric arithmetic. SkippedCells counts their numeric-looking cells.
	SkippedColumns []string `json:"skipped_columns,omitempty" yaml:"skipped_columns,omitempty"`
	SkippedCells   int      `json:"skipped_cells" yaml:"skipped_cells"`
}

// Summary combines the reports of every file in one run.
type Summary struct {
	RowsBefore  int       `json:"total_rows_before" yaml:"total_rows_before"`
	RowsAfter   int       `json:"total_rows_after" yaml:"total_rows_after"`
	RowsRemoved int       `json:"rows_removed" yaml:"rows_removed"`
	RemovalRate float64   `json:"removal_rate" yaml:"removal_rate"`
	AvgQuality  float64   `json:"avg_quality_score" yaml:"avg_quality_score"`
	Reports     []*Report `json:"detailed_reports" yaml:"detailed_reports"`
}

// Summarize folds per-file reports, kept in the given order.
func Summarize(reports []*Report) Summary {
	s := Summary{Reports: reports}
	if len(reports) == 0 {
		return s
	}
	var quality float64
	for _, r := range reports {
		s.RowsBefore += r.OriginalRows
		s.RowsAfter += r.CleanedRows
		quality += r.Quality.Avg
	}
	s.RowsRemoved = s.RowsBefore - s.RowsAfter
	if s.RowsBefore > 0 {
		s.RemovalRate = float64(s.RowsRemoved) / float64(s.RowsBefore) * 100
	}
	s.AvgQuality = quality / float64(len(reports))
	return s
}
