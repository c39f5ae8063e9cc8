package cleanse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
	"github.com/KaramelBytes/sentinel-cli/internal/ml"
	"github.com/KaramelBytes/sentinel-cli/internal/testutil"
)

func sampleFrame(n int) *frame.Frame {
	header := []string{" State ", "District", "Age 5-17", "age-18-greater", "Pincode"}
	var recs [][]string
	for i := 0; i < n; i++ {
		recs = append(recs, []string{
			"maharashtra",
			fmt.Sprintf("district %d", i%4),
			fmt.Sprint(10 + i%7),
			fmt.Sprint(40 + i%11),
			fmt.Sprint(411000 + i),
		})
	}
	return frame.New("enrol.csv", header, recs)
}

func TestCleanStandardizesColumnNames(t *testing.T) {
	out, _ := Clean(sampleFrame(3), DefaultContamination)
	assert.Equal(t, []string{"state", "district", "age_5_17", "age_18_greater", "pincode", QualityScoreColumn, QualityRatingColumn}, out.Names())
}

func TestCleanLeavesNoNulls(t *testing.T) {
	header := []string{"state", "district", "age_5_17", "center_id", "notes"}
	recs := [][]string{
		{"goa", "north goa", "10", "", ""},
		{"", "north goa", "", "30", ""},
		{"goa", "", "20", "50", ""},
		{"goa", "south goa", "30", "NaN", ""},
	}
	in := frame.New("demo.csv", header, recs)
	eng := NewEngine(Options{Contamination: 0.05, Logger: testutil.NewTestLogger(t)})
	out, rep := eng.Clean(in)

	assert.Equal(t, 0, out.NullCount())
	assert.Equal(t, 9, rep.Missing.MissingBefore)
	assert.Equal(t, 0, rep.Missing.MissingAfter)
	assert.Equal(t, 9, rep.Missing.Imputed)
	assert.Equal(t, []string{"state", "district", "age_5_17", "center_id", "notes"}, rep.Missing.AffectedColumns)
	assert.Zero(t, rep.Outliers.Removed, "center_id is not an outlier feature")

	age, _ := out.Column("age_5_17")
	assert.Equal(t, 20.0, age.Num[1], "numeric gaps take the column mean")
	notes, _ := out.Column("notes")
	assert.Equal(t, Placeholder, notes.Str[0])
	state, _ := out.Column("state")
	assert.Equal(t, "Goa", state.Str[1], "categorical gaps take the mode")
	district, _ := out.Column("district")
	assert.Equal(t, "North Goa", district.Str[2])

	// The input frame is untouched.
	assert.Equal(t, 9, in.NullCount())
}

func TestCleanQualityScoresUseArrivalCompleteness(t *testing.T) {
	header := []string{"state", "district", "a", "b"}
	recs := [][]string{
		{"goa", "panaji", "1", "2"},
		{"goa", "panaji", "", "2"},
		{"goa", "", "", ""},
	}
	out, rep := Clean(frame.New("x.csv", header, recs), 0.05)
	q, ok := out.Column(QualityScoreColumn)
	require.True(t, ok)
	for i := range q.Num {
		assert.GreaterOrEqual(t, q.Num[i], 0.0)
		assert.LessOrEqual(t, q.Num[i], 100.0)
	}
	total := 0
	for _, n := range rep.Quality.Distribution {
		total += n
	}
	assert.Equal(t, out.Len(), total)
	assert.Len(t, rep.Quality.Distribution, 4)
}

func TestCleanQualityBuckets(t *testing.T) {
	header := []string{"state", "district", "a", "b"}
	recs := [][]string{
		{"goa", "panaji", "x", "y"},
		{"goa", "panaji", "", "y"},
		{"goa", "", "", "y"},
		{"", "", "", "y"},
	}
	out, rep := Clean(frame.New("x.csv", header, recs), 0.05)
	require.Equal(t, 4, out.Len(), "text-only frames skip outlier removal")
	q, _ := out.Column(QualityScoreColumn)
	r, _ := out.Column(QualityRatingColumn)
	assert.Equal(t, []float64{100, 75, 50, 25}, q.Num)
	assert.Equal(t, []string{RatingExcellent, RatingGood, RatingFair, RatingPoor}, r.Str)
	assert.Equal(t, 25.0, rep.Quality.Min)
	assert.Equal(t, 100.0, rep.Quality.Max)
	assert.InDelta(t, 62.5, rep.Quality.Avg, 1e-9)
	assert.Equal(t, map[string]int{RatingPoor: 1, RatingFair: 1, RatingGood: 1, RatingExcellent: 1}, rep.Quality.Distribution)
}

func TestCleanTitleCasesLocations(t *testing.T) {
	header := []string{"state", "district", "n"}
	recs := [][]string{
		{"  jammu and kashmir ", "o'brien", "1"},
		{"NORTH-EAST", "north  goa", "2"},
	}
	out, rep := Clean(frame.New("x.csv", header, recs), 0.05)
	state, _ := out.Column("state")
	district, _ := out.Column("district")
	assert.Equal(t, []string{"Jammu And Kashmir", "North-East"}, state.Str)
	// Letters after an apostrophe stay lowercase.
	assert.Equal(t, []string{"O'brien", "North  Goa"}, district.Str)
	assert.Equal(t, 2, rep.Standardization.CorrectionsMade)
}

func TestCleanRemovesAtMostTwoPercent(t *testing.T) {
	in := sampleFrame(500)
	// Plant a few extreme rows.
	age, _ := in.Column("Age 5-17")
	for _, i := range []int{3, 77, 201} {
		age.Num[i] = 1e6
	}
	out, rep := Clean(in, 0.05)

	assert.Equal(t, 500, rep.OriginalRows)
	assert.LessOrEqual(t, rep.RowsRemoved, 10)
	assert.Equal(t, rep.Outliers.Removed, rep.RowsRemoved)
	assert.Equal(t, out.Len(), rep.CleanedRows)
	assert.Equal(t, 2, rep.Outliers.FeaturesAnalyzed, "pincode is treated as an identifier")
	assert.Equal(t, []string{"age_5_17", "age_18_greater"}, rep.Outliers.Features)
	assert.Positive(t, rep.Outliers.Detected)

	cleaned, _ := out.Column("age_5_17")
	for _, v := range cleaned.Num {
		assert.Less(t, v, 1e6, "planted extremes are among the removed rows")
	}
}

func TestDetectorConfig(t *testing.T) {
	eng := NewEngine(Options{Contamination: 0.1})
	assert.Equal(t, ml.IsolationForestConfig{Trees: 20, MaxSamples: 40, Contamination: 0.1, Seed: 42}, eng.detectorConfig(40))
	assert.Equal(t, 256, eng.detectorConfig(1000).MaxSamples)
}

func TestCleanSkipsOutliersWithOneFeature(t *testing.T) {
	header := []string{"state", "district", "count", "pincode"}
	var recs [][]string
	for i := 0; i < 200; i++ {
		recs = append(recs, []string{"goa", "panaji", fmt.Sprint(i * i), fmt.Sprint(400000 + i)})
	}
	out, rep := Clean(frame.New("bio.csv", header, recs), 0.05)
	assert.Equal(t, 200, out.Len())
	assert.Zero(t, rep.Outliers.Removed)
	assert.Zero(t, rep.Outliers.Detected)
	assert.Equal(t, 1, rep.Outliers.FeaturesAnalyzed)
}

func TestCleanEmptyFrame(t *testing.T) {
	out, rep := Clean(frame.New("empty.csv", []string{"state", "district", "a", "b"}, nil), 0.05)
	assert.Equal(t, 0, out.Len())
	assert.Zero(t, rep.RemovalRate)
	assert.Zero(t, rep.Quality.Avg)
}

func TestCleanRecordsMixedColumns(t *testing.T) {
	header := []string{"district", "count"}
	recs := [][]string{{"a", "10"}, {"b", "n.a."}, {"c", "12"}}
	_, rep := Clean(frame.New("m.csv", header, recs), 0.05)
	assert.Equal(t, []string{"count"}, rep.SkippedColumns)
	assert.Equal(t, 2, rep.SkippedCells)
}

func TestRating(t *testing.T) {
	cases := map[float64]string{
		0: RatingPoor, 49.9: RatingPoor, 50: RatingFair, 74.99: RatingFair,
		75: RatingGood, 89.9: RatingGood, 90: RatingExcellent, 100: RatingExcellent,
	}
	for score, want := range cases {
		if got := Rating(score); got != want {
			t.Fatalf("Rating(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]*Report{
		{OriginalRows: 100, CleanedRows: 98, Quality: QualityStats{Avg: 90}},
		{OriginalRows: 50, CleanedRows: 50, Quality: QualityStats{Avg: 100}},
	})
	assert.Equal(t, 150, s.RowsBefore)
	assert.Equal(t, 148, s.RowsAfter)
	assert.Equal(t, 2, s.RowsRemoved)
	assert.InDelta(t, 2.0/150*100, s.RemovalRate, 1e-9)
	assert.Equal(t, 95.0, s.AvgQuality)

	assert.Zero(t, Summarize(nil).RemovalRate)
}
