package ensemble

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sentinel-cli/internal/district"
	"github.com/KaramelBytes/sentinel-cli/internal/testutil"
)

func singleTable(n int, tierOf func(i int) district.Tier) *district.Table {
	t := &district.Table{Mode: district.Single}
	for i := 0; i < n; i++ {
		total := float64(1000 * (i + 1))
		youth := total * float64(10+i%7*10) / 100
		score := float64(i * 5)
		t.Records = append(t.Records, &district.Record{
			District:     fmt.Sprintf("D%02d", i),
			State:        "S",
			TotalUpdates: total,
			YouthUpdates: youth,
			AdultUpdates: total - youth,
			RecordCount:  10 + i*3,
			YouthRatio:   youth / total * 100,
			AnomalyScore: score,
			RiskLevel:    tierOf(i),
		})
	}
	return t
}

func byScore(i int) district.Tier { return district.TierFor(float64(i * 5)) }

func TestBlend(t *testing.T) {
	got := Blend(80, 60, 50)
	assert.InDelta(t, 66.0, got, 1e-9)
	assert.Equal(t, district.Critical, district.TierFor(got))
}

func TestTrainEmpty(t *testing.T) {
	_, err := Train(&district.Table{Mode: district.Single}, Options{})
	assert.ErrorIs(t, err, ErrNoFeatures)
	_, err = Train(nil, Options{})
	assert.ErrorIs(t, err, ErrNoFeatures)
}

func TestTrainSkipsSupervisedOnSmallTables(t *testing.T) {
	tbl := singleTable(10, byScore)
	m, err := Train(tbl, Options{Seed: 42, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	assert.True(t, m.Classifier.Skipped)
	assert.True(t, m.Regressor.Skipped)
	assert.NotEmpty(t, m.Classifier.Reason)
	assert.Equal(t, 10, m.Detector.TotalSamples)
	for _, r := range tbl.Records {
		require.NotNil(t, r.MLAnomalyFlag)
		require.NotNil(t, r.MLConfidence)
		assert.Nil(t, r.MLCriticalProbability)
		assert.Nil(t, r.MLPredictedRisk)
		assert.Nil(t, r.MLEnsembleScore)
		assert.Nil(t, r.MLRiskLevel)
	}
}

func TestTrainFillsEveryColumn(t *testing.T) {
	tbl := singleTable(30, byScore)
	m, err := Train(tbl, Options{Seed: 42})
	require.NoError(t, err)

	assert.False(t, m.Classifier.Skipped)
	assert.False(t, m.Regressor.Skipped)
	assert.Equal(t, 3, m.Classifier.NClasses)
	assert.Equal(t, 6, m.Classifier.TestSize)
	assert.Equal(t, 24, m.Classifier.TrainSize)
	assert.Len(t, m.Classifier.FeatureImportance, 5)
	assert.GreaterOrEqual(t, m.Classifier.FeatureImportance[0].Importance, m.Classifier.FeatureImportance[4].Importance)
	assert.Equal(t, FeatureNames(district.Single), m.Features)
	assert.Positive(t, m.Detector.AnomaliesDetected)

	var lo, hi int
	for _, r := range tbl.Records {
		require.NotNil(t, r.MLAnomalyFlag)
		require.NotNil(t, r.MLConfidence)
		require.NotNil(t, r.MLCriticalProbability)
		require.NotNil(t, r.MLPredictedRisk)
		require.NotNil(t, r.MLEnsembleScore)
		require.NotNil(t, r.MLRiskLevel)
		assert.Contains(t, []int{-1, 1}, *r.MLAnomalyFlag)
		assert.GreaterOrEqual(t, *r.MLConfidence, 0.0)
		assert.LessOrEqual(t, *r.MLConfidence, 100.0)
		assert.GreaterOrEqual(t, *r.MLCriticalProbability, 0.0)
		assert.LessOrEqual(t, *r.MLCriticalProbability, 100.0)
		want := Blend(*r.MLConfidence, *r.MLCriticalProbability, *r.MLPredictedRisk)
		assert.InDelta(t, want, *r.MLEnsembleScore, 1e-9)
		assert.Equal(t, district.TierFor(want), *r.MLRiskLevel)
		if *r.MLConfidence == 0 {
			lo++
		}
		if *r.MLConfidence == 100 {
			hi++
		}
	}
	assert.Positive(t, lo, "min-max scaling reaches 0")
	assert.Positive(t, hi, "min-max scaling reaches 100")
}

func TestTrainDeterministic(t *testing.T) {
	a := singleTable(25, byScore)
	b := singleTable(25, byScore)
	ma, err := Train(a, Options{Seed: 7})
	require.NoError(t, err)
	mb, err := Train(b, Options{Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, ma, mb)
	assert.Equal(t, a.Records, b.Records)
}

func TestTrainSingleClassGivesZeroProbability(t *testing.T) {
	tbl := singleTable(15, func(int) district.Tier { return district.Normal })
	m, err := Train(tbl, Options{Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Classifier.NClasses)
	for _, r := range tbl.Records {
		assert.Equal(t, 0.0, *r.MLCriticalProbability)
	}
}

func TestTrainFallsBackToHighestClass(t *testing.T) {
	tier := func(i int) district.Tier {
		if i%2 == 0 {
			return district.High
		}
		return district.Normal
	}
	tbl := singleTable(20, tier)
	m, err := Train(tbl, Options{Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Classifier.NClasses)
	var positive bool
	for _, r := range tbl.Records {
		if *r.MLCriticalProbability > 0 {
			positive = true
		}
	}
	assert.True(t, positive, "HIGH probability stands in for the missing CRITICAL class")
}

func TestTrainMultiMode(t *testing.T) {
	tbl := &district.Table{Mode: district.Multi}
	for i := 0; i < 12; i++ {
		demo := float64(1000 + 500*i)
		bio := float64(900 - 60*i)
		r := &district.Record{
			District:       fmt.Sprintf("M%02d", i),
			EnrolTotal:     800,
			DemoTotal:      demo,
			BioTotal:       bio,
			Gap:            demo - bio,
			GapAbs:         demo - bio,
			ComplianceRate: bio / demo * 100,
			MigrationIndex: demo / 800,
		}
		r.AnomalyScore = float64(i) * 7
		r.RiskLevel = district.TierFor(r.AnomalyScore)
		tbl.Records = append(tbl.Records, r)
	}
	m, err := Train(tbl, Options{Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, []string{"enrol_total", "demo_total", "bio_total", "gap_abs", "compliance_rate", "migration_index"}, m.Features)
	assert.Len(t, m.Classifier.FeatureImportance, 6)
	assert.NotNil(t, tbl.Records[0].MLRiskLevel)
}
