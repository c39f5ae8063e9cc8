package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileInterpolates(t *testing.T) {
	vals := []float64{4, 1, 3, 2, 5}
	assert.Equal(t, 1.0, Quantile(vals, 0))
	assert.Equal(t, 5.0, Quantile(vals, 1))
	assert.Equal(t, 3.0, Quantile(vals, 0.5))
	assert.InDelta(t, 4.92, Quantile(vals, 0.98), 1e-9)
	assert.Equal(t, []float64{4, 1, 3, 2, 5}, vals, "input must not be reordered")
}

func TestMinMaxScale(t *testing.T) {
	assert.Equal(t, []float64{0, 50, 100}, MinMaxScale([]float64{2, 4, 6}, 100))
	assert.Equal(t, []float64{0, 0}, MinMaxScale([]float64{3, 3}, 100))
	assert.Empty(t, MinMaxScale(nil, 100))
}

func TestRegressionMetrics(t *testing.T) {
	truth := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, R2(truth, truth))
	assert.InDelta(t, 0.0, MeanAbsError(truth, truth), 1e-12)
	assert.InDelta(t, 0.5, MeanAbsError(truth, []float64{1.5, 2.5, 2.5, 3.5}), 1e-12)
	assert.Equal(t, 0.0, R2([]float64{2, 2}, []float64{1, 3}))
	assert.Equal(t, 1.0, R2([]float64{2, 2}, []float64{2, 2}))
	assert.Equal(t, 0.5, Accuracy([]int{0, 1, 2, 2}, []int{0, 1, 0, 1}))
}

func TestStandardScaler(t *testing.T) {
	var s StandardScaler
	out, err := s.FitTransform([][]float64{{1, 5}, {3, 5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0}, out[0])
	assert.Equal(t, []float64{1, 0}, out[1])
	assert.Equal(t, 1.0, s.Scale[1], "constant feature keeps unit scale")

	_, err = s.FitTransform([][]float64{{1, 2}, {3}})
	require.Error(t, err)
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	tr1, te1 := TrainTestSplit(11, 0.2, 42)
	tr2, te2 := TrainTestSplit(11, 0.2, 42)
	assert.Equal(t, tr1, tr2)
	assert.Equal(t, te1, te2)
	assert.Len(t, te1, 3)
	assert.Len(t, tr1, 8)

	seen := map[int]bool{}
	for _, i := range append(append([]int(nil), tr1...), te1...) {
		assert.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 11)
}

func clusterWithOutlier() [][]float64 {
	var X [][]float64
	for i := 0; i < 50; i++ {
		X = append(X, []float64{float64(i%7) * 0.1, float64(i%5) * 0.1})
	}
	return append(X, []float64{25, -30})
}

func TestIsolationForestFlagsFarPoint(t *testing.T) {
	X := clusterWithOutlier()
	f := NewIsolationForest(IsolationForestConfig{Trees: 100, Contamination: 0.05, Seed: 42})
	require.NoError(t, f.Fit(X))

	scores := f.Score(X)
	outlier := scores[len(scores)-1]
	for i, s := range scores {
		assert.Greater(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		if i < len(scores)-1 {
			assert.Less(t, s, outlier, "row %d should look less anomalous than the far point", i)
		}
	}
	pred := f.Predict(X)
	assert.Equal(t, -1, pred[len(pred)-1])
}

func TestIsolationForestDeterministic(t *testing.T) {
	X := clusterWithOutlier()
	a := NewIsolationForest(IsolationForestConfig{Trees: 20, Contamination: 0.1, Seed: 7})
	b := NewIsolationForest(IsolationForestConfig{Trees: 20, Contamination: 0.1, Seed: 7})
	require.NoError(t, a.Fit(X))
	require.NoError(t, b.Fit(X))
	assert.Equal(t, a.Score(X), b.Score(X))
}

func TestIsolationForestSingleRow(t *testing.T) {
	f := NewIsolationForest(IsolationForestConfig{Trees: 5, Contamination: 0.1})
	require.NoError(t, f.Fit([][]float64{{1, 2}}))
	assert.Equal(t, []float64{0.5}, f.Score([][]float64{{1, 2}}))
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	want := 2*(math.Log(255)+eulerGamma) - 2*255.0/256.0
	assert.InDelta(t, want, averagePathLength(256), 1e-12)
}

func separable() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 30; i++ {
		v := float64(i)
		X = append(X, []float64{v, math.Mod(v*7, 5)})
		switch {
		case i < 10:
			y = append(y, 0)
		case i < 20:
			y = append(y, 1)
		default:
			y = append(y, 2)
		}
	}
	return X, y
}

func TestRandomForestSeparable(t *testing.T) {
	X, y := separable()
	rf := NewRandomForestClassifier(RandomForestConfig{Trees: 50, MaxDepth: 10, Seed: 42})
	require.NoError(t, rf.Fit(X, y))
	assert.Equal(t, []int{0, 1, 2}, rf.Classes)

	assert.GreaterOrEqual(t, Accuracy(y, rf.Predict(X)), 0.9)
	for _, p := range rf.PredictProba(X) {
		var sum float64
		for _, v := range p {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	imp := rf.FeatureImportances()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1], "the ordered feature carries the signal")
}

func TestRandomForestSingleClass(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	rf := NewRandomForestClassifier(RandomForestConfig{Trees: 3, Seed: 1})
	require.NoError(t, rf.Fit(X, []int{2, 2, 2}))
	assert.Equal(t, []int{2}, rf.Classes)
	assert.Equal(t, [][]float64{{1}, {1}, {1}}, rf.PredictProba(X))
	assert.Equal(t, []float64{0}, rf.FeatureImportances())
}

func TestGradientBoostingFitsLinearTarget(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, 3*float64(i)+1)
	}
	g := NewGradientBoostingRegressor(GradientBoostingConfig{Stages: 100, LearningRate: 0.1, MaxDepth: 5, Seed: 42})
	require.NoError(t, g.Fit(X, y))
	pred := g.Predict(X)
	assert.Greater(t, R2(y, pred), 0.99)
	assert.Less(t, MeanAbsError(y, pred), 2.0)
}

func TestGradientBoostingConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	g := NewGradientBoostingRegressor(GradientBoostingConfig{Stages: 10})
	require.NoError(t, g.Fit(X, []float64{5, 5, 5}))
	assert.Equal(t, []float64{5, 5, 5}, g.Predict(X))
}
