// Package ensemble re-scores a district table with three models and blends
// their output into a second, independent risk tier.
package ensemble

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/KaramelBytes/sentinel-cli/internal/district"
	"github.com/KaramelBytes/sentinel-cli/internal/ml"
)

// ErrNoFeatures is returned for a table with nothing to learn from.
var ErrNoFeatures = errors.New("no district records to train on")

const (
	// MinSupervisedRows is the smallest table the supervised models train on.
	MinSupervisedRows = 11

	detectorContamination = 0.15
	testFraction          = 0.2

	weightConfidence = 0.4
	weightCritical   = 0.4
	weightPredicted  = 0.2

	insufficientReason = "fewer than 11 districts"
)

// Options configures Train.
type Options struct {
	// Seed drives every model and the train/test split.
	Seed int64
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

type feature struct {
	name string
	get  func(r *district.Record) float64
}

var singleFeatures = []feature{
	{"total_updates", func(r *district.Record) float64 { return r.TotalUpdates }},
	{"youth_updates", func(r *district.Record) float64 { return r.YouthUpdates }},
	{"adult_updates", func(r *district.Record) float64 { return r.AdultUpdates }},
	{"record_count", func(r *district.Record) float64 { return float64(r.RecordCount) }},
	{"youth_ratio", func(r *district.Record) float64 { return r.YouthRatio }},
}

var multiFeatures = []feature{
	{"enrol_total", func(r *district.Record) float64 { return r.EnrolTotal }},
	{"demo_total", func(r *district.Record) float64 { return r.DemoTotal }},
	{"bio_total", func(r *district.Record) float64 { return r.BioTotal }},
	{"gap_abs", func(r *district.Record) float64 { return r.GapAbs }},
	{"compliance_rate", func(r *district.Record) float64 { return r.ComplianceRate }},
	{"migration_index", func(r *district.Record) float64 { return r.MigrationIndex }},
}

// FeatureNames lists the model inputs for a mode.
func FeatureNames(mode district.Mode) []string {
	fs := featuresFor(mode)
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out
}

func featuresFor(mode district.Mode) []feature {
	if mode == district.Multi {
		return multiFeatures
	}
	return singleFeatures
}

// Blend is the ensemble score: 0.4 confidence + 0.4 critical probability +
// 0.2 predicted score.
func Blend(confidence, criticalProb, predicted float64) float64 {
	return weightConfidence*confidence + weightCritical*criticalProb + weightPredicted*predicted
}

// Train fits the detector, the tier classifier and the score regressor on
// the table's features and writes their output into each record. The
// supervised stages are skipped for tables under MinSupervisedRows rows; the
// records then carry no classifier or regressor output and no ensemble score.
func Train(t *district.Table, opt Options) (*Metrics, error) {
	if t == nil || len(t.Records) == 0 {
		return nil, ErrNoFeatures
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	feats := featuresFor(t.Mode)
	n := len(t.Records)
	X := make([][]float64, n)
	for i, r := range t.Records {
		row := make([]float64, len(feats))
		for j, f := range feats {
			row[j] = f.get(r)
		}
		X[i] = row
	}
	var scaler ml.StandardScaler
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, err
	}
	m := &Metrics{Mode: t.Mode, Features: FeatureNames(t.Mode)}

	confidence := detect(t, Xs, opt.Seed, &m.Detector)
	log.Debug("detector trained", "anomalies", m.Detector.AnomaliesDetected, "samples", n)

	if n < MinSupervisedRows {
		m.Classifier = ClassifierMetrics{Skipped: true, Reason: insufficientReason}
		m.Regressor = RegressorMetrics{Skipped: true, Reason: insufficientReason}
		log.Info("supervised models skipped", "rows", n, "min", MinSupervisedRows)
		return m, nil
	}

	train, test := ml.TrainTestSplit(n, testFraction, opt.Seed)
	critical, err := classify(t, Xs, train, test, opt.Seed, m)
	if err != nil {
		return nil, err
	}
	predicted, err := regress(t, Xs, train, test, opt.Seed, &m.Regressor)
	if err != nil {
		return nil, err
	}
	log.Debug("supervised models trained", "accuracy", m.Classifier.Accuracy, "r2", m.Regressor.R2)

	for i, r := range t.Records {
		p := r.AnomalyScore
		if predicted != nil {
			p = predicted[i]
		}
		score := Blend(confidence[i], critical[i], p)
		tier := district.TierFor(score)
		r.MLEnsembleScore = &score
		r.MLRiskLevel = &tier
	}
	return m, nil
}

// detect runs the isolation forest and returns the 0-100 confidence per row.
func detect(t *district.Table, Xs [][]float64, seed int64, dm *DetectorMetrics) []float64 {
	cfg := ml.DefaultIsolationForestConfig()
	cfg.Contamination = detectorContamination
	cfg.Seed = seed
	det := ml.NewIsolationForest(cfg)
	// Fit only fails on an empty matrix, which Train has ruled out.
	_ = det.Fit(Xs)
	flags := det.Predict(Xs)
	confidence := ml.MinMaxScale(det.Score(Xs), 100)
	dm.TotalSamples = len(Xs)
	dm.Threshold = det.Threshold()
	for i, r := range t.Records {
		flag := flags[i]
		conf := confidence[i]
		r.MLAnomalyFlag = &flag
		r.MLConfidence = &conf
		if flag == -1 {
			dm.AnomaliesDetected++
		}
	}
	return confidence
}

// classify trains the tier classifier and returns the CRITICAL probability
// (0-100) for every row.
func classify(t *district.Table, Xs [][]float64, train, test []int, seed int64, m *Metrics) ([]float64, error) {
	y := make([]int, len(t.Records))
	for i, r := range t.Records {
		y[i] = r.RiskLevel.Index()
	}
	pick := func(idx []int) []int {
		out := make([]int, len(idx))
		for i, k := range idx {
			out[i] = y[k]
		}
		return out
	}
	rf := ml.NewRandomForestClassifier(ml.RandomForestConfig{Trees: 100, MaxDepth: 10, Seed: seed})
	if err := rf.Fit(ml.Rows(Xs, train), pick(train)); err != nil {
		return nil, err
	}
	proba := rf.PredictProba(Xs)
	col := -1
	if c := slices.Index(rf.Classes, district.Critical.Index()); c >= 0 {
		col = c
	} else if len(rf.Classes) > 1 {
		col = len(rf.Classes) - 1
	}
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		if col >= 0 {
			out[i] = proba[i][col] * 100
		}
		p := out[i]
		r.MLCriticalProbability = &p
	}

	cm := &m.Classifier
	cm.NClasses = len(rf.Classes)
	cm.TrainSize, cm.TestSize = len(train), len(test)
	cm.Accuracy = ml.Accuracy(pick(test), rf.Predict(ml.Rows(Xs, test)))
	for j, v := range rf.FeatureImportances() {
		cm.FeatureImportance = append(cm.FeatureImportance, FeatureImportance{Feature: m.Features[j], Importance: v})
	}
	sort.SliceStable(cm.FeatureImportance, func(a, b int) bool {
		return cm.FeatureImportance[a].Importance > cm.FeatureImportance[b].Importance
	})
	return out, nil
}

// regress trains the score regressor and returns its prediction per row.
func regress(t *district.Table, Xs [][]float64, train, test []int, seed int64, rm *RegressorMetrics) ([]float64, error) {
	y := make([]float64, len(t.Records))
	for i, r := range t.Records {
		y[i] = r.AnomalyScore
	}
	pick := func(idx []int) []float64 {
		out := make([]float64, len(idx))
		for i, k := range idx {
			out[i] = y[k]
		}
		return out
	}
	gb := ml.NewGradientBoostingRegressor(ml.GradientBoostingConfig{Stages: 100, LearningRate: 0.1, MaxDepth: 5, Seed: seed})
	if err := gb.Fit(ml.Rows(Xs, train), pick(train)); err != nil {
		return nil, err
	}
	pred := gb.Predict(Xs)
	for i, r := range t.Records {
		p := pred[i]
		r.MLPredictedRisk = &p
	}
	truth := pick(test)
	testPred := gb.Predict(ml.Rows(Xs, test))
	rm.R2 = ml.R2(truth, testPred)
	rm.MeanAbsError = ml.MeanAbsError(truth, testPred)
	return pred, nil
}
