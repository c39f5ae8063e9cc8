package ensemble

import "github.com/KaramelBytes/sentinel-cli/internal/district"

// DetectorMetrics describes the isolation forest run.
type DetectorMetrics struct {
	AnomaliesDetected int     `json:"anomalies_detected" yaml:"anomalies_detected"`
	TotalSamples      int     `json:"total_samples" yaml:"total_samples"`
	Threshold         float64 `json:"threshold" yaml:"threshold"`
}

// FeatureImportance is one entry of the classifier's importance ranking.
type FeatureImportance struct {
	Feature    string  `json:"feature" yaml:"feature"`
	Importance float64 `json:"importance" yaml:"importance"`
}

// ClassifierMetrics describes the tier classifier. When Skipped is set the
// remaining fields are zero.
type ClassifierMetrics struct {
	Skipped           bool                `json:"skipped" yaml:"skipped"`
	Reason            string              `json:"reason,omitempty" yaml:"reason,omitempty"`
	Accuracy          float64             `json:"accuracy" yaml:"accuracy"`
	NClasses          int                 `json:"n_classes" yaml:"n_classes"`
	TrainSize         int                 `json:"train_size" yaml:"train_size"`
	TestSize          int                 `json:"test_size" yaml:"test_size"`
	FeatureImportance []FeatureImportance `json:"feature_importance,omitempty" yaml:"feature_importance,omitempty"`
}

// RegressorMetrics describes the score regressor.
type RegressorMetrics struct {
	Skipped      bool    `json:"skipped" yaml:"skipped"`
	Reason       string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	R2           float64 `json:"r2_score" yaml:"r2_score"`
	MeanAbsError float64 `json:"mean_error" yaml:"mean_error"`
}

// Metrics is everything Train reports about its models.
type Metrics struct {
	Mode       district.Mode     `json:"mode" yaml:"mode"`
	Features   []string          `json:"features" yaml:"features"`
	Detector   DetectorMetrics   `json:"isolation_forest" yaml:"isolation_forest"`
	Classifier ClassifierMetrics `json:"random_forest" yaml:"random_forest"`
	Regressor  RegressorMetrics  `json:"gradient_boosting" yaml:"gradient_boosting"`
}
