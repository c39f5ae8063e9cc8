package pipeline

import (
	"github.com/KaramelBytes/sentinel-cli/internal/district"
	"github.com/KaramelBytes/sentinel-cli/internal/ensemble"
)

// Comparison sets the rule-based tiers against the ML tiers.
type Comparison struct {
	// Compared counts records that carry an ML tier.
	Compared      int     `json:"compared" yaml:"compared"`
	Agreements    int     `json:"agreements" yaml:"agreements"`
	AgreementRate float64 `json:"agreement_rate" yaml:"agreement_rate"`
	// Matrix is indexed [rule tier][ml tier] in district.Tiers order.
	Matrix [3][3]int `json:"confusion_matrix" yaml:"confusion_matrix"`
}

// Compare builds the agreement summary, or returns nil when no record has an
// ML tier.
func Compare(t *district.Table) *Comparison {
	c := &Comparison{}
	for _, r := range t.Records {
		if r.MLRiskLevel == nil {
			continue
		}
		rule, ml := r.RiskLevel.Index(), r.MLRiskLevel.Index()
		if rule < 0 || ml < 0 {
			continue
		}
		c.Compared++
		c.Matrix[rule][ml]++
		if rule == ml {
			c.Agreements++
		}
	}
	if c.Compared == 0 {
		return nil
	}
	c.AgreementRate = float64(c.Agreements) / float64(c.Compared) * 100
	return c
}

// Headline holds the top-line figures for a run. Mode-specific fields are
// zero in the other mode.
type Headline struct {
	Districts   int     `json:"districts" yaml:"districts"`
	Critical    int     `json:"critical" yaml:"critical"`
	Affected    int     `json:"affected" yaml:"affected"`
	Urgent      int     `json:"urgent" yaml:"urgent"`
	TopDistrict string  `json:"top_district" yaml:"top_district"`
	TopState    string  `json:"top_state" yaml:"top_state"`
	TopScore    float64 `json:"top_score" yaml:"top_score"`

	TotalPositiveGap float64 `json:"total_positive_gap,omitempty" yaml:"total_positive_gap,omitempty"`
	MeanCompliance   float64 `json:"mean_compliance_rate,omitempty" yaml:"mean_compliance_rate,omitempty"`

	TotalUpdates   float64 `json:"total_updates,omitempty" yaml:"total_updates,omitempty"`
	MeanYouthRatio float64 `json:"mean_youth_ratio,omitempty" yaml:"mean_youth_ratio,omitempty"`

	MLAnomalies int      `json:"ml_anomalies" yaml:"ml_anomalies"`
	MLSamples   int      `json:"ml_samples" yaml:"ml_samples"`
	MLCritical  int      `json:"ml_critical" yaml:"ml_critical"`
	Accuracy    *float64 `json:"classifier_accuracy,omitempty" yaml:"classifier_accuracy,omitempty"`
	R2          *float64 `json:"regressor_r2,omitempty" yaml:"regressor_r2,omitempty"`
}

// urgentScore marks districts that need attention first.
const urgentScore = 80

// BuildHeadline computes the top-line figures. m may be nil.
func BuildHeadline(t *district.Table, m *ensemble.Metrics) Headline {
	h := Headline{Districts: len(t.Records)}
	if len(t.Records) > 0 {
		top := t.Records[0]
		h.TopDistrict, h.TopState, h.TopScore = top.District, top.State, top.AnomalyScore
	}
	var compliance, youth float64
	for _, r := range t.Records {
		switch r.RiskLevel {
		case district.Critical:
			h.Critical++
			h.Affected++
		case district.High:
			h.Affected++
		}
		if r.AnomalyScore > urgentScore {
			h.Urgent++
		}
		if r.MLRiskLevel != nil && *r.MLRiskLevel == district.Critical {
			h.MLCritical++
		}
		if t.Mode == district.Multi {
			if r.Gap > 0 {
				h.TotalPositiveGap += r.Gap
			}
			compliance += r.ComplianceRate
		} else {
			h.TotalUpdates += r.TotalUpdates
			youth += r.YouthRatio
		}
	}
	if n := float64(len(t.Records)); n > 0 {
		if t.Mode == district.Multi {
			h.MeanCompliance = compliance / n
		} else {
			h.MeanYouthRatio = youth / n
		}
	}
	if m != nil {
		h.MLAnomalies = m.Detector.AnomaliesDetected
		h.MLSamples = m.Detector.TotalSamples
		if !m.Classifier.Skipped {
			acc := m.Classifier.Accuracy
			h.Accuracy = &acc
		}
		if !m.Regressor.Skipped {
			r2 := m.Regressor.R2
			h.R2 = &r2
		}
	}
	return h
}
