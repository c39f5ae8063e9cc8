// Package district turns cleansed frames into one scored record per district.
package district

import (
	"errors"
	"fmt"
)

// ErrNoDistrictColumn is returned when a frame has no district column.
var ErrNoDistrictColumn = errors.New("no district column")

// Mode says which aggregator produced a table.
type Mode string

const (
	Single Mode = "single"
	Multi  Mode = "multi"
)

// Tier is the ordinal risk classification.
type Tier string

const (
	Normal   Tier = "NORMAL"
	High     Tier = "HIGH"
	Critical Tier = "CRITICAL"
)

// Tiers lists every tier in ascending order of risk.
var Tiers = []Tier{Normal, High, Critical}

// TierFor maps a score to a tier: above 60 is CRITICAL, above 30 HIGH.
func TierFor(score float64) Tier {
	switch {
	case score > 60:
		return Critical
	case score > 30:
		return High
	default:
		return Normal
	}
}

// Index is the tier's position in Tiers, or -1 for an unknown value.
func (t Tier) Index() int {
	for i, v := range Tiers {
		if v == t {
			return i
		}
	}
	return -1
}

// ParseTier validates a tier label.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if t.Index() < 0 {
		return "", fmt.Errorf("unknown risk tier %q", s)
	}
	return t, nil
}

// Record is one row of the analysis output. Which of the aggregate fields
// are meaningful depends on the table's Mode. ML fields are nil until the
// ensemble stage fills them, and stay nil when a stage is skipped.
type Record struct {
	District string
	State    string

	// Single mode.
	TotalUpdates float64
	YouthUpdates float64
	AdultUpdates float64
	RecordCount  int
	AvgPerRecord float64
	YouthRatio   float64
	DatasetType  string

	// Multi mode.
	EnrolTotal     float64
	DemoTotal      float64
	BioTotal       float64
	Gap            float64
	GapAbs         float64
	ComplianceRate float64
	MigrationIndex float64

	AnomalyScore float64
	RiskLevel    Tier

	// MLAnomalyFlag is -1 for detector outliers and 1 otherwise.
	MLAnomalyFlag         *int
	MLConfidence          *float64
	MLCriticalProbability *float64
	MLPredictedRisk       *float64
	MLEnsembleScore       *float64
	MLRiskLevel           *Tier
}

// Diagnostics records what aggregation had to skip.
type Diagnostics struct {
	// SkippedCells counts non-null cells that did not parse as numbers and
	// contributed zero.
	SkippedCells int `json:"skipped_cells" yaml:"skipped_cells"`
	// SkippedByColumn breaks SkippedCells down per column.
	SkippedByColumn map[string]int `json:"skipped_by_column,omitempty" yaml:"skipped_by_column,omitempty"`
	// MissingDistrict names frames left out for lacking a district column.
	MissingDistrict []string `json:"missing_district,omitempty" yaml:"missing_district,omitempty"`
}

func (d *Diagnostics) skip(col string) {
	d.SkippedCells++
	if d.SkippedByColumn == nil {
		d.SkippedByColumn = map[string]int{}
	}
	d.SkippedByColumn[col]++
}

// Table is the ordered analysis output. Records are sorted by descending
// anomaly score.
type Table struct {
	Mode        Mode
	Records     []*Record
	Diagnostics Diagnostics
}

// Critical returns the CRITICAL records in table order.
func (t *Table) Critical() []*Record {
	var out []*Record
	for _, r := range t.Records {
		if r.RiskLevel == Critical {
			out = append(out, r)
		}
	}
	return out
}

// HasML reports whether any record carries ensemble output.
func (t *Table) HasML() bool {
	for _, r := range t.Records {
		if r.MLAnomalyFlag != nil {
			return true
		}
	}
	return false
}
