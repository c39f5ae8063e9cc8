package pipeline

import (
	"sort"

	"github.com/KaramelBytes/sentinel-cli/internal/district"
)

// StateSummary rolls a state's districts up into one row.
type StateSummary struct {
	State           string  `json:"state" yaml:"state"`
	Districts       int     `json:"districts" yaml:"districts"`
	AvgAnomalyScore float64 `json:"avg_anomaly_score" yaml:"avg_anomaly_score"`
	Critical        int     `json:"critical" yaml:"critical"`
	High            int     `json:"high" yaml:"high"`
}

// Alerts is the number of CRITICAL and HIGH districts in the state.
func (s StateSummary) Alerts() int { return s.Critical + s.High }

// StateSummaries groups the table by state, highest average anomaly score
// first. Equal averages are ordered by state name.
func StateSummaries(t *district.Table) []StateSummary {
	idx := map[string]int{}
	out := []StateSummary{}
	sums := []float64{}
	for _, r := range t.Records {
		i, ok := idx[r.State]
		if !ok {
			i = len(out)
			idx[r.State] = i
			out = append(out, StateSummary{State: r.State})
			sums = append(sums, 0)
		}
		s := &out[i]
		s.Districts++
		sums[i] += r.AnomalyScore
		switch r.RiskLevel {
		case district.Critical:
			s.Critical++
		case district.High:
			s.High++
		}
	}
	for i := range out {
		out[i].AvgAnomalyScore = sums[i] / float64(out[i].Districts)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].AvgAnomalyScore != out[b].AvgAnomalyScore {
			return out[a].AvgAnomalyScore > out[b].AvgAnomalyScore
		}
		return out[a].State < out[b].State
	})
	return out
}
