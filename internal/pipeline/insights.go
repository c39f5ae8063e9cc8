package pipeline

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/sentinel-cli/internal/district"
	"github.com/KaramelBytes/sentinel-cli/internal/ml"
)

// Insight is a short plain-language finding.
type Insight struct {
	Category string `json:"category" yaml:"category"`
	Finding  string `json:"finding" yaml:"finding"`
}

const (
	youthDominantRatio  = 70
	lowCompliance       = 50
	atypicalConfidence  = 75
	volumeTopN          = 10
	frequencyPercentile = 0.75
)

// Insights derives findings from the table. Rules that need columns the
// table's mode lacks are skipped, as are rules with nothing to report.
func Insights(t *district.Table) []Insight {
	out := []Insight{}
	if len(t.Records) == 0 {
		return out
	}
	single := t.Mode == district.Single

	if single {
		n := 0
		for _, r := range t.Records {
			if r.YouthRatio > youthDominantRatio {
				n++
			}
		}
		if n > 0 {
			out = append(out, Insight{"Demographic trends", fmt.Sprintf("%d districts show youth-dominant enrollment patterns", n)})
		}
	} else {
		n := 0
		for _, r := range t.Records {
			if r.ComplianceRate < lowCompliance {
				n++
			}
		}
		if n > 0 {
			out = append(out, Insight{"Update completion", fmt.Sprintf("%d districts show incomplete biometric verification cycles", n)})
		}
	}

	if state := busiestState(t.Records); state != "" {
		out = append(out, Insight{"Geographic load", fmt.Sprintf("%s shows the highest concentration of districts", state)})
	}

	if single {
		vols := make([]float64, len(t.Records))
		var total float64
		for i, r := range t.Records {
			vols[i] = r.TotalUpdates
			total += r.TotalUpdates
		}
		if total > 0 {
			sort.Sort(sort.Reverse(sort.Float64Slice(vols)))
			var top float64
			for _, v := range vols[:min(volumeTopN, len(vols))] {
				top += v
			}
			out = append(out, Insight{"Update volume", fmt.Sprintf("Top %d districts account for %.1f%% of total update activity", volumeTopN, top/total*100)})
		}
	}

	if t.HasML() {
		n := 0
		for _, r := range t.Records {
			if r.MLConfidence != nil && *r.MLConfidence > atypicalConfidence {
				n++
			}
		}
		if n > 0 {
			out = append(out, Insight{"Unusual dynamics", fmt.Sprintf("%d districts show atypical enrollment or update patterns", n)})
		}
	}

	if single {
		counts := make([]float64, len(t.Records))
		for i, r := range t.Records {
			counts[i] = float64(r.RecordCount)
		}
		cut := ml.Quantile(counts, frequencyPercentile)
		n := 0
		for _, c := range counts {
			if c > cut {
				n++
			}
		}
		out = append(out, Insight{"Transaction frequency", fmt.Sprintf("%d districts show elevated transaction frequencies", n)})
	}
	return out
}

// busiestState returns the state with the most districts, the
// alphabetically first one on ties.
func busiestState(recs []*district.Record) string {
	counts := map[string]int{}
	for _, r := range recs {
		counts[r.State]++
	}
	best := ""
	for s, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && s < best) {
			best = s
		}
	}
	return best
}
