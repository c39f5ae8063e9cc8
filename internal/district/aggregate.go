package district

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
)

// ColumnClass says how a column takes part in aggregation.
type ColumnClass int

const (
	// Ignored columns are keys, dates or cleansing artifacts.
	Ignored ColumnClass = iota
	// Youth columns feed youth_updates and total_updates.
	Youth
	// Adult columns feed adult_updates and total_updates.
	Adult
	// Other columns feed total_updates only.
	Other
)

var ignoredColumns = map[string]bool{
	"date":               true,
	"state":              true,
	"district":           true,
	"pincode":            true,
	"data_quality_score": true,
	"quality_rating":     true,
}

// ClassifyColumn decides a column's bucket from its name. A name matching
// both the youth patterns ("5", "17") and the adult patterns ("18",
// "greater") is Youth.
func ClassifyColumn(name string) ColumnClass {
	lower := strings.ToLower(strings.TrimSpace(name))
	if ignoredColumns[lower] {
		return Ignored
	}
	switch {
	case strings.Contains(name, "5") || strings.Contains(name, "17"):
		return Youth
	case strings.Contains(name, "18") || strings.Contains(lower, "greater"):
		return Adult
	default:
		return Other
	}
}

// group is one district's rows within a frame.
type group struct {
	district string
	state    string
	rows     []int
}

// groupByDistrict groups row indices by district, in district name order.
// Rows with a null district are dropped.
func groupByDistrict(f *frame.Frame) ([]*group, error) {
	dc, ok := f.Column("district")
	if !ok {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrNoDistrictColumn)
	}
	sc, hasState := f.Column("state")
	byName := map[string]*group{}
	var order []string
	for i := 0; i < f.Len(); i++ {
		if !dc.Valid[i] {
			continue
		}
		name := dc.String(i)
		g, seen := byName[name]
		if !seen {
			g = &group{district: name}
			byName[name] = g
			order = append(order, name)
		}
		if g.state == "" && hasState && sc.Valid[i] {
			g.state = sc.String(i)
		}
		g.rows = append(g.rows, i)
	}
	sort.Strings(order)
	out := make([]*group, len(order))
	for i, name := range order {
		g := byName[name]
		if g.state == "" {
			g.state = "Unknown"
		}
		out[i] = g
	}
	return out, nil
}

// sumColumn adds up a column over rows. Cells that do not parse contribute
// zero and are counted in diag.
func sumColumn(c *frame.Column, rows []int, diag *Diagnostics) float64 {
	var total float64
	for _, i := range rows {
		if !c.Valid[i] {
			continue
		}
		v, ok := c.Float(i)
		if !ok || math.IsNaN(v) {
			diag.skip(c.Name)
			continue
		}
		total += v
	}
	return total
}

// AggregateSingle builds the single-dataset table for one frame. kind is
// recorded as each record's dataset type.
func AggregateSingle(f *frame.Frame, kind string) (*Table, error) {
	groups, err := groupByDistrict(f)
	if err != nil {
		return nil, err
	}
	t := &Table{Mode: Single}
	for _, g := range groups {
		r := &Record{District: g.district, State: g.state, RecordCount: len(g.rows), DatasetType: kind}
		for _, c := range f.Columns {
			class := ClassifyColumn(c.Name)
			if class == Ignored {
				continue
			}
			sum := sumColumn(c, g.rows, &t.Diagnostics)
			r.TotalUpdates += sum
			switch class {
			case Youth:
				r.YouthUpdates += sum
			case Adult:
				r.AdultUpdates += sum
			}
		}
		scoreSingle(r)
		t.Records = append(t.Records, r)
	}
	sortByScore(t.Records)
	return t, nil
}

func scoreSingle(r *Record) {
	if r.RecordCount > 0 {
		r.AvgPerRecord = r.TotalUpdates / float64(r.RecordCount)
	}
	if r.TotalUpdates > 0 {
		r.YouthRatio = r.YouthUpdates / r.TotalUpdates * 100
	}
	volume := math.Min(r.TotalUpdates/10000, 40)
	var demographic float64
	if r.YouthRatio > 60 || r.YouthRatio < 20 {
		demographic = 20
	}
	var frequency float64
	switch {
	case r.RecordCount > 100:
		frequency = 30
	case r.RecordCount > 50:
		frequency = 15
	}
	r.AnomalyScore = volume + demographic + frequency
	r.RiskLevel = TierFor(r.AnomalyScore)
}

// AggregateMulti merges enrollment, demographic and biometric totals per
// district. Any frame may be nil. Frames without a district column are
// skipped and named in the table diagnostics; it is an error only when no
// frame could be used at all.
func AggregateMulti(enrol, demo, bio *frame.Frame) (*Table, error) {
	t := &Table{Mode: Multi}
	byName := map[string]*Record{}
	used := 0
	inputs := []struct {
		f   *frame.Frame
		add func(r *Record, v float64)
	}{
		{enrol, func(r *Record, v float64) { r.EnrolTotal += v }},
		{demo, func(r *Record, v float64) { r.DemoTotal += v }},
		{bio, func(r *Record, v float64) { r.BioTotal += v }},
	}
	for _, in := range inputs {
		if in.f == nil {
			continue
		}
		groups, err := groupByDistrict(in.f)
		if err != nil {
			t.Diagnostics.MissingDistrict = append(t.Diagnostics.MissingDistrict, in.f.Name)
			continue
		}
		used++
		for _, g := range groups {
			r, ok := byName[g.district]
			if !ok {
				r = &Record{District: g.district, State: g.state}
				byName[g.district] = r
				t.Records = append(t.Records, r)
			}
			for _, c := range in.f.Columns {
				if ClassifyColumn(c.Name) == Ignored {
					continue
				}
				in.add(r, sumColumn(c, g.rows, &t.Diagnostics))
			}
		}
	}
	if used == 0 {
		return nil, ErrNoDistrictColumn
	}
	for _, r := range t.Records {
		scoreMulti(r)
	}
	sortByScore(t.Records)
	return t, nil
}

func scoreMulti(r *Record) {
	r.Gap = r.DemoTotal - r.BioTotal
	r.GapAbs = math.Abs(r.Gap)
	r.ComplianceRate = 100
	if r.DemoTotal > 0 {
		r.ComplianceRate = r.BioTotal / r.DemoTotal * 100
	}
	if r.EnrolTotal > 0 {
		r.MigrationIndex = r.DemoTotal / r.EnrolTotal
	}
	var score float64
	if r.Gap > 0 {
		score += math.Min(r.Gap/1000, 50)
	}
	switch {
	case r.ComplianceRate < 50:
		score += 30
	case r.ComplianceRate < 80:
		score += 15
	}
	if r.MigrationIndex > 2 {
		score += 20
	}
	r.AnomalyScore = score
	r.RiskLevel = TierFor(score)
}

// sortByScore orders records by descending anomaly score, keeping the
// incoming order among equal scores.
func sortByScore(recs []*Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].AnomalyScore > recs[j].AnomalyScore
	})
}
