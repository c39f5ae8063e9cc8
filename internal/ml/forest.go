package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// RandomForestConfig holds classifier hyperparameters.
type RandomForestConfig struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

// RandomForestClassifier is a bagged ensemble of gini trees, each split
// considering sqrt(d) random features.
type RandomForestClassifier struct {
	cfg   RandomForestConfig
	trees []*cart
	// Classes holds the sorted distinct labels seen during Fit. Probability
	// columns follow this order.
	Classes    []int
	importance []float64
}

// NewRandomForestClassifier returns an unfitted classifier.
func NewRandomForestClassifier(cfg RandomForestConfig) *RandomForestClassifier {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	return &RandomForestClassifier{cfg: cfg}
}

// Fit trains the forest on X with integer labels y.
func (rf *RandomForestClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("random forest: empty or mismatched training data")
	}
	seen := map[int]bool{}
	rf.Classes = rf.Classes[:0]
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			rf.Classes = append(rf.Classes, v)
		}
	}
	sort.Ints(rf.Classes)
	index := make(map[int]int, len(rf.Classes))
	for i, c := range rf.Classes {
		index[c] = i
	}
	enc := make([]float64, len(y))
	for i, v := range y {
		enc[i] = float64(index[v])
	}

	d := len(X[0])
	maxFeatures := int(math.Sqrt(float64(d)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	rng := rand.New(rand.NewSource(rf.cfg.Seed))
	n := len(X)
	rf.trees = make([]*cart, rf.cfg.Trees)
	rf.importance = make([]float64, d)
	contributing := 0
	for t := range rf.trees {
		boot := make([]int, n)
		for i := range boot {
			boot[i] = rng.Intn(n)
		}
		tree := &cart{
			crit:        gini,
			nClasses:    len(rf.Classes),
			maxDepth:    rf.cfg.MaxDepth,
			maxFeatures: maxFeatures,
			rng:         rand.New(rand.NewSource(rng.Int63())),
		}
		tree.fit(X, enc, boot)
		rf.trees[t] = tree
		if len(tree.nodes) > 1 {
			contributing++
			for j, v := range tree.importance {
				rf.importance[j] += v
			}
		}
	}
	var total float64
	for _, v := range rf.importance {
		total += v
	}
	if contributing > 0 && total > 0 {
		for j := range rf.importance {
			rf.importance[j] /= total
		}
	}
	return nil
}

// PredictProba returns, per row, the mean leaf class distribution across
// trees. Columns follow Classes.
func (rf *RandomForestClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		p := make([]float64, len(rf.Classes))
		for _, t := range rf.trees {
			for c, v := range t.leaf(x) {
				p[c] += v
			}
		}
		for c := range p {
			p[c] /= float64(len(rf.trees))
		}
		out[i] = p
	}
	return out
}

// Predict returns the most probable label per row. Ties go to the lower
// class.
func (rf *RandomForestClassifier) Predict(X [][]float64) []int {
	proba := rf.PredictProba(X)
	out := make([]int, len(proba))
	for i, p := range proba {
		best := 0
		for c := 1; c < len(p); c++ {
			if p[c] > p[best] {
				best = c
			}
		}
		out[i] = rf.Classes[best]
	}
	return out
}

// FeatureImportances returns the normalized mean impurity decrease per
// feature. The values sum to 1 unless no tree ever split.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	return append([]float64(nil), rf.importance...)
}
