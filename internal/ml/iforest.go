package ml

import (
	"errors"
	"math"
	"math/rand"
)

const eulerGamma = 0.5772156649015329

// IsolationForestConfig holds the detector hyperparameters.
type IsolationForestConfig struct {
	// Trees is the number of isolation trees.
	Trees int
	// MaxSamples caps the per-tree subsample; 0 means min(256, n).
	MaxSamples int
	// Contamination is the expected share of outliers. It sets the score
	// threshold used by Predict.
	Contamination float64
	// Seed drives subsampling and split selection.
	Seed int64
}

// DefaultIsolationForestConfig returns 100 trees, a 10% contamination and
// seed 42. MaxSamples is left at zero, meaning min(256, n).
func DefaultIsolationForestConfig() IsolationForestConfig {
	return IsolationForestConfig{Trees: 100, Contamination: 0.1, Seed: 42}
}

// IsolationForest scores samples by how quickly random axis-aligned splits
// isolate them. Scores are in (0, 1]; higher means more anomalous.
type IsolationForest struct {
	cfg    IsolationForestConfig
	trees  []*isoTree
	psi    int
	offset float64
}

type isoNode struct {
	feature     int
	threshold   float64
	left, right int
	size        int
}

type isoTree struct {
	nodes []isoNode
}

// NewIsolationForest returns an unfitted detector.
func NewIsolationForest(cfg IsolationForestConfig) *IsolationForest {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	return &IsolationForest{cfg: cfg}
}

// Fit grows the trees on X and calibrates the outlier threshold from the
// training scores.
func (f *IsolationForest) Fit(X [][]float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("isolation forest: no samples")
	}
	psi := f.cfg.MaxSamples
	if psi <= 0 || psi > 256 {
		psi = 256
	}
	if psi > n {
		psi = n
	}
	f.psi = psi
	depthLimit := int(math.Ceil(math.Log2(float64(max(psi, 2)))))
	rng := rand.New(rand.NewSource(f.cfg.Seed))
	f.trees = make([]*isoTree, f.cfg.Trees)
	for t := range f.trees {
		sample := rng.Perm(n)[:psi]
		tree := &isoTree{}
		tree.grow(X, sample, 0, depthLimit, rng)
		f.trees[t] = tree
	}
	scores := f.Score(X)
	f.offset = Quantile(scores, 1-f.cfg.Contamination)
	return nil
}

// Score returns the anomaly score of every row of X.
func (f *IsolationForest) Score(X [][]float64) []float64 {
	out := make([]float64, len(X))
	norm := averagePathLength(f.psi)
	for i, x := range X {
		if norm == 0 || len(f.trees) == 0 {
			out[i] = 0.5
			continue
		}
		var total float64
		for _, t := range f.trees {
			total += t.pathLength(x)
		}
		mean := total / float64(len(f.trees))
		out[i] = math.Pow(2, -mean/norm)
	}
	return out
}

// Predict labels rows -1 (outlier) when their score exceeds the contamination
// threshold and 1 otherwise.
func (f *IsolationForest) Predict(X [][]float64) []int {
	scores := f.Score(X)
	out := make([]int, len(scores))
	for i, s := range scores {
		if s > f.offset {
			out[i] = -1
		} else {
			out[i] = 1
		}
	}
	return out
}

// Threshold is the score above which Predict flags a row.
func (f *IsolationForest) Threshold() float64 { return f.offset }

func (t *isoTree) grow(X [][]float64, idx []int, depth, limit int, rng *rand.Rand) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, isoNode{feature: -1, left: -1, right: -1, size: len(idx)})
	if depth >= limit || len(idx) <= 1 {
		return id
	}
	// Candidate features are those that still vary inside this node.
	d := len(X[idx[0]])
	var varying []int
	lo := make([]float64, d)
	hi := make([]float64, d)
	for j := 0; j < d; j++ {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := X[i][j]
			if v < lo[j] {
				lo[j] = v
			}
			if v > hi[j] {
				hi[j] = v
			}
		}
		if hi[j] > lo[j] {
			varying = append(varying, j)
		}
	}
	if len(varying) == 0 {
		return id
	}
	feat := varying[rng.Intn(len(varying))]
	thr := lo[feat] + rng.Float64()*(hi[feat]-lo[feat])
	var left, right []int
	for _, i := range idx {
		if X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}
	l := t.grow(X, left, depth+1, limit, rng)
	r := t.grow(X, right, depth+1, limit, rng)
	t.nodes[id].feature = feat
	t.nodes[id].threshold = thr
	t.nodes[id].left = l
	t.nodes[id].right = r
	return id
}

func (t *isoTree) pathLength(x []float64) float64 {
	depth := 0
	n := t.nodes[0]
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.size)
}

// averagePathLength is the expected path length of an unsuccessful search in
// a binary search tree of n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}
