package ml

import (
	"math"
	"math/rand"
	"sort"
)

// criterion selects the impurity measure of a cart tree.
type criterion int

const (
	gini criterion = iota
	squaredError
)

type cartNode struct {
	feature     int
	threshold   float64
	left, right int
	// value is the class distribution for classification leaves and a
	// single mean for regression leaves.
	value []float64
}

// cart is a binary decision tree grown greedily on axis-aligned splits.
// Classification targets are encoded as class indices stored in float64.
type cart struct {
	crit        criterion
	nClasses    int
	maxDepth    int
	maxFeatures int
	rng         *rand.Rand

	nodes      []cartNode
	importance []float64
}

func (t *cart) fit(X [][]float64, y []float64, idx []int) {
	d := len(X[0])
	if t.maxFeatures <= 0 || t.maxFeatures > d {
		t.maxFeatures = d
	}
	t.nodes = t.nodes[:0]
	t.importance = make([]float64, d)
	t.grow(X, y, idx, 0)
	var total float64
	for _, v := range t.importance {
		total += v
	}
	if total > 0 {
		for j := range t.importance {
			t.importance[j] /= total
		}
	}
}

func (t *cart) grow(X [][]float64, y []float64, idx []int, depth int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, cartNode{feature: -1, left: -1, right: -1, value: t.leafValue(y, idx)})
	imp := t.impurity(y, idx)
	if (t.maxDepth > 0 && depth >= t.maxDepth) || len(idx) < 2 || imp <= 1e-12 {
		return id
	}
	feat, thr, gain, ok := t.bestSplit(X, y, idx, imp)
	if !ok {
		return id
	}
	var left, right []int
	for _, i := range idx {
		if X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	t.importance[feat] += gain
	l := t.grow(X, y, left, depth+1)
	r := t.grow(X, y, right, depth+1)
	t.nodes[id].feature = feat
	t.nodes[id].threshold = thr
	t.nodes[id].left = l
	t.nodes[id].right = r
	return id
}

// bestSplit scans a random subset of features and returns the split with the
// lowest weighted child impurity. gain is the weighted impurity decrease.
func (t *cart) bestSplit(X [][]float64, y []float64, idx []int, parentImp float64) (int, float64, float64, bool) {
	d := len(X[0])
	features := t.rng.Perm(d)[:t.maxFeatures]
	n := float64(len(idx))
	bestFeat, bestThr, bestCost := -1, 0.0, math.Inf(1)

	sorted := append([]int(nil), idx...)
	for _, f := range features {
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })
		if X[sorted[0]][f] == X[sorted[len(sorted)-1]][f] {
			continue
		}
		acc := t.newAccumulator(y, sorted)
		for k := 0; k < len(sorted)-1; k++ {
			acc.move(y[sorted[k]])
			lo, hi := X[sorted[k]][f], X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			cost := acc.cost()
			if cost < bestCost {
				bestFeat, bestThr, bestCost = f, lo+(hi-lo)/2, cost
			}
		}
	}
	if bestFeat < 0 {
		return 0, 0, 0, false
	}
	return bestFeat, bestThr, n*parentImp - bestCost, true
}

func (t *cart) impurity(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	n := float64(len(idx))
	if t.crit == gini {
		counts := make([]float64, t.nClasses)
		for _, i := range idx {
			counts[int(y[i])]++
		}
		return giniOf(counts, n)
	}
	var sum, sq float64
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	return varianceOf(sum, sq, n)
}

func (t *cart) leafValue(y []float64, idx []int) []float64 {
	if t.crit == gini {
		dist := make([]float64, t.nClasses)
		for _, i := range idx {
			dist[int(y[i])]++
		}
		if len(idx) > 0 {
			for c := range dist {
				dist[c] /= float64(len(idx))
			}
		}
		return dist
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	if len(idx) == 0 {
		return []float64{0}
	}
	return []float64{sum / float64(len(idx))}
}

func (t *cart) leaf(x []float64) []float64 {
	n := t.nodes[0]
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = t.nodes[n.left]
		} else {
			n = t.nodes[n.right]
		}
	}
	return n.value
}

// splitAccumulator tracks left/right statistics while sweeping a sorted
// feature, moving one sample at a time from right to left.
type splitAccumulator struct {
	crit           criterion
	nl, nr         float64
	countL, countR []float64
	sumL, sumR     float64
	sqL, sqR       float64
}

func (t *cart) newAccumulator(y []float64, idx []int) *splitAccumulator {
	a := &splitAccumulator{crit: t.crit, nr: float64(len(idx))}
	if t.crit == gini {
		a.countL = make([]float64, t.nClasses)
		a.countR = make([]float64, t.nClasses)
		for _, i := range idx {
			a.countR[int(y[i])]++
		}
		return a
	}
	for _, i := range idx {
		a.sumR += y[i]
		a.sqR += y[i] * y[i]
	}
	return a
}

func (a *splitAccumulator) move(v float64) {
	a.nl++
	a.nr--
	if a.crit == gini {
		a.countL[int(v)]++
		a.countR[int(v)]--
		return
	}
	a.sumL += v
	a.sumR -= v
	a.sqL += v * v
	a.sqR -= v * v
}

// cost is the sample-weighted impurity of both children.
func (a *splitAccumulator) cost() float64 {
	if a.crit == gini {
		return a.nl*giniOf(a.countL, a.nl) + a.nr*giniOf(a.countR, a.nr)
	}
	return a.nl*varianceOf(a.sumL, a.sqL, a.nl) + a.nr*varianceOf(a.sumR, a.sqR, a.nr)
}

func giniOf(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func varianceOf(sum, sq, n float64) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / n
	v := sq/n - mean*mean
	if v < 0 {
		return 0
	}
	return v
}
