package ml

import (
	"errors"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// GradientBoostingConfig holds regressor hyperparameters.
type GradientBoostingConfig struct {
	Stages       int
	LearningRate float64
	MaxDepth     int
	Seed         int64
}

// GradientBoostingRegressor fits squared-error regression trees to the
// residuals of a running prediction that starts at the target mean.
type GradientBoostingRegressor struct {
	cfg    GradientBoostingConfig
	init   float64
	stages []*cart
}

// NewGradientBoostingRegressor returns an unfitted regressor.
func NewGradientBoostingRegressor(cfg GradientBoostingConfig) *GradientBoostingRegressor {
	if cfg.Stages <= 0 {
		cfg.Stages = 100
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}
	return &GradientBoostingRegressor{cfg: cfg}
}

// Fit trains the regressor on X and y.
func (g *GradientBoostingRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("gradient boosting: empty or mismatched training data")
	}
	g.init = stat.Mean(y, nil)
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.init
	}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	resid := make([]float64, len(y))
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	g.stages = make([]*cart, 0, g.cfg.Stages)
	for s := 0; s < g.cfg.Stages; s++ {
		for i := range y {
			resid[i] = y[i] - pred[i]
		}
		tree := &cart{crit: squaredError, maxDepth: g.cfg.MaxDepth, rng: rng}
		tree.fit(X, resid, idx)
		for i, x := range X {
			pred[i] += g.cfg.LearningRate * tree.leaf(x)[0]
		}
		g.stages = append(g.stages, tree)
	}
	return nil
}

// Predict returns the boosted prediction per row.
func (g *GradientBoostingRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		v := g.init
		for _, t := range g.stages {
			v += g.cfg.LearningRate * t.leaf(x)[0]
		}
		out[i] = v
	}
	return out
}
