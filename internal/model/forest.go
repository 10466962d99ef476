package model

import (
	"fmt"
	"math"
	"math/rand"
)

// Forest is a random forest classifier trained with class-imbalance
// compensation: each sample carries a weight inversely proportional to
// its class frequency.
type Forest struct {
	Trees    []Tree `json:"trees"`
	MaxDepth int    `json:"maxDepth"`
}

// FitForest trains a forest of the configured size on rows/labels.
// Each tree sees a bootstrap resample and considers sqrt(width)
// features per split. A fixed seed makes training reproducible.
func FitForest(rows [][]float64, labels []bool, trees, maxDepth int, seed int64) (*Forest, error) {
	if len(rows) == 0 || len(rows) != len(labels) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrTrainingFailed, len(rows), len(labels))
	}
	if trees <= 0 {
		trees = 100
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}

	weights, err := balancedWeights(labels)
	if err != nil {
		return nil, err
	}

	n := len(rows)
	mtry := int(math.Max(1, math.Round(math.Sqrt(float64(len(rows[0]))))))

	f := &Forest{Trees: make([]Tree, trees), MaxDepth: maxDepth}
	for t := 0; t < trees; t++ {
		// Per-tree seed keeps training deterministic tree by tree
		rng := rand.New(rand.NewSource(seed + int64(t)))

		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}

		f.Trees[t] = *growTree(rows, labels, weights, idx, maxDepth, mtry, rng)
	}
	return f, nil
}

// balancedWeights assigns n/(2*n_class) to each sample so both classes
// contribute equally to impurity regardless of imbalance.
func balancedWeights(labels []bool) ([]float64, error) {
	var pos, neg int
	for _, l := range labels {
		if l {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, fmt.Errorf("%w: training set has a single class", ErrTrainingFailed)
	}

	n := float64(len(labels))
	wPos := n / (2 * float64(pos))
	wNeg := n / (2 * float64(neg))

	weights := make([]float64, len(labels))
	for i, l := range labels {
		if l {
			weights[i] = wPos
		} else {
			weights[i] = wNeg
		}
	}
	return weights, nil
}

// ScoreProbability returns the mean leaf probability across trees.
func (f *Forest) ScoreProbability(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].PredictProb(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns the majority-probability class.
func (f *Forest) Predict(x []float64) bool {
	return f.ScoreProbability(x) >= 0.5
}
