package model

import (
	"fmt"
	"math"
	"math/rand"
)

// IsolationForest is an unsupervised anomaly detector. Points that are
// easy to isolate with random axis-aligned splits get short average
// path lengths and high anomaly scores.
type IsolationForest struct {
	Trees         []IsoTree `json:"trees"`
	SubsampleSize int       `json:"subsampleSize"`
	Contamination float64   `json:"contamination"`
}

// IsoTree is one isolation tree as a flat node table. Feature == -1
// marks an external node holding the sample count that reached it.
type IsoTree struct {
	Nodes []IsoNode `json:"nodes"`
}

// IsoNode is one isolation tree node.
type IsoNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Size      int     `json:"size,omitempty"`
}

const defaultSubsample = 256

// FitIsolationForest fits trees isolation trees on rows. Contamination
// is recorded for downstream threshold decisions; it does not affect
// the score itself.
func FitIsolationForest(rows [][]float64, trees int, contamination float64, seed int64) (*IsolationForest, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows for isolation forest", ErrTrainingFailed)
	}
	if trees <= 0 {
		trees = 100
	}

	psi := defaultSubsample
	if len(rows) < psi {
		psi = len(rows)
	}
	heightLimit := int(math.Ceil(math.Log2(float64(psi))))

	f := &IsolationForest{
		Trees:         make([]IsoTree, trees),
		SubsampleSize: psi,
		Contamination: contamination,
	}

	for t := 0; t < trees; t++ {
		rng := rand.New(rand.NewSource(seed + int64(t)))

		// Subsample without replacement
		perm := rng.Perm(len(rows))[:psi]
		sample := make([][]float64, psi)
		for i, p := range perm {
			sample[i] = rows[p]
		}

		b := &isoBuilder{rows: sample, rng: rng, heightLimit: heightLimit}
		idx := make([]int, psi)
		for i := range idx {
			idx[i] = i
		}
		b.build(idx, 0)
		f.Trees[t] = IsoTree{Nodes: b.nodes}
	}
	return f, nil
}

type isoBuilder struct {
	rows        [][]float64
	rng         *rand.Rand
	heightLimit int
	nodes       []IsoNode
}

func (b *isoBuilder) build(idx []int, depth int) int {
	if depth >= b.heightLimit || len(idx) <= 1 {
		b.nodes = append(b.nodes, IsoNode{Feature: leafFeature, Size: len(idx)})
		return len(b.nodes) - 1
	}

	width := len(b.rows[0])
	feature, threshold, ok := b.randomSplit(idx, width)
	if !ok {
		b.nodes = append(b.nodes, IsoNode{Feature: leafFeature, Size: len(idx)})
		return len(b.nodes) - 1
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, IsoNode{Feature: feature, Threshold: threshold})
	leftIdx := b.build(left, depth+1)
	rightIdx := b.build(right, depth+1)
	b.nodes[nodeIdx].Left = leftIdx
	b.nodes[nodeIdx].Right = rightIdx
	return nodeIdx
}

// randomSplit picks a random feature with spread and a uniform
// threshold within its range. Tries a few features before giving up on
// constant data.
func (b *isoBuilder) randomSplit(idx []int, width int) (int, float64, bool) {
	for attempt := 0; attempt < width; attempt++ {
		feature := b.rng.Intn(width)
		lo, hi := b.rows[idx[0]][feature], b.rows[idx[0]][feature]
		for _, i := range idx[1:] {
			v := b.rows[i][feature]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi > lo {
			return feature, lo + b.rng.Float64()*(hi-lo), true
		}
	}
	return 0, 0, false
}

// pathLength walks one tree and returns the adjusted path length.
func (t *IsoTree) pathLength(x []float64) float64 {
	i := 0
	depth := 0.0
	for {
		n := t.Nodes[i]
		if n.Feature == leafFeature {
			return depth + avgPathLength(n.Size)
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		depth++
	}
}

// avgPathLength is c(n), the average path length of an unsuccessful
// BST search over n points.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}

// AnomalyScore returns the native isolation score s = 2^(-E[h]/c(psi))
// in (0, 1]; higher means more anomalous, with typical points near 0.5
// and clearly isolated points approaching 1.
func (f *IsolationForest) AnomalyScore(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].pathLength(x)
	}
	mean := sum / float64(len(f.Trees))
	return math.Pow(2, -mean/avgPathLength(f.SubsampleSize))
}

// ScoreNormality maps the anomaly score into [0, 1] with 1 meaning
// entirely normal: normality = 1 - AnomalyScore. This is the
// normalization the score combiner relies on.
func (f *IsolationForest) ScoreNormality(x []float64) float64 {
	return 1 - f.AnomalyScore(x)
}
