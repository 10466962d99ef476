package model

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a decision tree, stored in a flat table so
// the whole tree serializes as a portable rule table. Feature == -1
// marks a leaf; Prob is the weighted fraud fraction at that leaf.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Prob      float64 `json:"prob"`
}

// Tree is a binary classification tree over scaled feature vectors.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

const leafFeature = -1

// treeBuilder holds the state shared across the recursive build.
type treeBuilder struct {
	rows     [][]float64
	labels   []bool
	weights  []float64
	maxDepth int
	mtry     int
	rng      *rand.Rand
	nodes    []TreeNode
}

// growTree fits a tree on the rows selected by idx.
func growTree(rows [][]float64, labels []bool, weights []float64, idx []int, maxDepth, mtry int, rng *rand.Rand) *Tree {
	b := &treeBuilder{
		rows:     rows,
		labels:   labels,
		weights:  weights,
		maxDepth: maxDepth,
		mtry:     mtry,
		rng:      rng,
	}
	b.build(idx, 0)
	return &Tree{Nodes: b.nodes}
}

// build appends the subtree rooted at idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	var wPos, wTot float64
	for _, i := range idx {
		wTot += b.weights[i]
		if b.labels[i] {
			wPos += b.weights[i]
		}
	}

	prob := 0.0
	if wTot > 0 {
		prob = wPos / wTot
	}

	// Stop on depth, purity, or exhausted samples
	if depth >= b.maxDepth || len(idx) < 2 || prob == 0 || prob == 1 {
		return b.leaf(prob)
	}

	feature, threshold, ok := b.bestSplit(idx, wPos, wTot)
	if !ok {
		return b.leaf(prob)
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(prob)
	}

	// Reserve the node slot before recursing so children land after it
	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: feature, Threshold: threshold, Prob: prob})
	leftIdx := b.build(left, depth+1)
	rightIdx := b.build(right, depth+1)
	b.nodes[nodeIdx].Left = leftIdx
	b.nodes[nodeIdx].Right = rightIdx
	return nodeIdx
}

func (b *treeBuilder) leaf(prob float64) int {
	b.nodes = append(b.nodes, TreeNode{Feature: leafFeature, Prob: prob})
	return len(b.nodes) - 1
}

// bestSplit searches a random feature subset for the split with the
// largest weighted Gini impurity decrease.
func (b *treeBuilder) bestSplit(idx []int, wPos, wTot float64) (int, float64, bool) {
	parentGini := giniImpurity(wPos, wTot)

	width := len(b.rows[0])
	candidates := b.rng.Perm(width)
	if b.mtry < len(candidates) {
		candidates = candidates[:b.mtry]
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	type point struct {
		value  float64
		weight float64
		pos    bool
	}
	points := make([]point, len(idx))

	for _, feature := range candidates {
		for k, i := range idx {
			points[k] = point{value: b.rows[i][feature], weight: b.weights[i], pos: b.labels[i]}
		}
		sort.Slice(points, func(a, c int) bool { return points[a].value < points[c].value })

		var leftPos, leftTot float64
		for k := 0; k < len(points)-1; k++ {
			leftTot += points[k].weight
			if points[k].pos {
				leftPos += points[k].weight
			}
			// Only split between distinct values
			if points[k].value == points[k+1].value {
				continue
			}

			rightTot := wTot - leftTot
			rightPos := wPos - leftPos
			if leftTot <= 0 || rightTot <= 0 {
				continue
			}

			gain := parentGini -
				(leftTot/wTot)*giniImpurity(leftPos, leftTot) -
				(rightTot/wTot)*giniImpurity(rightPos, rightTot)
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (points[k].value + points[k+1].value) / 2
			}
		}
	}

	if bestFeature < 0 || bestGain <= 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func giniImpurity(wPos, wTot float64) float64 {
	if wTot == 0 {
		return 0
	}
	p := wPos / wTot
	return 1 - p*p - (1-p)*(1-p)
}

// PredictProb walks the rule table and returns the leaf probability.
func (t *Tree) PredictProb(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Prob
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
