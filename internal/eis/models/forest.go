package models

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// RandomForest is an ensemble of CART trees grown on bootstrap samples with
// random feature subsets at each split. Splits minimise the sum of squared
// errors; for 0/1 targets this criterion is equivalent to Gini impurity, so
// the same trees serve classification, where the prediction is the averaged
// leaf positive fraction.
type RandomForest struct {
	NTrees      int
	MaxDepth    int
	MinLeaf     int
	MaxFeatures int // 0 means p/3 for regression, sqrt(p) for classification
	Seed        int64
	Classify    bool

	trees     []*treeNode
	nFeatures int
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// Fit grows the ensemble. Each tree draws its bootstrap sample and feature
// subsets from a generator seeded with Seed plus the tree index, so repeated
// fits are identical.
func (m *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return fmt.Errorf("forest: %d rows but %d targets", len(X), len(y))
	}
	if len(X) < 2 {
		return fmt.Errorf("forest: need at least 2 training rows, have %d", len(X))
	}
	if m.NTrees < 1 {
		return fmt.Errorf("forest: n_trees must be positive, have %d", m.NTrees)
	}
	m.nFeatures = len(X[0])

	maxF := m.MaxFeatures
	if maxF <= 0 {
		if m.Classify {
			maxF = int(math.Sqrt(float64(m.nFeatures)))
		} else {
			maxF = m.nFeatures / 3
		}
	}
	if maxF < 1 {
		maxF = 1
	}
	if maxF > m.nFeatures {
		maxF = m.nFeatures
	}
	minLeaf := m.MinLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	n := len(X)
	m.trees = make([]*treeNode, m.NTrees)
	for t := 0; t < m.NTrees; t++ {
		rng := rand.New(rand.NewSource(m.Seed + int64(t)))
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		m.trees[t] = growTree(X, y, idx, 0, m.MaxDepth, minLeaf, maxF, rng)
	}
	return nil
}

// Predict averages the per-tree predictions.
func (m *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(m.trees) == 0 {
		return nil, fmt.Errorf("forest: predict before fit")
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != m.nFeatures {
			return nil, fmt.Errorf("forest: row %d has %d features, trained on %d", i, len(row), m.nFeatures)
		}
		sum := 0.0
		for _, tree := range m.trees {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(m.trees))
	}
	return out, nil
}

func (t *treeNode) predict(row []float64) float64 {
	for !t.leaf {
		if row[t.feature] <= t.threshold {
			t = t.left
		} else {
			t = t.right
		}
	}
	return t.value
}

func growTree(X [][]float64, y []float64, idx []int, depth, maxDepth, minLeaf, maxF int, rng *rand.Rand) *treeNode {
	mean := 0.0
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))

	if depth >= maxDepth || len(idx) < 2*minLeaf {
		return &treeNode{leaf: true, value: mean}
	}
	pure := true
	for _, i := range idx {
		if y[i] != y[idx[0]] {
			pure = false
			break
		}
	}
	if pure {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := bestSplit(X, y, idx, minLeaf, maxF, rng)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(X, y, left, depth+1, maxDepth, minLeaf, maxF, rng),
		right:     growTree(X, y, right, depth+1, maxDepth, minLeaf, maxF, rng),
	}
}

// bestSplit scans a random feature subset for the threshold minimising the
// post-split sum of squared errors, using prefix sums over sorted values.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf, maxF int, rng *rand.Rand) (int, float64, bool) {
	p := len(X[idx[0]])
	perm := rng.Perm(p)

	bestSSE := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	type point struct{ x, y float64 }
	points := make([]point, len(idx))

	for _, feature := range perm[:maxF] {
		for i, row := range idx {
			points[i] = point{x: X[row][feature], y: y[row]}
		}
		sort.Slice(points, func(a, b int) bool { return points[a].x < points[b].x })

		n := len(points)
		total, totalSq := 0.0, 0.0
		for _, pt := range points {
			total += pt.y
			totalSq += pt.y * pt.y
		}

		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < n-1; i++ {
			leftSum += points[i].y
			leftSq += points[i].y * points[i].y
			if points[i].x == points[i+1].x {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			sse := (leftSq - leftSum*leftSum/float64(nl)) +
				((totalSq - leftSq) - (total-leftSum)*(total-leftSum)/float64(nr))
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = feature
				bestThreshold = (points[i].x + points[i+1].x) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
