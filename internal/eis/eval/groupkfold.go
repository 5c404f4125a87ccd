// Package eval runs group-aware nested cross-validation over a feature
// table: an outer loop estimates generalisation to unseen cells, an inner
// loop per outer fold selects the model configuration, and out-of-fold
// predictions are aggregated into a single table for global metrics.
package eval

import (
	"math/rand"

	"github.com/banshee-data/impedance.report/internal/eis"
)

// GroupKFold partitions row indices into k group-disjoint test folds.
// Distinct groups are taken in first-appearance order, shuffled with the
// seed, then dealt round-robin across folds, so fold sizes stay balanced
// without ever splitting a group. Returns *eis.InsufficientGroupsError when
// there are fewer distinct groups than folds.
func GroupKFold(groups []string, k int, seed int64) ([][]int, error) {
	return groupKFold(groups, k, seed, "outer", -1)
}

func groupKFold(groups []string, k int, seed int64, stage string, outerFold int) ([][]int, error) {
	if k < 2 {
		return nil, &eis.InsufficientGroupsError{Groups: 0, Folds: k, Stage: stage, Fold: outerFold}
	}

	var distinct []string
	seen := make(map[string]bool)
	for _, g := range groups {
		if !seen[g] {
			seen[g] = true
			distinct = append(distinct, g)
		}
	}
	if len(distinct) < k {
		return nil, &eis.InsufficientGroupsError{Groups: len(distinct), Folds: k, Stage: stage, Fold: outerFold}
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(distinct), func(i, j int) {
		distinct[i], distinct[j] = distinct[j], distinct[i]
	})

	foldOf := make(map[string]int, len(distinct))
	for i, g := range distinct {
		foldOf[g] = i % k
	}

	folds := make([][]int, k)
	for row, g := range groups {
		f := foldOf[g]
		folds[f] = append(folds[f], row)
	}
	return folds, nil
}

// complement returns the row indices not present in test, preserving input
// order.
func complement(n int, test []int) []int {
	inTest := make([]bool, n)
	for _, i := range test {
		inTest[i] = true
	}
	var train []int
	for i := 0; i < n; i++ {
		if !inTest[i] {
			train = append(train, i)
		}
	}
	return train
}
