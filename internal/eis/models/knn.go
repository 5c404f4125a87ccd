package models

import (
	"fmt"
	"math"
	"sort"
)

// KNN is a k-nearest-neighbours regressor over standardised features with
// uniform weighting. With 0/1 targets the prediction is the neighbourhood
// positive fraction, so the same estimator serves as a classifier.
type KNN struct {
	K int

	scaler *scaler
	train  [][]float64
	y      []float64
}

// Fit stores the standardised training rows.
func (m *KNN) Fit(X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return fmt.Errorf("knn: %d rows but %d targets", len(X), len(y))
	}
	if m.K < 1 {
		return fmt.Errorf("knn: k must be positive, have %d", m.K)
	}
	if len(X) < m.K {
		return fmt.Errorf("knn: k=%d exceeds %d training rows", m.K, len(X))
	}
	sc, err := fitScaler(X)
	if err != nil {
		return fmt.Errorf("knn: %w", err)
	}
	m.scaler = sc
	m.train = sc.transform(X)
	m.y = append([]float64(nil), y...)
	return nil
}

// Predict averages the targets of the k nearest training rows. Distance
// ties break on training-row index so predictions are deterministic.
func (m *KNN) Predict(X [][]float64) ([]float64, error) {
	if m.scaler == nil {
		return nil, fmt.Errorf("knn: predict before fit")
	}
	Z := m.scaler.transform(X)
	out := make([]float64, len(Z))
	type neighbour struct {
		dist float64
		idx  int
	}
	for i, row := range Z {
		neighbours := make([]neighbour, len(m.train))
		for t, tr := range m.train {
			neighbours[t] = neighbour{dist: euclidean(row, tr), idx: t}
		}
		sort.Slice(neighbours, func(a, b int) bool {
			if neighbours[a].dist != neighbours[b].dist {
				return neighbours[a].dist < neighbours[b].dist
			}
			return neighbours[a].idx < neighbours[b].idx
		})
		sum := 0.0
		for _, nb := range neighbours[:m.K] {
			sum += m.y[nb.idx]
		}
		out[i] = sum / float64(m.K)
	}
	return out, nil
}

func euclidean(a, b []float64) float64 {
	s := 0.0
	for j := range a {
		d := a[j] - b[j]
		s += d * d
	}
	return math.Sqrt(s)
}
