package models

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// scaler standardises each feature column to zero mean and unit variance
// using statistics from the training rows only. Constant columns keep a
// divisor of 1 so they map to zero instead of NaN.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(X [][]float64) (*scaler, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("empty design matrix")
	}
	p := len(X[0])
	s := &scaler{mean: make([]float64, p), std: make([]float64, p)}
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, row := range X {
			if len(row) != p {
				return nil, fmt.Errorf("ragged design matrix: row %d has %d columns, want %d", i, len(row), p)
			}
			col[i] = row[j]
		}
		s.mean[j] = stat.Mean(col, nil)
		s.std[j] = stat.PopStdDev(col, nil)
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}
	return s, nil
}

func (s *scaler) transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.mean[j]) / s.std[j]
		}
		out[i] = scaled
	}
	return out
}
