package models

import (
	"fmt"
	"math"
)

// Logistic is an L2-regularised logistic regression for the healthy/aged
// label, fit by full-batch gradient descent on standardised features.
// Predictions are positive-class probabilities.
type Logistic struct {
	L2        float64
	LearnRate float64
	MaxIter   int

	scaler    *scaler
	coef      []float64
	intercept float64
}

// Fit trains the classifier. Targets must be 0 or 1.
func (m *Logistic) Fit(X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return fmt.Errorf("logistic: %d rows but %d targets", len(X), len(y))
	}
	if len(X) < 2 {
		return fmt.Errorf("logistic: need at least 2 training rows, have %d", len(X))
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("logistic: target %g at row %d is not 0/1", v, i)
		}
	}

	sc, err := fitScaler(X)
	if err != nil {
		return fmt.Errorf("logistic: %w", err)
	}
	m.scaler = sc
	Z := sc.transform(X)

	n := len(Z)
	p := len(Z[0])
	m.coef = make([]float64, p)
	m.intercept = 0

	grad := make([]float64, p)
	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		for i, row := range Z {
			pred := sigmoid(m.intercept + dot(m.coef, row))
			err := pred - y[i]
			gradB += err
			for j, z := range row {
				grad[j] += err * z
			}
		}
		for j := range grad {
			grad[j] = grad[j]/float64(n) + m.L2*m.coef[j]
			m.coef[j] -= m.LearnRate * grad[j]
		}
		m.intercept -= m.LearnRate * gradB / float64(n)
	}
	return nil
}

// Predict returns positive-class probabilities.
func (m *Logistic) Predict(X [][]float64) ([]float64, error) {
	if m.scaler == nil {
		return nil, fmt.Errorf("logistic: predict before fit")
	}
	Z := m.scaler.transform(X)
	out := make([]float64, len(Z))
	for i, row := range Z {
		out[i] = sigmoid(m.intercept + dot(m.coef, row))
	}
	return out, nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func dot(a, b []float64) float64 {
	s := 0.0
	for j := range a {
		s += a[j] * b[j]
	}
	return s
}
