package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ElasticNet is a linear regressor with combined L1/L2 penalties, fit by
// cyclic coordinate descent on standardised features. L1Ratio 1 gives the
// lasso, 0 gives ridge.
type ElasticNet struct {
	Alpha   float64 // overall penalty strength
	L1Ratio float64 // share of the penalty that is L1, in [0, 1]
	MaxIter int
	Tol     float64

	scaler    *scaler
	coef      []float64
	intercept float64
}

// Fit trains the model. Targets are centred internally; features are
// standardised with training-set statistics.
func (m *ElasticNet) Fit(X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return fmt.Errorf("elasticnet: %d rows but %d targets", len(X), len(y))
	}
	if len(X) < 2 {
		return fmt.Errorf("elasticnet: need at least 2 training rows, have %d", len(X))
	}
	if m.L1Ratio < 0 || m.L1Ratio > 1 {
		return fmt.Errorf("elasticnet: l1_ratio %g outside [0, 1]", m.L1Ratio)
	}

	sc, err := fitScaler(X)
	if err != nil {
		return fmt.Errorf("elasticnet: %w", err)
	}
	m.scaler = sc
	Z := sc.transform(X)

	n := len(Z)
	p := len(Z[0])
	m.intercept = stat.Mean(y, nil)

	resid := make([]float64, n)
	for i := range y {
		resid[i] = y[i] - m.intercept
	}

	l1 := m.Alpha * m.L1Ratio
	l2 := m.Alpha * (1 - m.L1Ratio)

	// Column second moments; standardised columns have moment 1 except
	// constant columns, which stay at 0 and keep a zero coefficient.
	moment := make([]float64, p)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			moment[j] += Z[i][j] * Z[i][j]
		}
		moment[j] /= float64(n)
	}

	m.coef = make([]float64, p)
	for iter := 0; iter < m.MaxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < p; j++ {
			if moment[j] == 0 {
				continue
			}
			// Partial residual correlation with column j.
			rho := 0.0
			for i := 0; i < n; i++ {
				rho += Z[i][j] * (resid[i] + Z[i][j]*m.coef[j])
			}
			rho /= float64(n)

			next := softThreshold(rho, l1) / (moment[j] + l2)
			delta := next - m.coef[j]
			if delta != 0 {
				for i := 0; i < n; i++ {
					resid[i] -= Z[i][j] * delta
				}
				m.coef[j] = next
			}
			if math.Abs(delta) > maxDelta {
				maxDelta = math.Abs(delta)
			}
		}
		if maxDelta < m.Tol {
			break
		}
	}
	return nil
}

// Predict returns fitted-line predictions for each row.
func (m *ElasticNet) Predict(X [][]float64) ([]float64, error) {
	if m.scaler == nil {
		return nil, fmt.Errorf("elasticnet: predict before fit")
	}
	Z := m.scaler.transform(X)
	out := make([]float64, len(Z))
	for i, row := range Z {
		v := m.intercept
		for j, z := range row {
			v += m.coef[j] * z
		}
		out[i] = v
	}
	return out, nil
}

func softThreshold(x, t float64) float64 {
	switch {
	case x > t:
		return x - t
	case x < -t:
		return x + t
	default:
		return 0
	}
}
