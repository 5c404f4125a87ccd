package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GPRegressor is a Gaussian-process regressor with an RBF kernel and fixed
// hyperparameters, fit in closed form: alpha = (K + noise*I)^-1 (y - mean).
// Hyperparameter search happens through the evaluator's candidate grid
// rather than marginal-likelihood optimisation.
type GPRegressor struct {
	LengthScale float64
	SignalVar   float64
	NoiseVar    float64

	scaler *scaler
	train  [][]float64
	alpha  *mat.VecDense
	mean   float64
}

// Fit solves the kernel system over the training rows.
func (m *GPRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return fmt.Errorf("gp: %d rows but %d targets", len(X), len(y))
	}
	if len(X) < 2 {
		return fmt.Errorf("gp: need at least 2 training rows, have %d", len(X))
	}
	if m.LengthScale <= 0 {
		return fmt.Errorf("gp: length_scale must be positive, have %g", m.LengthScale)
	}
	if m.NoiseVar <= 0 {
		return fmt.Errorf("gp: noise_var must be positive, have %g", m.NoiseVar)
	}

	sc, err := fitScaler(X)
	if err != nil {
		return fmt.Errorf("gp: %w", err)
	}
	m.scaler = sc
	m.train = sc.transform(X)
	m.mean = stat.Mean(y, nil)

	n := len(m.train)
	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.kernel(m.train[i], m.train[j])
			if i == j {
				v += m.NoiseVar
			}
			K.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(K); !ok {
		return fmt.Errorf("gp: kernel matrix not positive definite (length_scale=%g noise_var=%g)",
			m.LengthScale, m.NoiseVar)
	}

	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		b.SetVec(i, y[i]-m.mean)
	}
	m.alpha = mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(m.alpha, b); err != nil {
		return fmt.Errorf("gp: solving kernel system: %w", err)
	}
	return nil
}

// Predict returns the posterior mean for each row.
func (m *GPRegressor) Predict(X [][]float64) ([]float64, error) {
	if m.alpha == nil {
		return nil, fmt.Errorf("gp: predict before fit")
	}
	Z := m.scaler.transform(X)
	out := make([]float64, len(Z))
	for i, row := range Z {
		v := m.mean
		for t, tr := range m.train {
			v += m.kernel(row, tr) * m.alpha.AtVec(t)
		}
		out[i] = v
	}
	return out, nil
}

func (m *GPRegressor) kernel(a, b []float64) float64 {
	d2 := 0.0
	for j := range a {
		d := a[j] - b[j]
		d2 += d * d
	}
	return m.SignalVar * math.Exp(-d2/(2*m.LengthScale*m.LengthScale))
}
