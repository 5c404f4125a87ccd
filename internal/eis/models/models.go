// Package models implements the estimator families used by the nested
// evaluator behind a single fit/predict capability interface. Estimators are
// selected by configuration identifier, never by type inspection, so the
// evaluator stays estimator-agnostic.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Estimator is the capability interface every model family implements.
// A fitted estimator lives for exactly one fold: fit on the fold's training
// rows, predict on its test rows, then discard.
type Estimator interface {
	// Fit trains on the given design matrix and targets. X is row-major.
	Fit(X [][]float64, y []float64) error
	// Predict returns one prediction per row of X. For classifiers the
	// prediction is the positive-class probability.
	Predict(X [][]float64) ([]float64, error)
}

// Spec names one concrete model configuration: an estimator kind plus its
// hyperparameters. Unset parameters take the family defaults.
type Spec struct {
	Kind   string
	Params map[string]float64
}

// ID returns a stable identifier for the configuration, used in logs,
// prediction tables, and tie-breaking diagnostics.
func (s Spec) ID() string {
	if len(s.Params) == 0 {
		return s.Kind
	}
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strconv.FormatFloat(s.Params[name], 'g', -1, 64))
	}
	return s.Kind + "(" + strings.Join(parts, ",") + ")"
}

func (s Spec) param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

// Build constructs an unfitted estimator for the given configuration.
func Build(s Spec) (Estimator, error) {
	switch s.Kind {
	case "elasticnet":
		return &ElasticNet{
			Alpha:   s.param("alpha", 1.0),
			L1Ratio: s.param("l1_ratio", 0.5),
			MaxIter: int(s.param("max_iter", 1000)),
			Tol:     s.param("tol", 1e-6),
		}, nil
	case "knn":
		return &KNN{K: int(s.param("k", 5))}, nil
	case "forest":
		return &RandomForest{
			NTrees:      int(s.param("n_trees", 100)),
			MaxDepth:    int(s.param("max_depth", 8)),
			MinLeaf:     int(s.param("min_leaf", 1)),
			MaxFeatures: int(s.param("max_features", 0)),
			Seed:        int64(s.param("seed", 1)),
		}, nil
	case "forest-classifier":
		return &RandomForest{
			NTrees:      int(s.param("n_trees", 100)),
			MaxDepth:    int(s.param("max_depth", 8)),
			MinLeaf:     int(s.param("min_leaf", 1)),
			MaxFeatures: int(s.param("max_features", 0)),
			Seed:        int64(s.param("seed", 1)),
			Classify:    true,
		}, nil
	case "gp":
		return &GPRegressor{
			LengthScale: s.param("length_scale", 1.0),
			SignalVar:   s.param("signal_var", 1.0),
			NoiseVar:    s.param("noise_var", 1e-3),
		}, nil
	case "logistic":
		return &Logistic{
			L2:        s.param("l2", 1e-3),
			LearnRate: s.param("learn_rate", 0.1),
			MaxIter:   int(s.param("max_iter", 500)),
		}, nil
	default:
		return nil, fmt.Errorf("unknown estimator kind %q", s.Kind)
	}
}

// ExpandGrid produces one Spec per point of the hyperparameter grid for a
// single estimator kind. Parameters iterate in sorted-name order with the
// first name varying slowest, so the candidate order — and therefore the
// evaluator's tie-breaking — is deterministic.
func ExpandGrid(kind string, grid map[string][]float64) []Spec {
	if len(grid) == 0 {
		return []Spec{{Kind: kind}}
	}
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := []Spec{{Kind: kind, Params: map[string]float64{}}}
	for _, name := range names {
		var next []Spec
		for _, base := range specs {
			for _, v := range grid[name] {
				params := make(map[string]float64, len(base.Params)+1)
				for k, pv := range base.Params {
					params[k] = pv
				}
				params[name] = v
				next = append(next, Spec{Kind: kind, Params: params})
			}
		}
		specs = next
	}
	return specs
}
