package eval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ScoreFunc scores predictions against truth for inner-fold model
// selection. Higher is always better; error-style metrics are negated.
type ScoreFunc func(yTrue, yPred []float64) float64

// NegRMSE scores regression candidates by negated root-mean-square error.
func NegRMSE(yTrue, yPred []float64) float64 {
	return -RMSE(yTrue, yPred)
}

// Accuracy scores probability outputs against 0/1 labels at a 0.5
// threshold.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		pred := 0.0
		if yPred[i] >= 0.5 {
			pred = 1
		}
		if pred == yTrue[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// RMSE is the root-mean-square error.
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(yTrue)))
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / float64(len(yTrue))
}

// R2 is the coefficient of determination, 1 - SS_res/SS_tot.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	mean := stat.Mean(yTrue, nil)
	ssRes, ssTot := 0.0, 0.0
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		m := yTrue[i] - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}

// ROCAUC computes the area under the ROC curve from scores against 0/1
// labels, via the rank-sum formulation with average ranks for tied scores.
// Returns NaN when only one class is present.
func ROCAUC(yTrue, score []float64) float64 {
	n := len(yTrue)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return score[idx[a]] < score[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && score[idx[j]] == score[idx[i]] {
			j++
		}
		// Average rank over the tie run (1-based ranks).
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	nPos, nNeg := 0.0, 0.0
	rankSumPos := 0.0
	for i := range yTrue {
		if yTrue[i] == 1 {
			nPos++
			rankSumPos += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}
	return (rankSumPos - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// RegressionMetrics are the global metrics computed once over the full
// aggregated out-of-fold prediction table.
type RegressionMetrics struct {
	R2   float64
	RMSE float64
	MAE  float64
}

// ClassificationMetrics are the global classification metrics over the
// aggregated table; precision and recall use a fixed 0.5 threshold.
type ClassificationMetrics struct {
	ROCAUC    float64
	Accuracy  float64
	Precision float64
	Recall    float64
}

// Regression computes regression metrics over the aggregated predictions.
func (r *Result) Regression() RegressionMetrics {
	yTrue, yPred := r.columns()
	return RegressionMetrics{
		R2:   R2(yTrue, yPred),
		RMSE: RMSE(yTrue, yPred),
		MAE:  MAE(yTrue, yPred),
	}
}

// Classification computes classification metrics over the aggregated
// predictions.
func (r *Result) Classification() ClassificationMetrics {
	yTrue, yPred := r.columns()
	tp, fp, fn := 0.0, 0.0, 0.0
	for i := range yTrue {
		pred := 0.0
		if yPred[i] >= 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && yTrue[i] == 1:
			tp++
		case pred == 1 && yTrue[i] == 0:
			fp++
		case pred == 0 && yTrue[i] == 1:
			fn++
		}
	}
	m := ClassificationMetrics{
		ROCAUC:   ROCAUC(yTrue, yPred),
		Accuracy: Accuracy(yTrue, yPred),
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	} else {
		m.Precision = math.NaN()
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	} else {
		m.Recall = math.NaN()
	}
	return m
}

func (r *Result) columns() (yTrue, yPred []float64) {
	yTrue = make([]float64, len(r.Predictions))
	yPred = make([]float64, len(r.Predictions))
	for i, p := range r.Predictions {
		yTrue[i] = p.YTrue
		yPred[i] = p.YPred
	}
	return yTrue, yPred
}
