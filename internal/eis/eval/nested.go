package eval

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/eis/models"
	"github.com/banshee-data/impedance.report/internal/monitoring"
)

// Dataset is the evaluator's input: a design matrix with per-row labels,
// group identifiers for group-disjoint splitting, and stable row keys used
// to order the aggregated prediction table.
type Dataset struct {
	RowKeys []string
	Groups  []string
	X       [][]float64
	Y       []float64
}

func (d *Dataset) validate() error {
	n := len(d.X)
	if n == 0 {
		return fmt.Errorf("eval: empty dataset")
	}
	if len(d.Y) != n || len(d.Groups) != n || len(d.RowKeys) != n {
		return fmt.Errorf("eval: inconsistent dataset lengths: X=%d Y=%d groups=%d keys=%d",
			n, len(d.Y), len(d.Groups), len(d.RowKeys))
	}
	return nil
}

// Options configures a nested cross-validation run.
type Options struct {
	OuterK     int
	InnerK     int
	Seed       int64
	Candidates []models.Spec
	Score      ScoreFunc
	// Parallel evaluates outer folds concurrently. The aggregated table is
	// assembled sorted by row key either way, so output is identical.
	Parallel bool
}

// Prediction is one out-of-fold prediction row. Every dataset row appears
// exactly once across all outer folds.
type Prediction struct {
	RowKey    string
	Group     string
	OuterFold int
	YTrue     float64
	YPred     float64
	ModelID   string
}

// FoldSelection records which candidate the inner loop chose for one outer
// fold and its mean inner-validation score.
type FoldSelection struct {
	OuterFold int
	Spec      models.Spec
	Score     float64
}

// Result is the aggregated outcome of one nested evaluation run.
type Result struct {
	RunID       string
	Predictions []Prediction // sorted by RowKey
	Selections  []FoldSelection
}

// Run executes nested group-aware cross-validation. Fold partitioning, model
// selection, and prediction aggregation are deterministic for a fixed seed;
// candidate fit failures on individual inner folds are tolerated, but an
// outer fold where every candidate fails is fatal.
func Run(ds *Dataset, opts Options) (*Result, error) {
	if err := ds.validate(); err != nil {
		return nil, err
	}
	if len(opts.Candidates) == 0 {
		return nil, fmt.Errorf("eval: no candidate model configurations")
	}
	if opts.Score == nil {
		return nil, fmt.Errorf("eval: no score function configured")
	}

	outerFolds, err := GroupKFold(ds.Groups, opts.OuterK, opts.Seed)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString()}
	foldPreds := make([][]Prediction, opts.OuterK)
	foldSels := make([]FoldSelection, opts.OuterK)
	foldErrs := make([]error, opts.OuterK)

	runFold := func(f int) {
		foldPreds[f], foldSels[f], foldErrs[f] = evaluateOuterFold(ds, opts, f, outerFolds[f])
	}

	if opts.Parallel {
		var wg sync.WaitGroup
		for f := range outerFolds {
			wg.Add(1)
			go func(f int) {
				defer wg.Done()
				runFold(f)
			}(f)
		}
		wg.Wait()
	} else {
		for f := range outerFolds {
			runFold(f)
		}
	}

	for f := range outerFolds {
		if foldErrs[f] != nil {
			return nil, foldErrs[f]
		}
		res.Predictions = append(res.Predictions, foldPreds[f]...)
		res.Selections = append(res.Selections, foldSels[f])
	}

	sort.Slice(res.Predictions, func(i, j int) bool {
		return res.Predictions[i].RowKey < res.Predictions[j].RowKey
	})
	return res, nil
}

// evaluateOuterFold runs inner selection on the outer-training rows, refits
// the winner, and predicts the outer-test rows.
func evaluateOuterFold(ds *Dataset, opts Options, fold int, test []int) ([]Prediction, FoldSelection, error) {
	train := complement(len(ds.X), test)

	trainGroups := make([]string, len(train))
	for i, row := range train {
		trainGroups[i] = ds.Groups[row]
	}
	// Inner folds get a seed derived from the outer seed and fold index so
	// every outer fold shuffles its groups differently but reproducibly.
	innerFolds, err := groupKFold(trainGroups, opts.InnerK, opts.Seed+int64(fold)+1, "inner", fold)
	if err != nil {
		return nil, FoldSelection{}, err
	}

	type candidateScore struct {
		mean   float64
		viable bool
	}
	scores := make([]candidateScore, len(opts.Candidates))
	var lastFitErr error

	for c, spec := range opts.Candidates {
		var sum float64
		var successes int
		for _, innerTest := range innerFolds {
			innerTrain := complementWithin(train, innerTest)
			testRows := subsetRows(train, innerTest)

			est, err := models.Build(spec)
			if err != nil {
				return nil, FoldSelection{}, fmt.Errorf("outer fold %d: %w", fold, err)
			}
			yPred, err := fitPredict(ds, est, innerTrain, testRows)
			if err != nil {
				lastFitErr = err
				monitoring.Logf("eval: outer fold %d: candidate %s failed on inner fold: %v", fold, spec.ID(), err)
				continue
			}
			sum += opts.Score(subsetY(ds, testRows), yPred)
			successes++
		}
		if successes > 0 {
			scores[c] = candidateScore{mean: sum / float64(successes), viable: true}
		}
	}

	// Candidate order ranked by mean score, stable on the configured order
	// so exact ties keep the earlier (simpler) configuration.
	order := make([]int, len(opts.Candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if sa.viable != sb.viable {
			return sa.viable
		}
		return sa.mean > sb.mean
	})

	testRowsAbs := test
	for _, c := range order {
		if !scores[c].viable {
			break
		}
		spec := opts.Candidates[c]
		est, err := models.Build(spec)
		if err != nil {
			return nil, FoldSelection{}, fmt.Errorf("outer fold %d: %w", fold, err)
		}
		yPred, err := fitPredict(ds, est, train, testRowsAbs)
		if err != nil {
			lastFitErr = err
			monitoring.Logf("eval: outer fold %d: refit of %s failed: %v", fold, spec.ID(), err)
			continue
		}

		preds := make([]Prediction, len(testRowsAbs))
		for i, row := range testRowsAbs {
			preds[i] = Prediction{
				RowKey:    ds.RowKeys[row],
				Group:     ds.Groups[row],
				OuterFold: fold,
				YTrue:     ds.Y[row],
				YPred:     yPred[i],
				ModelID:   spec.ID(),
			}
		}
		sel := FoldSelection{OuterFold: fold, Spec: spec, Score: scores[c].mean}
		return preds, sel, nil
	}

	return nil, FoldSelection{}, &eis.NoViableModelError{
		OuterFold:  fold,
		Candidates: len(opts.Candidates),
		LastErr:    lastFitErr,
	}
}

// fitPredict fits the estimator on the given training rows and predicts the
// test rows. Non-finite predictions are treated as a fit failure so a
// diverged model cannot poison selection or the aggregated table.
func fitPredict(ds *Dataset, est models.Estimator, trainRows, testRows []int) ([]float64, error) {
	X := make([][]float64, len(trainRows))
	y := make([]float64, len(trainRows))
	for i, row := range trainRows {
		X[i] = ds.X[row]
		y[i] = ds.Y[row]
	}
	if err := est.Fit(X, y); err != nil {
		return nil, err
	}

	Xt := make([][]float64, len(testRows))
	for i, row := range testRows {
		Xt[i] = ds.X[row]
	}
	yPred, err := est.Predict(Xt)
	if err != nil {
		return nil, err
	}
	for _, v := range yPred {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite prediction")
		}
	}
	return yPred, nil
}

// subsetRows maps fold-local indices back to absolute dataset rows.
func subsetRows(abs []int, local []int) []int {
	out := make([]int, len(local))
	for i, l := range local {
		out[i] = abs[l]
	}
	return out
}

// complementWithin returns the absolute rows of abs not selected by the
// fold-local index set.
func complementWithin(abs []int, local []int) []int {
	inLocal := make(map[int]bool, len(local))
	for _, l := range local {
		inLocal[l] = true
	}
	var out []int
	for i, row := range abs {
		if !inLocal[i] {
			out = append(out, row)
		}
	}
	return out
}

func subsetY(ds *Dataset, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = ds.Y[row]
	}
	return out
}
