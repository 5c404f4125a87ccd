package models

import (
	"math"
	"reflect"
	"testing"
)

func TestSpecID_Stable(t *testing.T) {
	s := Spec{Kind: "elasticnet", Params: map[string]float64{"l1_ratio": 0.5, "alpha": 0.1}}
	want := "elasticnet(alpha=0.1,l1_ratio=0.5)"
	if got := s.ID(); got != want {
		t.Errorf("ID = %q, want %q", got, want)
	}
	if got := (Spec{Kind: "knn"}).ID(); got != "knn" {
		t.Errorf("parameterless ID = %q, want knn", got)
	}
}

func TestExpandGrid_Order(t *testing.T) {
	specs := ExpandGrid("knn", map[string][]float64{"k": {1, 3, 5}})
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	for i, k := range []float64{1, 3, 5} {
		if specs[i].Params["k"] != k {
			t.Errorf("spec %d has k=%v, want %v", i, specs[i].Params["k"], k)
		}
	}

	// Two parameters: sorted-name order, first name varies slowest.
	specs = ExpandGrid("elasticnet", map[string][]float64{
		"l1_ratio": {0.2, 0.8},
		"alpha":    {0.1, 1},
	})
	var ids []string
	for _, s := range specs {
		ids = append(ids, s.ID())
	}
	want := []string{
		"elasticnet(alpha=0.1,l1_ratio=0.2)",
		"elasticnet(alpha=0.1,l1_ratio=0.8)",
		"elasticnet(alpha=1,l1_ratio=0.2)",
		"elasticnet(alpha=1,l1_ratio=0.8)",
	}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("grid order = %v, want %v", ids, want)
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	if _, err := Build(Spec{Kind: "xgboost"}); err == nil {
		t.Fatal("expected error for unknown estimator kind")
	}
}

// linearData generates rows where y = 2*x0 - x1 + 0.5 without noise.
func linearData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x0 := float64(i%7) - 3
		x1 := float64((i*3)%5) - 2
		X[i] = []float64{x0, x1}
		y[i] = 2*x0 - x1 + 0.5
	}
	return X, y
}

func TestElasticNet_RecoversLinearTrend(t *testing.T) {
	X, y := linearData(40)
	m := &ElasticNet{Alpha: 1e-4, L1Ratio: 0.5, MaxIter: 2000, Tol: 1e-9}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := range y {
		if math.Abs(pred[i]-y[i]) > 0.05 {
			t.Fatalf("row %d: pred %v, want %v", i, pred[i], y[i])
		}
	}
}

func TestElasticNet_HeavyPenaltyShrinksToMean(t *testing.T) {
	X, y := linearData(40)
	m := &ElasticNet{Alpha: 1e6, L1Ratio: 1, MaxIter: 200, Tol: 1e-9}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict([][]float64{{10, -10}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	if math.Abs(pred[0]-mean) > 1e-6 {
		t.Errorf("fully penalised prediction %v should equal target mean %v", pred[0], mean)
	}
}

func TestElasticNet_RejectsBadL1Ratio(t *testing.T) {
	X, y := linearData(10)
	m := &ElasticNet{Alpha: 0.1, L1Ratio: 1.5, MaxIter: 10, Tol: 1e-6}
	if err := m.Fit(X, y); err == nil {
		t.Fatal("expected error for l1_ratio outside [0, 1]")
	}
}

func TestKNN_SingleNeighbour(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{10, 20, 30, 40}
	m := &KNN{K: 1}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict([][]float64{{0.9}, {3.4}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred[0] != 20 || pred[1] != 40 {
		t.Errorf("predictions = %v, want [20 40]", pred)
	}
}

func TestKNN_KExceedsRows(t *testing.T) {
	m := &KNN{K: 5}
	err := m.Fit([][]float64{{0}, {1}}, []float64{1, 2})
	if err == nil {
		t.Fatal("expected error when k exceeds training rows")
	}
}

func TestKNN_AveragesNeighbourhood(t *testing.T) {
	X := [][]float64{{0}, {1}, {10}}
	y := []float64{2, 4, 100}
	m := &KNN{K: 2}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict([][]float64{{0.4}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred[0] != 3 {
		t.Errorf("prediction = %v, want 3 (mean of two nearest)", pred[0])
	}
}

func TestRandomForest_Deterministic(t *testing.T) {
	X, y := linearData(60)

	fit := func() []float64 {
		m := &RandomForest{NTrees: 20, MaxDepth: 6, Seed: 42}
		if err := m.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		pred, err := m.Predict(X)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		return pred
	}

	a, b := fit(), fit()
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different predictions")
	}
}

func TestRandomForest_FitsSignal(t *testing.T) {
	X, y := linearData(80)
	m := &RandomForest{NTrees: 50, MaxDepth: 8, Seed: 7}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	sse := 0.0
	for i := range y {
		d := pred[i] - y[i]
		sse += d * d
	}
	varY := 0.0
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	for _, v := range y {
		varY += (v - mean) * (v - mean)
	}
	if sse >= varY {
		t.Errorf("forest no better than mean predictor: sse %v, variance %v", sse, varY)
	}
}

func TestRandomForest_ClassifierProbabilities(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 30; i++ {
		v := float64(i)
		X = append(X, []float64{v})
		if v >= 15 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	m := &RandomForest{NTrees: 30, MaxDepth: 4, Seed: 3, Classify: true}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict([][]float64{{2}, {28}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred[0] >= 0.5 {
		t.Errorf("low-side probability %v, want < 0.5", pred[0])
	}
	if pred[1] <= 0.5 {
		t.Errorf("high-side probability %v, want > 0.5", pred[1])
	}
	for _, p := range pred {
		if p < 0 || p > 1 {
			t.Errorf("probability %v outside [0, 1]", p)
		}
	}
}

func TestGPRegressor_InterpolatesTrainingPoints(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 1, 0, -1}
	m := &GPRegressor{LengthScale: 1, SignalVar: 1, NoiseVar: 1e-8}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := range y {
		if math.Abs(pred[i]-y[i]) > 1e-3 {
			t.Errorf("training point %d: pred %v, want %v", i, pred[i], y[i])
		}
	}
}

func TestLogistic_SeparableData(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := -10; i <= 10; i++ {
		if i == 0 {
			continue
		}
		X = append(X, []float64{float64(i)})
		if i > 0 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	m := &Logistic{L2: 1e-4, LearnRate: 0.5, MaxIter: 2000}
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict([][]float64{{-8}, {8}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred[0] >= 0.5 || pred[1] <= 0.5 {
		t.Errorf("separable data not separated: %v", pred)
	}
}

func TestLogistic_RejectsNonBinaryTargets(t *testing.T) {
	m := &Logistic{L2: 1e-3, LearnRate: 0.1, MaxIter: 10}
	err := m.Fit([][]float64{{0}, {1}}, []float64{0, 0.5})
	if err == nil {
		t.Fatal("expected error for non-binary targets")
	}
}

func TestScaler_ConstantColumn(t *testing.T) {
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}}
	sc, err := fitScaler(X)
	if err != nil {
		t.Fatalf("fitScaler failed: %v", err)
	}
	Z := sc.transform(X)
	for i := range Z {
		if Z[i][1] != 0 {
			t.Errorf("constant column should map to zero, row %d got %v", i, Z[i][1])
		}
	}
	if Z[0][0] >= Z[1][0] || Z[1][0] >= Z[2][0] {
		t.Errorf("ordering not preserved after scaling: %v", Z)
	}
}
