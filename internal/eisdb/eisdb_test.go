package eisdb

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/eis/eval"
	"github.com/banshee-data/impedance.report/internal/eis/features"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSpectraRoundTrip(t *testing.T) {
	db := newTestDB(t)

	key := eis.SpectrumKey{CellID: 2, SoHPct: 95, TempC: 15, SOCPct: 5, CapacityCode: 9505}
	records := []eis.SpectrumRecord{
		{Key: key, FrequencyHz: 0.1, ZRealOhm: 0.45, ZImagOhm: -0.02},
		{Key: key, FrequencyHz: 1, ZRealOhm: 0.30, ZImagOhm: -0.01},
		{Key: key, FrequencyHz: 100, ZRealOhm: 0.18, ZImagOhm: -0.001},
	}
	if err := db.InsertSpectra(records); err != nil {
		t.Fatalf("InsertSpectra failed: %v", err)
	}

	got, err := db.Spectra()
	if err != nil {
		t.Fatalf("Spectra failed: %v", err)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("spectra round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFeatureTableRoundTrip(t *testing.T) {
	db := newTestDB(t)

	table := &features.Table{
		Names: []string{"R_hf_ohm", "Zmag_f1"},
		Rows: []features.Row{
			{Key: eis.SpectrumKey{CellID: 1, SoHPct: 100, TempC: 15, SOCPct: 20, CapacityCode: 9000}, Values: []float64{0.17, 0.30}},
			{Key: eis.SpectrumKey{CellID: 2, SoHPct: 95, TempC: 15, SOCPct: 20, CapacityCode: 9000}, Values: []float64{0.19, 0.33}},
		},
	}
	if err := db.SaveFeatureTable(table); err != nil {
		t.Fatalf("SaveFeatureTable failed: %v", err)
	}

	got, err := db.FeatureTable()
	if err != nil {
		t.Fatalf("FeatureTable failed: %v", err)
	}
	if diff := cmp.Diff(table, got); diff != "" {
		t.Errorf("feature table round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveFeatureTable_Upserts(t *testing.T) {
	db := newTestDB(t)

	key := eis.SpectrumKey{CellID: 1, SoHPct: 100, TempC: 15, SOCPct: 20, CapacityCode: 9000}
	table := &features.Table{
		Names: []string{"R_hf_ohm"},
		Rows:  []features.Row{{Key: key, Values: []float64{0.17}}},
	}
	if err := db.SaveFeatureTable(table); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	table.Rows[0].Values[0] = 0.21
	if err := db.SaveFeatureTable(table); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := db.FeatureTable()
	if err != nil {
		t.Fatalf("FeatureTable failed: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(got.Rows))
	}
	if got.Rows[0].Values[0] != 0.21 {
		t.Errorf("value = %v, want updated 0.21", got.Rows[0].Values[0])
	}
}

func TestFeatureTable_Empty(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.FeatureTable(); err == nil {
		t.Fatal("expected error for empty feature store")
	}
}

func TestSaveRunAndPredictions(t *testing.T) {
	db := newTestDB(t)

	res := &eval.Result{
		RunID: "run-1",
		Predictions: []eval.Prediction{
			{RowKey: "Cell01_95SOH_15degC_20SOC_9000", Group: "cell01", OuterFold: 0, YTrue: 0.95, YPred: 0.94, ModelID: "knn(k=3)"},
			{RowKey: "Cell02_90SOH_15degC_20SOC_9000", Group: "cell02", OuterFold: 1, YTrue: 0.90, YPred: 0.91, ModelID: "elasticnet(alpha=0.1)"},
		},
	}
	if err := db.SaveRun(res, "soh", `{"seed":42}`); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := db.Predictions("run-1")
	if err != nil {
		t.Fatalf("Predictions failed: %v", err)
	}
	if diff := cmp.Diff(res.Predictions, got); diff != "" {
		t.Errorf("predictions round trip mismatch (-want +got):\n%s", diff)
	}

	// Run IDs are unique.
	if err := db.SaveRun(res, "soh", "{}"); err == nil {
		t.Error("expected error re-inserting the same run id")
	}

	if preds, err := db.Predictions("no-such-run"); err != nil || len(preds) != 0 {
		t.Errorf("unknown run should return empty table, got %d rows, err %v", len(preds), err)
	}
}
