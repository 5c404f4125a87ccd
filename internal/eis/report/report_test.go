package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/eis/eval"
)

func testResult() *eval.Result {
	return &eval.Result{
		RunID: "test-run",
		Predictions: []eval.Prediction{
			{RowKey: "a", Group: "cell01", YTrue: 0.80, YPred: 0.82},
			{RowKey: "b", Group: "cell01", YTrue: 0.90, YPred: 0.89},
			{RowKey: "c", Group: "cell02", YTrue: 0.95, YPred: 0.91},
		},
	}
}

func TestSavePredictionScatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "predictions.png")
	if err := SavePredictionScatter(testResult(), "SoH", path); err != nil {
		t.Fatalf("SavePredictionScatter failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestSaveResiduals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "residuals.png")
	if err := SaveResiduals(testResult(), "SoH residuals", path); err != nil {
		t.Fatalf("SaveResiduals failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
}

func TestSaveNyquist(t *testing.T) {
	s := &eis.Spectrum{
		Key:         eis.SpectrumKey{CellID: 1, SoHPct: 95, TempC: 15, SOCPct: 50, CapacityCode: 9505},
		FrequencyHz: []float64{0.1, 1, 10, 100},
		ZRealOhm:    []float64{0.45, 0.30, 0.20, 0.18},
		ZImagOhm:    []float64{-0.02, -0.01, -0.008, -0.001},
	}
	path := filepath.Join(t.TempDir(), "nyquist.png")
	if err := SaveNyquist(s, path); err != nil {
		t.Fatalf("SaveNyquist failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("plot file missing: %v", err)
	}

	empty := &eis.Spectrum{Key: eis.SpectrumKey{CellID: 2}}
	if err := SaveNyquist(empty, path); err == nil {
		t.Error("expected error for empty spectrum")
	}
}

func TestSaveHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	if err := SaveHTML(testResult(), "SoH report", path); err != nil {
		t.Fatalf("SaveHTML failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "test-run") {
		t.Error("report does not mention the run id")
	}
	if !strings.Contains(body, "RMSE by cell") {
		t.Error("report missing the per-group RMSE section")
	}

	if err := SaveHTML(&eval.Result{}, "empty", path); err == nil {
		t.Error("expected error for a result with no predictions")
	}
}

func TestGroupRMSE(t *testing.T) {
	groups, rmse := groupRMSE(testResult())
	if len(groups) != 2 || groups[0] != "cell01" || groups[1] != "cell02" {
		t.Fatalf("groups = %v, want [cell01 cell02]", groups)
	}
	// cell01 residuals are 0.02 and -0.01.
	want := math.Sqrt((0.02*0.02 + 0.01*0.01) / 2)
	if math.Abs(rmse[0]-want) > 1e-12 {
		t.Errorf("cell01 RMSE = %v, want %v", rmse[0], want)
	}
	if math.Abs(rmse[1]-0.04) > 1e-12 {
		t.Errorf("cell02 RMSE = %v, want 0.04", rmse[1])
	}
}
