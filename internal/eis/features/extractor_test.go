package features

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/banshee-data/impedance.report/internal/eis"
)

// flatSpectrum builds a spectrum with zero imaginary part, so |Z| equals
// the real part and phase is zero everywhere.
func flatSpectrum(freqs, mags []float64) *eis.Spectrum {
	s := &eis.Spectrum{
		Key:         eis.SpectrumKey{CellID: 1, SoHPct: 95, TempC: 15, SOCPct: 50, CapacityCode: 9505},
		FrequencyHz: freqs,
		ZRealOhm:    mags,
		ZImagOhm:    make([]float64, len(freqs)),
	}
	return s
}

func TestExtract_ExactGridHits(t *testing.T) {
	s := flatSpectrum(
		[]float64{0.01, 0.1, 1, 10, 100, 1000},
		[]float64{0.50, 0.45, 0.30, 0.20, 0.18, 0.17},
	)
	cfg := Config{TargetFrequenciesHz: []float64{1, 1000}, Intercepts: true}

	v, err := Extract(s, cfg)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	names := cfg.Names()
	byName := make(map[string]float64, len(names))
	for i, name := range names {
		byName[name] = v.Values[i]
	}

	if byName["Zmag_f1"] != 0.30 {
		t.Errorf("Zmag_f1 = %v, want exactly 0.30", byName["Zmag_f1"])
	}
	if byName["Zmag_f1000"] != 0.17 {
		t.Errorf("Zmag_f1000 = %v, want exactly 0.17", byName["Zmag_f1000"])
	}
	if byName["R_hf_ohm"] != 0.17 {
		t.Errorf("R_hf_ohm = %v, want exactly 0.17", byName["R_hf_ohm"])
	}
	if byName["R_lf_ohm"] != 0.50 {
		t.Errorf("R_lf_ohm = %v, want exactly 0.50", byName["R_lf_ohm"])
	}
	if math.Abs(byName["delta_R_ohm"]-0.33) > 1e-12 {
		t.Errorf("delta_R_ohm = %v, want 0.33", byName["delta_R_ohm"])
	}
	if byName["phase_mean"] != 0 || byName["phase_std"] != 0 {
		t.Errorf("phase stats should be zero for a flat spectrum, got mean=%v std=%v",
			byName["phase_mean"], byName["phase_std"])
	}
	if byName["Zmag_min"] != 0.17 || byName["Zmag_max"] != 0.50 {
		t.Errorf("magnitude extrema wrong: min=%v max=%v", byName["Zmag_min"], byName["Zmag_max"])
	}
}

func TestExtract_LogAxisInterpolation(t *testing.T) {
	// Target 10 Hz sits exactly halfway between 1 and 100 Hz on the log
	// axis, so the interpolated magnitude is the midpoint of the values.
	s := flatSpectrum([]float64{1, 100}, []float64{0.30, 0.10})
	cfg := Config{TargetFrequenciesHz: []float64{10}}

	v, err := Extract(s, cfg)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	byName := valuesByName(cfg, v)
	if math.Abs(byName["Zmag_f10"]-0.20) > 1e-12 {
		t.Errorf("Zmag_f10 = %v, want 0.20 (log-axis midpoint)", byName["Zmag_f10"])
	}
}

func TestExtract_TargetOutsideGrid(t *testing.T) {
	s := flatSpectrum([]float64{1, 10, 100}, []float64{0.3, 0.2, 0.18})
	for _, target := range []float64{0.5, 200} {
		cfg := Config{TargetFrequenciesHz: []float64{target}}
		_, err := Extract(s, cfg)
		var fee *eis.FeatureExtractionError
		if !errors.As(err, &fee) {
			t.Errorf("target %v: expected FeatureExtractionError, got %v", target, err)
		}
	}
}

func TestExtract_SinglePointFails(t *testing.T) {
	s := flatSpectrum([]float64{1}, []float64{0.3})
	_, err := Extract(s, DefaultConfig())
	var fee *eis.FeatureExtractionError
	if !errors.As(err, &fee) {
		t.Fatalf("expected FeatureExtractionError for single-point spectrum, got %v", err)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	s := &eis.Spectrum{
		Key:         eis.SpectrumKey{CellID: 4},
		FrequencyHz: []float64{0.1, 1, 10, 100},
		ZRealOhm:    []float64{0.41, 0.33, 0.21, 0.18},
		ZImagOhm:    []float64{-0.05, -0.03, -0.012, -0.002},
	}
	cfg := Config{TargetFrequenciesHz: []float64{0.5, 1, 50}, Intercepts: true}

	a, err := Extract(s, cfg)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	b, err := Extract(s, cfg)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !reflect.DeepEqual(a.Values, b.Values) {
		t.Error("repeated extraction is not bit-identical")
	}
	if len(a.Values) != len(cfg.Names()) {
		t.Errorf("vector length %d does not match %d names", len(a.Values), len(cfg.Names()))
	}
}

func TestZeroCrossingRhf(t *testing.T) {
	// Imaginary part crosses zero between 100 and 1000 Hz; the 1000 Hz
	// point is closer to the crossing.
	s := &eis.Spectrum{
		Key:         eis.SpectrumKey{CellID: 1},
		FrequencyHz: []float64{1, 100, 1000},
		ZRealOhm:    []float64{0.30, 0.20, 0.17},
		ZImagOhm:    []float64{-0.05, -0.02, 0.01},
	}
	cfg := Config{TargetFrequenciesHz: []float64{100}, Intercepts: true, ZeroCrossingRhf: true}

	v, err := Extract(s, cfg)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	byName := valuesByName(cfg, v)
	if byName["R_hf_ohm"] != 0.17 {
		t.Errorf("R_hf_ohm = %v, want 0.17 (point nearest crossing)", byName["R_hf_ohm"])
	}
}

func TestConfigNames_SuffixConvention(t *testing.T) {
	cfg := Config{TargetFrequenciesHz: []float64{0.01, 1, 10000}}
	names := cfg.Names()

	want := []string{"Zmag_f0p01", "phase_f0p01", "Zmag_f1", "phase_f1", "Zmag_f10000", "phase_f10000"}
	got := names[len(names)-6:]
	if !reflect.DeepEqual(got, want) {
		t.Errorf("point-sample names = %v, want %v", got, want)
	}
}

func valuesByName(cfg Config, v Vector) map[string]float64 {
	out := make(map[string]float64)
	for i, name := range cfg.Names() {
		out[name] = v.Values[i]
	}
	return out
}
