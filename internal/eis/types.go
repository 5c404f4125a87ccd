// Package eis defines the tidy data model shared by the impedance pipeline:
// long-format spectrum records produced by the loader, assembled spectra
// consumed by the feature extractor, and the feature table consumed by the
// evaluator. All downstream stages are pure transformations over these types.
package eis

import (
	"fmt"
	"math"
	"math/cmplx"
)

// SpectrumKey identifies one measured spectrum: a single cell under a single
// test condition. The key doubles as the grouping identifier source for
// cross-validation (grouping is always by CellID).
type SpectrumKey struct {
	CellID       int
	SoHPct       int
	TempC        int
	SOCPct       int
	CapacityCode int
}

// String renders the key in the Cell02_95SOH_15degC_05SOC_9505 file naming
// convention used by the DIB dataset.
func (k SpectrumKey) String() string {
	return fmt.Sprintf("Cell%02d_%02dSOH_%02ddegC_%02dSOC_%04d",
		k.CellID, k.SoHPct, k.TempC, k.SOCPct, k.CapacityCode)
}

// Group returns the group identifier used for group-aware fold splitting.
// All rows from the same physical cell share a group so that no cell appears
// on both sides of a train/test split.
func (k SpectrumKey) Group() string {
	return fmt.Sprintf("cell%02d", k.CellID)
}

// SpectrumRecord is one row of the tidy long-format spectrum table:
// one frequency point of one spectrum.
type SpectrumRecord struct {
	Key         SpectrumKey
	FrequencyHz float64
	ZRealOhm    float64
	ZImagOhm    float64
}

// Spectrum is one full impedance sweep with a validated frequency grid:
// frequencies are strictly positive and strictly increasing, and the three
// slices always have equal length.
type Spectrum struct {
	Key         SpectrumKey
	FrequencyHz []float64
	ZRealOhm    []float64
	ZImagOhm    []float64
}

// Len returns the number of frequency points in the sweep.
func (s *Spectrum) Len() int { return len(s.FrequencyHz) }

// Impedance returns the complex impedance at point i.
func (s *Spectrum) Impedance(i int) complex128 {
	return complex(s.ZRealOhm[i], s.ZImagOhm[i])
}

// Magnitude returns |Z| at point i.
func (s *Spectrum) Magnitude(i int) float64 {
	return cmplx.Abs(s.Impedance(i))
}

// Phase returns the impedance phase angle at point i, in radians.
func (s *Spectrum) Phase(i int) float64 {
	return math.Atan2(s.ZImagOhm[i], s.ZRealOhm[i])
}

// Records flattens the spectrum back into tidy long-format rows, in grid
// order. Useful for persistence and round-trip tests.
func (s *Spectrum) Records() []SpectrumRecord {
	out := make([]SpectrumRecord, s.Len())
	for i := range s.FrequencyHz {
		out[i] = SpectrumRecord{
			Key:         s.Key,
			FrequencyHz: s.FrequencyHz[i],
			ZRealOhm:    s.ZRealOhm[i],
			ZImagOhm:    s.ZImagOhm[i],
		}
	}
	return out
}

// LabelKind selects which quantity derived from the spectrum key is used as
// the prediction target.
type LabelKind string

const (
	// LabelSoH targets the state-of-health fraction (SoHPct / 100).
	LabelSoH LabelKind = "soh"
	// LabelSOC targets the state-of-charge fraction (SOCPct / 100).
	LabelSOC LabelKind = "soc"
	// LabelHealth targets a binary healthy/aged flag derived from SoHPct.
	LabelHealth LabelKind = "health"
)

// HealthySoHThresholdPct is the SoH percentage at or above which a cell is
// labelled healthy for the binary classification target.
const HealthySoHThresholdPct = 90

// Label computes the prediction target of the given kind for this key.
func (k SpectrumKey) Label(kind LabelKind) (float64, error) {
	switch kind {
	case LabelSoH:
		return float64(k.SoHPct) / 100, nil
	case LabelSOC:
		return float64(k.SOCPct) / 100, nil
	case LabelHealth:
		if k.SoHPct >= HealthySoHThresholdPct {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown label kind %q", kind)
	}
}
