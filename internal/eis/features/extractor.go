// Package features reduces impedance spectra to fixed-length numeric
// feature vectors: global magnitude/phase statistics, point samples at
// configured target frequencies, and equivalent-circuit resistance
// intercepts. Extraction is deterministic: the same spectrum and config
// always produce bit-identical vectors.
package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/impedance.report/internal/eis"
)

// DefaultTargetFrequenciesHz is the point-sampling grid used by the DIB
// analyses: one sample per decade from 10 mHz to 10 kHz.
var DefaultTargetFrequenciesHz = []float64{0.01, 0.1, 1, 10, 100, 1000, 10000}

// Config selects which features are extracted. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// TargetFrequenciesHz are the frequencies at which |Z| and phase are
	// point-sampled. Targets between grid points are linearly interpolated
	// on the log-frequency axis; targets outside the grid are an error
	// (no extrapolation).
	TargetFrequenciesHz []float64

	// Intercepts enables the R_hf/R_lf/delta_R resistance features.
	Intercepts bool

	// ZeroCrossingRhf estimates R_hf at the imaginary-part zero crossing
	// nearest the high-frequency end instead of at the highest measured
	// frequency. Falls back to the highest frequency when the imaginary
	// part never changes sign.
	ZeroCrossingRhf bool
}

// DefaultConfig returns the extraction configuration used by the notebooks.
func DefaultConfig() Config {
	return Config{
		TargetFrequenciesHz: DefaultTargetFrequenciesHz,
		Intercepts:          true,
	}
}

// Names returns the feature column names for this configuration, in the
// exact order Extract emits values. Frequency suffixes replace the decimal
// point with "p" (0.01 Hz -> f0p01) so names stay valid identifiers.
func (c Config) Names() []string {
	var names []string
	if c.Intercepts {
		names = append(names, "R_hf_ohm", "R_lf_ohm", "delta_R_ohm")
	}
	names = append(names,
		"Zmag_mean", "Zmag_std", "Zmag_min", "Zmag_max",
		"phase_mean", "phase_std", "phase_min", "phase_max",
	)
	for _, f := range c.TargetFrequenciesHz {
		suffix := freqSuffix(f)
		names = append(names, "Zmag_f"+suffix, "phase_f"+suffix)
	}
	return names
}

func freqSuffix(f float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(f, 'g', -1, 64), ".", "p")
}

// Vector is one extracted feature vector. Values align with Config.Names.
type Vector struct {
	Key    eis.SpectrumKey
	Values []float64
}

// Extract computes the feature vector for one spectrum. The spectrum must
// have at least two points and must cover every configured target frequency.
func Extract(s *eis.Spectrum, cfg Config) (Vector, error) {
	n := s.Len()
	if n < 2 {
		return Vector{}, &eis.FeatureExtractionError{
			Key:    s.Key,
			Reason: fmt.Sprintf("spectrum has %d point(s), need at least 2", n),
		}
	}

	mag := make([]float64, n)
	phase := make([]float64, n)
	for i := 0; i < n; i++ {
		mag[i] = s.Magnitude(i)
		phase[i] = s.Phase(i)
	}

	var values []float64
	if cfg.Intercepts {
		rhf := s.ZRealOhm[n-1]
		if cfg.ZeroCrossingRhf {
			rhf = zeroCrossingResistance(s)
		}
		rlf := s.ZRealOhm[0]
		values = append(values, rhf, rlf, rlf-rhf)
	}

	values = append(values,
		stat.Mean(mag, nil), stat.PopStdDev(mag, nil), min64(mag), max64(mag),
		stat.Mean(phase, nil), stat.PopStdDev(phase, nil), min64(phase), max64(phase),
	)

	for _, target := range cfg.TargetFrequenciesHz {
		m, p, err := sampleAt(s, mag, phase, target)
		if err != nil {
			return Vector{}, err
		}
		values = append(values, m, p)
	}

	return Vector{Key: s.Key, Values: values}, nil
}

// sampleAt returns magnitude and phase at the target frequency. Exact grid
// hits return stored values untouched; targets strictly between two grid
// points are linearly interpolated on the log-frequency axis.
func sampleAt(s *eis.Spectrum, mag, phase []float64, target float64) (float64, float64, error) {
	freq := s.FrequencyHz
	n := len(freq)
	if target < freq[0] || target > freq[n-1] {
		return 0, 0, &eis.FeatureExtractionError{
			Key: s.Key,
			Reason: fmt.Sprintf("target frequency %g Hz outside measured grid [%g, %g] Hz",
				target, freq[0], freq[n-1]),
		}
	}

	// Locate the first grid point at or above the target. Grid is strictly
	// increasing, so an equality here is an exact hit.
	hi := 0
	for hi < n && freq[hi] < target {
		hi++
	}
	if freq[hi] == target {
		return mag[hi], phase[hi], nil
	}

	lo := hi - 1
	t := (math.Log(target) - math.Log(freq[lo])) / (math.Log(freq[hi]) - math.Log(freq[lo]))
	m := mag[lo] + t*(mag[hi]-mag[lo])
	p := phase[lo] + t*(phase[hi]-phase[lo])
	return m, p, nil
}

// zeroCrossingResistance estimates the ohmic resistance at the point where
// the imaginary part crosses zero, scanning from the high-frequency end.
// Of the two bracketing grid points it keeps the one with the smaller
// |Z_imag|; without a sign change it falls back to the highest frequency.
func zeroCrossingResistance(s *eis.Spectrum) float64 {
	n := s.Len()
	for i := n - 1; i > 0; i-- {
		a, b := s.ZImagOhm[i], s.ZImagOhm[i-1]
		if a == 0 {
			return s.ZRealOhm[i]
		}
		if (a < 0) != (b < 0) {
			if math.Abs(a) <= math.Abs(b) {
				return s.ZRealOhm[i]
			}
			return s.ZRealOhm[i-1]
		}
	}
	return s.ZRealOhm[n-1]
}

func min64(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func max64(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
