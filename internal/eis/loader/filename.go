// Package loader reads vendor-specific impedance spectrum files into the
// tidy long-format spectrum table. Each dataset family gets one format
// adapter; the adapters normalise column layouts so nothing downstream of
// this package knows about source file conventions.
package loader

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/impedance.report/internal/eis"
)

// ParseFilename extracts spectrum metadata from a DIB-convention file name
// of the form Cell02_95SOH_15degC_05SOC_9505.xlsx. The extension is ignored.
func ParseFilename(path string) (eis.SpectrumKey, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, "_")
	if len(parts) != 5 {
		return eis.SpectrumKey{}, fmt.Errorf("unexpected EIS filename format: %s", filepath.Base(path))
	}

	var key eis.SpectrumKey
	var err error
	if key.CellID, err = trimInt(parts[0], "Cell", ""); err != nil {
		return eis.SpectrumKey{}, fmt.Errorf("%s: bad cell segment: %w", stem, err)
	}
	if key.SoHPct, err = trimInt(parts[1], "", "SOH"); err != nil {
		return eis.SpectrumKey{}, fmt.Errorf("%s: bad SoH segment: %w", stem, err)
	}
	if key.TempC, err = trimInt(parts[2], "", "degC"); err != nil {
		return eis.SpectrumKey{}, fmt.Errorf("%s: bad temperature segment: %w", stem, err)
	}
	if key.SOCPct, err = trimInt(parts[3], "", "SOC"); err != nil {
		return eis.SpectrumKey{}, fmt.Errorf("%s: bad SOC segment: %w", stem, err)
	}
	if key.CapacityCode, err = trimInt(parts[4], "", ""); err != nil {
		return eis.SpectrumKey{}, fmt.Errorf("%s: bad capacity segment: %w", stem, err)
	}
	return key, nil
}

func trimInt(s, prefix, suffix string) (int, error) {
	t := strings.TrimSuffix(strings.TrimPrefix(s, prefix), suffix)
	if t == s && (prefix != "" || suffix != "") {
		return 0, fmt.Errorf("segment %q missing %s%s marker", s, prefix, suffix)
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("segment %q is not numeric", s)
	}
	return v, nil
}
