package eis

import (
	"fmt"
	"sort"
)

// AssembleSpectra groups tidy long-format rows by spectrum key and validates
// each group's frequency grid. The result is sorted by key so repeated runs
// over the same rows produce identical output regardless of input order.
//
// Grid policy: rows with non-positive frequencies are dropped; rows are
// sorted by frequency; duplicate frequencies keep the first occurrence in
// post-sort order (left bias). A key whose rows are all dropped is an error,
// since downstream feature counts depend on complete coverage per cell.
func AssembleSpectra(records []SpectrumRecord) ([]Spectrum, error) {
	byKey := make(map[SpectrumKey][]SpectrumRecord)
	var order []SpectrumKey
	for _, r := range records {
		if _, ok := byKey[r.Key]; !ok {
			order = append(order, r.Key)
		}
		byKey[r.Key] = append(byKey[r.Key], r)
	}

	sort.Slice(order, func(i, j int) bool { return lessKey(order[i], order[j]) })

	spectra := make([]Spectrum, 0, len(order))
	for _, key := range order {
		s, err := buildSpectrum(key, byKey[key])
		if err != nil {
			return nil, err
		}
		spectra = append(spectra, s)
	}
	return spectra, nil
}

func lessKey(a, b SpectrumKey) bool {
	if a.CellID != b.CellID {
		return a.CellID < b.CellID
	}
	if a.SoHPct != b.SoHPct {
		return a.SoHPct < b.SoHPct
	}
	if a.TempC != b.TempC {
		return a.TempC < b.TempC
	}
	if a.SOCPct != b.SOCPct {
		return a.SOCPct < b.SOCPct
	}
	return a.CapacityCode < b.CapacityCode
}

func buildSpectrum(key SpectrumKey, rows []SpectrumRecord) (Spectrum, error) {
	kept := make([]SpectrumRecord, 0, len(rows))
	for _, r := range rows {
		if r.FrequencyHz > 0 {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return Spectrum{}, fmt.Errorf("spectrum %s: no rows with positive frequency", key)
	}

	// Stable sort keeps source order among equal frequencies, so the left
	// bias of the duplicate drop below is deterministic.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].FrequencyHz < kept[j].FrequencyHz
	})

	s := Spectrum{Key: key}
	for i, r := range kept {
		if i > 0 && r.FrequencyHz == kept[i-1].FrequencyHz {
			continue
		}
		s.FrequencyHz = append(s.FrequencyHz, r.FrequencyHz)
		s.ZRealOhm = append(s.ZRealOhm, r.ZRealOhm)
		s.ZImagOhm = append(s.ZImagOhm, r.ZImagOhm)
	}
	return s, nil
}
