package features

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/monitoring"
)

// Failure records one spectrum that could not be reduced to features.
type Failure struct {
	Key eis.SpectrumKey
	Err error
}

// Row is one feature-table row. Values align with the table's Names.
type Row struct {
	Key    eis.SpectrumKey
	Values []float64
}

// Table is the ML-ready feature table: one row per (cell, SoH, T, SOC)
// spectrum. It is the artifact shared between pipelines — the
// classification run reuses the table built for the SoH regression.
type Table struct {
	Names []string
	Rows  []Row
}

// Build extracts features for every spectrum. Spectra that fail extraction
// are collected as failures alongside the successful rows, not masked.
func Build(spectra []eis.Spectrum, cfg Config) (*Table, []Failure) {
	table := &Table{Names: cfg.Names()}
	var failures []Failure
	for i := range spectra {
		v, err := Extract(&spectra[i], cfg)
		if err != nil {
			failures = append(failures, Failure{Key: spectra[i].Key, Err: err})
			continue
		}
		table.Rows = append(table.Rows, Row{Key: v.Key, Values: v.Values})
	}
	for _, f := range failures {
		monitoring.Logf("features: skipped %s: %v", f.Key, f.Err)
	}
	return table, failures
}

// Matrix returns the feature values as a row-major design matrix.
func (t *Table) Matrix() [][]float64 {
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values
	}
	return out
}

// Groups returns the per-row group identifiers (cell IDs) used for
// group-aware fold splitting.
func (t *Table) Groups() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Key.Group()
	}
	return out
}

// RowKeys returns stable per-row identifiers used to order aggregated
// predictions deterministically.
func (t *Table) RowKeys() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Key.String()
	}
	return out
}

// Labels returns the prediction target of the given kind for every row.
func (t *Table) Labels(kind eis.LabelKind) ([]float64, error) {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		y, err := r.Key.Label(kind)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}

// csv metadata columns preceding the feature columns, in order.
var metaColumns = []string{"cell_id", "soh_pct", "temp_c", "soc_pct", "capacity_code"}

// WriteCSV persists the table as a flat CSV file: metadata columns followed
// by the feature columns, one row per spectrum.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create feature table %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append(append([]string{}, metaColumns...), t.Names...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := []string{
			strconv.Itoa(r.Key.CellID),
			strconv.Itoa(r.Key.SoHPct),
			strconv.Itoa(r.Key.TempC),
			strconv.Itoa(r.Key.SOCPct),
			strconv.Itoa(r.Key.CapacityCode),
		}
		for _, v := range r.Values {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV loads a table previously written with WriteCSV.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &eis.MissingDataError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, &eis.DataFormatError{Path: path, Reason: "malformed CSV: " + err.Error()}
	}
	if len(rows) < 2 {
		return nil, &eis.DataFormatError{Path: path, Reason: "feature table has no data rows"}
	}

	header := rows[0]
	if len(header) <= len(metaColumns) {
		return nil, &eis.DataFormatError{Path: path, Reason: "feature table missing feature columns"}
	}
	for i, want := range metaColumns {
		if header[i] != want {
			return nil, &eis.DataFormatError{
				Path:   path,
				Reason: fmt.Sprintf("column %d is %q, want %q", i, header[i], want),
			}
		}
	}

	table := &Table{Names: header[len(metaColumns):]}
	for lineNo, rec := range rows[1:] {
		if len(rec) != len(header) {
			return nil, &eis.DataFormatError{
				Path:   path,
				Reason: fmt.Sprintf("row %d has %d columns, want %d", lineNo+2, len(rec), len(header)),
			}
		}
		meta := make([]int, len(metaColumns))
		for i := range metaColumns {
			v, err := strconv.Atoi(rec[i])
			if err != nil {
				return nil, &eis.DataFormatError{
					Path:   path,
					Reason: fmt.Sprintf("row %d: non-integer %s %q", lineNo+2, metaColumns[i], rec[i]),
				}
			}
			meta[i] = v
		}
		row := Row{Key: eis.SpectrumKey{
			CellID: meta[0], SoHPct: meta[1], TempC: meta[2], SOCPct: meta[3], CapacityCode: meta[4],
		}}
		for i, s := range rec[len(metaColumns):] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, &eis.DataFormatError{
					Path:   path,
					Reason: fmt.Sprintf("row %d: non-numeric %s %q", lineNo+2, table.Names[i], s),
				}
			}
			row.Values = append(row.Values, v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
