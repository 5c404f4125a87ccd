// Package eisdb persists the pipeline's tabular artifacts in sqlite: tidy
// spectra, engineered feature tables, and per-run out-of-fold predictions.
// The feature table persisted here is the reuse boundary between pipelines
// (the classification run reads the table the SoH run wrote).
package eisdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/eis/eval"
	"github.com/banshee-data/impedance.report/internal/eis/features"
)

type DB struct {
	*sql.DB
}

//go:embed schema.sql
var schemaSQL string

// NewDB opens (creating if needed) the analysis database at path and applies
// the base schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("applying base schema: %w", err)
	}
	log.Println("initialized impedance database schema")
	return &DB{db}, nil
}

// InsertSpectra stores tidy spectrum rows in one transaction.
func (db *DB) InsertSpectra(records []eis.SpectrumRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO spectra (cell_id, soh_pct, temp_c, soc_pct, capacity_code, frequency_hz, z_real_ohm, z_imag_ohm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		k := r.Key
		if _, err := stmt.Exec(k.CellID, k.SoHPct, k.TempC, k.SOCPct, k.CapacityCode,
			r.FrequencyHz, r.ZRealOhm, r.ZImagOhm); err != nil {
			return fmt.Errorf("failed to insert spectrum row for %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Spectra loads all tidy spectrum rows ordered by key and frequency.
func (db *DB) Spectra() ([]eis.SpectrumRecord, error) {
	rows, err := db.Query(`
		SELECT cell_id, soh_pct, temp_c, soc_pct, capacity_code, frequency_hz, z_real_ohm, z_imag_ohm
		FROM spectra
		ORDER BY cell_id, soh_pct, temp_c, soc_pct, capacity_code, frequency_hz
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eis.SpectrumRecord
	for rows.Next() {
		var r eis.SpectrumRecord
		if err := rows.Scan(&r.Key.CellID, &r.Key.SoHPct, &r.Key.TempC, &r.Key.SOCPct,
			&r.Key.CapacityCode, &r.FrequencyHz, &r.ZRealOhm, &r.ZImagOhm); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveFeatureTable upserts the feature table long-form, one row per
// (spectrum, feature name).
func (db *DB) SaveFeatureTable(t *features.Table) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO feature_values (cell_id, soh_pct, temp_c, soc_pct, capacity_code, feature, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cell_id, soh_pct, temp_c, soc_pct, capacity_code, feature)
		DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		k := row.Key
		for i, name := range t.Names {
			if _, err := stmt.Exec(k.CellID, k.SoHPct, k.TempC, k.SOCPct, k.CapacityCode,
				name, row.Values[i]); err != nil {
				return fmt.Errorf("failed to insert feature %s for %s: %w", name, k, err)
			}
		}
	}
	return tx.Commit()
}

// FeatureTable reconstructs the wide feature table from the long-form rows.
// Column order is the sorted feature-name order; rows are key-sorted.
func (db *DB) FeatureTable() (*features.Table, error) {
	rows, err := db.Query(`
		SELECT cell_id, soh_pct, temp_c, soc_pct, capacity_code, feature, value
		FROM feature_values
		ORDER BY cell_id, soh_pct, temp_c, soc_pct, capacity_code, feature
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	valuesByKey := make(map[eis.SpectrumKey]map[string]float64)
	var keyOrder []eis.SpectrumKey
	nameSet := make(map[string]bool)

	for rows.Next() {
		var k eis.SpectrumKey
		var name string
		var value float64
		if err := rows.Scan(&k.CellID, &k.SoHPct, &k.TempC, &k.SOCPct, &k.CapacityCode, &name, &value); err != nil {
			return nil, err
		}
		if _, ok := valuesByKey[k]; !ok {
			valuesByKey[k] = make(map[string]float64)
			keyOrder = append(keyOrder, k)
		}
		valuesByKey[k][name] = value
		nameSet[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(keyOrder) == 0 {
		return nil, fmt.Errorf("no feature rows stored")
	}

	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &features.Table{Names: names}
	for _, k := range keyOrder {
		row := features.Row{Key: k, Values: make([]float64, len(names))}
		for i, name := range names {
			v, ok := valuesByKey[k][name]
			if !ok {
				return nil, fmt.Errorf("feature table incomplete: %s missing %s", k, name)
			}
			row.Values[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// SaveRun stores an evaluation run and its aggregated predictions.
func (db *DB) SaveRun(res *eval.Result, label string, configJSON string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO eval_runs (run_id, label, config_json) VALUES (?, ?, ?)`,
		res.RunID, label, configJSON); err != nil {
		return fmt.Errorf("failed to insert eval run %s: %w", res.RunID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO eval_predictions (run_id, row_key, group_id, outer_fold, y_true, y_pred, model_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range res.Predictions {
		if _, err := stmt.Exec(res.RunID, p.RowKey, p.Group, p.OuterFold, p.YTrue, p.YPred, p.ModelID); err != nil {
			return fmt.Errorf("failed to insert prediction %s: %w", p.RowKey, err)
		}
	}
	return tx.Commit()
}

// Predictions loads the aggregated prediction table of one run, sorted by
// row key.
func (db *DB) Predictions(runID string) ([]eval.Prediction, error) {
	rows, err := db.Query(`
		SELECT row_key, group_id, outer_fold, y_true, y_pred, model_id
		FROM eval_predictions
		WHERE run_id = ?
		ORDER BY row_key
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eval.Prediction
	for rows.Next() {
		var p eval.Prediction
		if err := rows.Scan(&p.RowKey, &p.Group, &p.OuterFold, &p.YTrue, &p.YPred, &p.ModelID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
