package eval

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// predictionColumns is the stable column order of the exported out-of-fold
// prediction table.
var predictionColumns = []string{"row_key", "group", "outer_fold", "y_true", "y_pred", "model_id"}

// WriteCSV persists the aggregated prediction table as a flat CSV file with
// the documented column order, one row per out-of-fold prediction.
func (r *Result) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create prediction table %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(predictionColumns); err != nil {
		return err
	}
	for _, p := range r.Predictions {
		rec := []string{
			p.RowKey,
			p.Group,
			strconv.Itoa(p.OuterFold),
			strconv.FormatFloat(p.YTrue, 'g', -1, 64),
			strconv.FormatFloat(p.YPred, 'g', -1, 64),
			p.ModelID,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
