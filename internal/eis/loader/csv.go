package loader

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/banshee-data/impedance.report/internal/eis"
)

func init() { register(&csvAdapter{}) }

// csvAdapter reads CSV exports of the same per-file layout as the DIB
// spreadsheets: columns frequency_hz, z_real_ohm, z_imag_ohm (a header row
// is optional and detected by failing to parse), metadata in the file name.
type csvAdapter struct{}

func (a *csvAdapter) Name() string         { return "dib-csv" }
func (a *csvAdapter) Extensions() []string { return []string{".csv"} }

func (a *csvAdapter) Parse(path string) ([]eis.SpectrumRecord, error) {
	key, err := ParseFilename(path)
	if err != nil {
		return nil, &eis.DataFormatError{Path: path, Reason: err.Error()}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &eis.MissingDataError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &eis.DataFormatError{Path: path, Reason: "malformed CSV: " + err.Error()}
	}

	var cells [][]string
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		cells = append(cells, row)
	}

	records := numericRows(key, cells)
	if len(records) == 0 {
		return nil, &eis.DataFormatError{Path: path, Reason: "no numeric frequency/impedance rows"}
	}
	return records, nil
}
