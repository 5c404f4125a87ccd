package loader

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/impedance.report/internal/eis"
)

func init() { register(&excelAdapter{}) }

// excelAdapter reads DIB-family spreadsheet exports: one sheet per file,
// first three columns are frequency (Hz), Z real (ohm), Z imaginary (ohm),
// with metadata carried in the file name. Stray header or footer rows are
// tolerated; any row whose first three cells are not all numeric is skipped.
type excelAdapter struct{}

func (a *excelAdapter) Name() string         { return "dib-excel" }
func (a *excelAdapter) Extensions() []string { return []string{".xlsx", ".xlsm"} }

func (a *excelAdapter) Parse(path string) ([]eis.SpectrumRecord, error) {
	key, err := ParseFilename(path)
	if err != nil {
		return nil, &eis.DataFormatError{Path: path, Reason: err.Error()}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &eis.DataFormatError{Path: path, Reason: "cannot open spreadsheet: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &eis.DataFormatError{Path: path, Reason: "spreadsheet has no sheets"}
	}

	// Spectrum data lives on the first sheet that yields numeric rows.
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		records := numericRows(key, rows)
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, &eis.DataFormatError{Path: path, Reason: "no sheet with numeric frequency/impedance columns"}
}

// numericRows converts sheet rows into spectrum records, keeping only rows
// whose first three cells all parse as numbers.
func numericRows(key eis.SpectrumKey, rows [][]string) []eis.SpectrumRecord {
	var out []eis.SpectrumRecord
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		freq, ok1 := parseCell(row[0])
		zre, ok2 := parseCell(row[1])
		zim, ok3 := parseCell(row[2])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		out = append(out, eis.SpectrumRecord{
			Key:         key,
			FrequencyHz: freq,
			ZRealOhm:    zre,
			ZImagOhm:    zim,
		})
	}
	return out
}

func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
