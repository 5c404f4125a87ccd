package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/monitoring"
	"github.com/banshee-data/impedance.report/internal/security"
)

// Failure records one source file that could not be loaded. Failures are
// collected rather than masked so callers can see partial coverage before
// training on it.
type Failure struct {
	Path string
	Err  error
}

// Result holds the rows that loaded successfully plus the per-file failures.
type Result struct {
	Records  []eis.SpectrumRecord
	Failures []Failure
}

// Spectra assembles the loaded rows into validated spectra (see
// eis.AssembleSpectra for the grid policy).
func (r *Result) Spectra() ([]eis.Spectrum, error) {
	return eis.AssembleSpectra(r.Records)
}

// LoadFiles parses each listed file with the given adapter. Files that fail
// to parse are collected in Result.Failures; an absent file is reported as a
// *eis.MissingDataError. An error is returned only when nothing loaded.
func LoadFiles(adapter Adapter, paths []string) (*Result, error) {
	res := &Result{}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			res.Failures = append(res.Failures, Failure{Path: path, Err: &eis.MissingDataError{Path: path, Err: err}})
			continue
		}
		records, err := adapter.Parse(path)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Path: path, Err: err})
			continue
		}
		res.Records = append(res.Records, records...)
	}

	for _, f := range res.Failures {
		monitoring.Logf("loader: skipped %s: %v", f.Path, f.Err)
	}
	if len(res.Records) == 0 {
		return res, fmt.Errorf("no spectra loaded from %d files (%d failures)", len(paths), len(res.Failures))
	}
	return res, nil
}

// LoadDirectory scans dir for files matching the adapter's extensions and
// loads them with LoadFiles. The file list is sorted so repeated runs load
// in the same order.
func LoadDirectory(adapter Adapter, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &eis.MissingDataError{Path: dir, Err: err}
	}

	accept := make(map[string]bool)
	for _, ext := range adapter.Extensions() {
		accept[ext] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !accept[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		// A symlinked entry must not pull data from outside the dataset root.
		if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
			monitoring.Logf("loader: skipped %s: %v", path, err)
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %v files found under %s", adapter.Extensions(), dir)
	}
	return LoadFiles(adapter, paths)
}
