package eis

import "fmt"

// DataFormatError reports a source file whose contents do not match the
// expected layout (missing columns, non-numeric spectrum data, and so on).
// The file is skipped; the error is collected and surfaced to the caller.
type DataFormatError struct {
	Path   string
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("data format error in %s: %s", e.Path, e.Reason)
}

// MissingDataError reports a referenced source file that does not exist.
type MissingDataError struct {
	Path string
	Err  error
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data file %s: %v", e.Path, e.Err)
}

func (e *MissingDataError) Unwrap() error { return e.Err }

// FeatureExtractionError reports a spectrum from which the configured
// feature vector cannot be computed: too few points, or a target frequency
// outside the measured grid (the extractor never extrapolates).
type FeatureExtractionError struct {
	Key    SpectrumKey
	Reason string
}

func (e *FeatureExtractionError) Error() string {
	return fmt.Sprintf("feature extraction failed for %s: %s", e.Key, e.Reason)
}

// InsufficientGroupsError reports that a fold partition was requested over
// fewer distinct groups than folds. Nested cross-validation cannot proceed;
// this error is fatal to the whole evaluation run.
type InsufficientGroupsError struct {
	Groups int
	Folds  int
	Stage  string // "outer" or "inner"
	Fold   int    // outer fold index for inner-stage errors, -1 otherwise
}

func (e *InsufficientGroupsError) Error() string {
	if e.Stage == "inner" {
		return fmt.Sprintf("outer fold %d: %d distinct groups in training set, need at least %d for inner folds",
			e.Fold, e.Groups, e.Folds)
	}
	return fmt.Sprintf("%d distinct groups, need at least %d for %s folds", e.Groups, e.Folds, e.Stage)
}

// NoViableModelError reports that every candidate model configuration failed
// to fit during inner selection for one outer fold. Fatal to the run.
type NoViableModelError struct {
	OuterFold  int
	Candidates int
	LastErr    error
}

func (e *NoViableModelError) Error() string {
	return fmt.Sprintf("outer fold %d: all %d candidate models failed to fit (last error: %v)",
		e.OuterFold, e.Candidates, e.LastErr)
}

func (e *NoViableModelError) Unwrap() error { return e.LastErr }
