// Package config defines the single configuration document threaded through
// the pipeline components. There is no process-wide state: callers load a
// PipelineConfig once and pass it (or the component configs derived from it)
// explicitly.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/eis/eval"
	"github.com/banshee-data/impedance.report/internal/eis/features"
	"github.com/banshee-data/impedance.report/internal/eis/models"
)

// PipelineConfig is the root configuration for one analysis run. Pointer
// fields distinguish "omitted" from zero values, so partial JSON configs are
// safe: omitted fields keep their defaults.
type PipelineConfig struct {
	// Input
	DataDir *string `json:"data_dir,omitempty"`
	Adapter *string `json:"adapter,omitempty"`

	// Artifacts
	DBPath    *string `json:"db_path,omitempty"`
	OutputDir *string `json:"output_dir,omitempty"`

	// Feature extraction
	TargetFrequenciesHz []float64 `json:"target_frequencies_hz,omitempty"`
	Intercepts          *bool     `json:"intercepts,omitempty"`
	ZeroCrossingRhf     *bool     `json:"zero_crossing_rhf,omitempty"`

	// Evaluation
	Label    *string `json:"label,omitempty"` // soh, soc, or health
	OuterK   *int    `json:"outer_k,omitempty"`
	InnerK   *int    `json:"inner_k,omitempty"`
	Seed     *int64  `json:"seed,omitempty"`
	Parallel *bool   `json:"parallel,omitempty"`

	// Candidate model configurations, evaluated in listed order (grid
	// expansion order breaks inner-selection ties).
	Candidates []CandidateConfig `json:"candidates,omitempty"`
}

// CandidateConfig is one estimator family plus its hyperparameter grid.
type CandidateConfig struct {
	Kind string               `json:"kind"`
	Grid map[string][]float64 `json:"grid,omitempty"`
}

func ptrBool(v bool) *bool       { return &v }
func ptrInt(v int) *int          { return &v }
func ptrInt64(v int64) *int64    { return &v }
func ptrString(v string) *string { return &v }

// DefaultPipelineConfig returns the configuration used when no file is
// supplied: SoH regression over the DIB spreadsheet layout with a small
// elastic-net/forest candidate grid.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		DataDir:             ptrString("data"),
		Adapter:             ptrString("dib-excel"),
		DBPath:              ptrString("impedance.db"),
		OutputDir:           ptrString("out"),
		TargetFrequenciesHz: append([]float64(nil), features.DefaultTargetFrequenciesHz...),
		Intercepts:          ptrBool(true),
		ZeroCrossingRhf:     ptrBool(false),
		Label:               ptrString(string(eis.LabelSoH)),
		OuterK:              ptrInt(5),
		InnerK:              ptrInt(3),
		Seed:                ptrInt64(42),
		Parallel:            ptrBool(false),
		Candidates: []CandidateConfig{
			{Kind: "elasticnet", Grid: map[string][]float64{
				"alpha":    {0.01, 0.1, 1},
				"l1_ratio": {0.2, 0.5, 0.8},
			}},
			{Kind: "forest", Grid: map[string][]float64{
				"n_trees":   {200},
				"max_depth": {4, 8},
			}},
		},
	}
}

// LoadPipelineConfig reads a JSON config file over the defaults, so partial
// configs only override the fields they mention.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *PipelineConfig) Validate() error {
	switch c.LabelKind() {
	case eis.LabelSoH, eis.LabelSOC, eis.LabelHealth:
	default:
		return fmt.Errorf("unknown label %q (want soh, soc, or health)", c.LabelKind())
	}
	if c.OuterK == nil || *c.OuterK < 2 {
		return fmt.Errorf("outer_k must be at least 2")
	}
	if c.InnerK == nil || *c.InnerK < 2 {
		return fmt.Errorf("inner_k must be at least 2")
	}
	if len(c.Candidates) == 0 {
		return fmt.Errorf("no candidate model configurations")
	}
	for i, cand := range c.Candidates {
		if _, err := models.Build(models.Spec{Kind: cand.Kind}); err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}
	}
	if len(c.TargetFrequenciesHz) == 0 {
		return fmt.Errorf("no target frequencies configured")
	}
	return nil
}

// LabelKind returns the configured prediction target.
func (c *PipelineConfig) LabelKind() eis.LabelKind {
	if c.Label == nil {
		return eis.LabelSoH
	}
	return eis.LabelKind(*c.Label)
}

// FeatureConfig derives the feature-extraction configuration.
func (c *PipelineConfig) FeatureConfig() features.Config {
	fc := features.Config{
		TargetFrequenciesHz: append([]float64(nil), c.TargetFrequenciesHz...),
	}
	if c.Intercepts != nil {
		fc.Intercepts = *c.Intercepts
	}
	if c.ZeroCrossingRhf != nil {
		fc.ZeroCrossingRhf = *c.ZeroCrossingRhf
	}
	return fc
}

// CandidateSpecs expands every candidate grid, preserving the configured
// candidate order.
func (c *PipelineConfig) CandidateSpecs() []models.Spec {
	var specs []models.Spec
	for _, cand := range c.Candidates {
		specs = append(specs, models.ExpandGrid(cand.Kind, cand.Grid)...)
	}
	return specs
}

// EvalOptions derives the nested-evaluation options. Classification targets
// select by accuracy, regression targets by negated RMSE.
func (c *PipelineConfig) EvalOptions() eval.Options {
	opts := eval.Options{
		OuterK:     *c.OuterK,
		InnerK:     *c.InnerK,
		Candidates: c.CandidateSpecs(),
		Score:      eval.NegRMSE,
	}
	if c.Seed != nil {
		opts.Seed = *c.Seed
	}
	if c.Parallel != nil {
		opts.Parallel = *c.Parallel
	}
	if c.LabelKind() == eis.LabelHealth {
		opts.Score = eval.Accuracy
	}
	return opts
}
