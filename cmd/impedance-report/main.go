// Command impedance-report runs the EIS analysis pipeline end to end: load
// a dataset directory into the tidy spectrum table, engineer the feature
// table, run group-aware nested cross-validation, and write the aggregated
// prediction table, plots, and HTML report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/impedance.report/internal/config"
	"github.com/banshee-data/impedance.report/internal/eis/eval"
	"github.com/banshee-data/impedance.report/internal/eis/features"
	"github.com/banshee-data/impedance.report/internal/eis/loader"
	"github.com/banshee-data/impedance.report/internal/eis/report"
	"github.com/banshee-data/impedance.report/internal/eisdb"
	"github.com/banshee-data/impedance.report/internal/security"
	"github.com/banshee-data/impedance.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to pipeline config JSON (defaults used when empty)")
	dataDir     = flag.String("data", "", "Override data directory")
	dbPath      = flag.String("db", "", "Override sqlite database path")
	outDir      = flag.String("out", "", "Override output directory")
	label       = flag.String("label", "", "Override prediction target (soh, soc, health)")
	featuresCSV = flag.String("features-csv", "", "Reuse a previously written feature table instead of loading raw spectra")
	migrations  = flag.String("migrations", "", "Run migrations from this directory before starting")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("impedance-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.DefaultPipelineConfig()
	if *configPath != "" {
		loaded, err := config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(*cfg.OutputDir, 0755); err != nil {
		log.Fatalf("output dir: %v", err)
	}

	db, err := eisdb.NewDB(*cfg.DBPath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if *migrations != "" {
		if err := db.MigrateUp(*migrations); err != nil {
			log.Fatalf("migrations: %v", err)
		}
	}

	table, err := buildFeatureTable(cfg, db)
	if err != nil {
		log.Fatalf("features: %v", err)
	}
	log.Printf("feature table: %d rows x %d features", len(table.Rows), len(table.Names))

	labels, err := table.Labels(cfg.LabelKind())
	if err != nil {
		log.Fatalf("labels: %v", err)
	}
	ds := &eval.Dataset{
		RowKeys: table.RowKeys(),
		Groups:  table.Groups(),
		X:       table.Matrix(),
		Y:       labels,
	}

	res, err := eval.Run(ds, cfg.EvalOptions())
	if err != nil {
		log.Fatalf("evaluation: %v", err)
	}
	for _, sel := range res.Selections {
		log.Printf("outer fold %d: selected %s (inner score %.4f)", sel.OuterFold, sel.Spec.ID(), sel.Score)
	}

	writeArtifacts(cfg, db, res)
}

func applyOverrides(cfg *config.PipelineConfig) {
	if *dataDir != "" {
		cfg.DataDir = dataDir
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	if *outDir != "" {
		cfg.OutputDir = outDir
	}
	if *label != "" {
		cfg.Label = label
	}
}

// buildFeatureTable loads the feature table from a prior CSV export when
// requested, otherwise runs the loader and extractor over the raw dataset
// and persists both artifacts.
func buildFeatureTable(cfg *config.PipelineConfig, db *eisdb.DB) (*features.Table, error) {
	if *featuresCSV != "" {
		log.Printf("reusing feature table from %s", *featuresCSV)
		return features.ReadCSV(*featuresCSV)
	}

	adapter, err := loader.ByName(*cfg.Adapter)
	if err != nil {
		return nil, err
	}
	result, err := loader.LoadDirectory(adapter, *cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if len(result.Failures) > 0 {
		log.Printf("loader: %d file(s) failed, continuing with %d rows", len(result.Failures), len(result.Records))
	}

	spectra, err := result.Spectra()
	if err != nil {
		return nil, err
	}
	if err := db.InsertSpectra(result.Records); err != nil {
		return nil, err
	}

	table, failures := features.Build(spectra, cfg.FeatureConfig())
	if len(failures) > 0 {
		log.Printf("features: %d spectra failed extraction", len(failures))
	}
	if err := db.SaveFeatureTable(table); err != nil {
		return nil, err
	}
	csvPath := filepath.Join(*cfg.OutputDir, "features.csv")
	if err := table.WriteCSV(csvPath); err != nil {
		return nil, err
	}
	log.Printf("wrote feature table to %s", csvPath)
	return table, nil
}

func writeArtifacts(cfg *config.PipelineConfig, db *eisdb.DB, res *eval.Result) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		log.Fatalf("marshal config: %v", err)
	}
	if err := db.SaveRun(res, string(cfg.LabelKind()), string(configJSON)); err != nil {
		log.Fatalf("save run: %v", err)
	}

	out := *cfg.OutputDir
	prefix := security.SanitizeFilename(string(cfg.LabelKind()))
	predPath := filepath.Join(out, prefix+"_predictions.csv")
	if err := res.WriteCSV(predPath); err != nil {
		log.Fatalf("write predictions: %v", err)
	}
	log.Printf("wrote prediction table to %s", predPath)

	title := "Out-of-fold predictions (" + string(cfg.LabelKind()) + ")"
	if err := report.SavePredictionScatter(res, title, filepath.Join(out, prefix+"_predictions.png")); err != nil {
		log.Printf("scatter plot: %v", err)
	}
	if err := report.SaveResiduals(res, title, filepath.Join(out, prefix+"_residuals.png")); err != nil {
		log.Printf("residual plot: %v", err)
	}
	if err := report.SaveHTML(res, title, filepath.Join(out, prefix+"_report.html")); err != nil {
		log.Printf("html report: %v", err)
	}

	if cfg.LabelKind() == "health" {
		m := res.Classification()
		log.Printf("run %s: auc=%.4f accuracy=%.4f precision=%.4f recall=%.4f",
			res.RunID, m.ROCAUC, m.Accuracy, m.Precision, m.Recall)
	} else {
		m := res.Regression()
		log.Printf("run %s: r2=%.4f rmse=%.4f mae=%.4f", res.RunID, m.R2, m.RMSE, m.MAE)
	}
}
