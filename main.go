// Command activity-recognition classifies triaxial accelerometer
// streams into physical activities and serves the stored results over
// HTTP.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/verasls/activity-recognition/internal/api"
	"github.com/verasls/activity-recognition/internal/config"
	"github.com/verasls/activity-recognition/internal/db"
	"github.com/verasls/activity-recognition/internal/version"
)

var (
	inputPath  = flag.String("input", "", "CSV file to classify")
	configPath = flag.String("config", "", "JSON pipeline config file")

	samplingFreq = flag.Float64("sampling-freq", 0, "Sampling frequency in Hz (required with -input)")
	placement    = flag.String("placement", "", "Sensor placement: ankle, lower_back, or hip")
	modelType    = flag.String("model", "", "Classifier family: rf, svm, or knn")
	windowSize   = flag.Float64("window-size", 0, "Window duration in seconds (default 1)")
	chunkSize    = flag.Int("chunk-size", 0, "Windows per inference batch (default 1000)")
	cutoffHz     = flag.Float64("cutoff", 0, "Orientation filter cutoff in Hz (default 5, kept below Nyquist)")
	inputUnits   = flag.String("units", "", "Acceleration units of the input: g, mg, or ms2 (default g)")

	tsCol = flag.String("timestamp-col", "", "Name of the timestamp column (default timestamp)")
	xCol  = flag.String("x-col", "", "Name of the X axis column (default x)")
	yCol  = flag.String("y-col", "", "Name of the Y axis column (default y)")
	zCol  = flag.String("z-col", "", "Name of the Z axis column (default z)")

	modelDir      = flag.String("models", "", "Directory of model artifacts (default models)")
	dbPath        = flag.String("db", "", "Path to the sqlite database (default activity.db)")
	migrationsDir = flag.String("migrations", "migrations", "Directory of schema migrations")
	reportPath    = flag.String("report", "", "Write an HTML report of the run to this file")

	serve       = flag.Bool("serve", false, "Serve stored runs over HTTP")
	listen      = flag.String("listen", ":8080", "Listen address")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *inputPath == "" && !*serve {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("opening database %s: %v", cfg.GetDBPath(), err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("migrating database: %v", err)
	}

	if *inputPath != "" {
		if err := runClassification(database, cfg); err != nil {
			log.Fatalf("classification failed: %v", err)
		}
	}

	if *serve {
		server := api.NewServer(database)
		log.Printf("serving on %s (version %s)", *listen, version.Version)
		if err := http.ListenAndServe(*listen, api.LoggingMiddleware(server.ServeMux())); err != nil {
			log.Fatal(err)
		}
	}
}

// loadConfig merges the optional config file with flag overrides.
// Flags win.
func loadConfig() (*config.PipelineConfig, error) {
	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		loaded, err := config.LoadPipelineConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	setFloat := func(dst **float64, v float64) {
		if v != 0 {
			*dst = &v
		}
	}
	setString := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	setFloat(&cfg.SamplingFreq, *samplingFreq)
	setFloat(&cfg.WindowSize, *windowSize)
	setFloat(&cfg.FilterCutoffHz, *cutoffHz)
	setString(&cfg.Placement, *placement)
	setString(&cfg.ModelType, *modelType)
	setString(&cfg.Units, *inputUnits)
	setString(&cfg.ModelDir, *modelDir)
	setString(&cfg.DBPath, *dbPath)
	if *chunkSize != 0 {
		cfg.ChunkSize = chunkSize
	}

	if *tsCol != "" || *xCol != "" || *yCol != "" || *zCol != "" {
		cols := cfg.GetColumns()
		if *tsCol != "" {
			cols.Timestamp = *tsCol
		}
		if *xCol != "" {
			cols.X = *xCol
		}
		if *yCol != "" {
			cols.Y = *yCol
		}
		if *zCol != "" {
			cols.Z = *zCol
		}
		cfg.Columns = &cols
	}

	return cfg, cfg.Validate()
}
