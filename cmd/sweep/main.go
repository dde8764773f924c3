// Command sweep evaluates collision risk across a range of one scenario
// parameter and writes the results as CSV, optionally a PNG chart, and
// optionally a persisted study in the SQLite database.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/oceanic-safety/cdp.report/internal/config"
	"github.com/oceanic-safety/cdp.report/internal/risk"
	"github.com/oceanic-safety/cdp.report/internal/riskdb"
	"github.com/oceanic-safety/cdp.report/internal/sweep"
	"github.com/oceanic-safety/cdp.report/internal/version"
)

var (
	field     = flag.String("field", "climb_start_minute", "Scenario field to sweep")
	rangeSpec = flag.String("range", "3:13:0.5", "Sweep range as min:max:step")
	output    = flag.String("output", "", "Output CSV filename (defaults to sweep-<field>-<timestamp>.csv)")
	pngFile   = flag.String("png", "", "Optional PNG chart filename")
	dbFile    = flag.String("db", "", "Optional SQLite study database; persists the sweep as a study")
	notes     = flag.String("notes", "", "Notes stored with the persisted study")
	tls       = flag.Float64("tls", sweep.DefaultTLS, "Target level of safety drawn on the chart")
	workers   = flag.Int("workers", 0, "Concurrent evaluations (defaults from engine config)")
	samples   = flag.Int("samples", 0, "Monte-Carlo sample count override")
	seed      = flag.Uint64("seed", 0, "Monte-Carlo seed override")

	climbStart = flag.Float64("climb-start", 10, "Minutes after the procedure begins that the level change starts")
	spacing    = flag.Float64("spacing", 15, "Initial longitudinal spacing in NM")
	length     = flag.Float64("length", 70, "Aircraft length in metres")
	height     = flag.Float64("height", 56, "Aircraft height in feet")
	maxDiff    = flag.Float64("max-diff", 0, "Upper truncation of the nominal speed difference in knots")
	errScale   = flag.Float64("err-scale", 4.5, "Laplace scale of the speed error in knots")
	climbRate  = flag.Float64("climb-rate", 1000, "Climb or descent rate in ft/min")
	std        = flag.Float64("std", 15, "Standard deviation of the nominal speed difference in knots")
)

func main() {
	flag.Parse()
	log.Printf("cdp.report sweep %s (%s)", version.Version, version.GitSHA)

	cfg, err := config.LoadEngineConfig(config.DefaultConfigPath)
	if err != nil {
		cfg = config.EmptyEngineConfig()
	}

	sweptField, err := risk.ParseField(*field)
	if err != nil {
		log.Fatalf("invalid -field: %v", err)
	}
	spec, err := sweep.ParseRangeSpec(*rangeSpec)
	if err != nil {
		log.Fatalf("invalid -range: %v", err)
	}

	base := risk.Scenario{
		ClimbStartMinute: *climbStart,
		InitialSpacingNM: *spacing,
		AircraftLengthM:  *length,
		AircraftHeightFt: *height,
		MaxSpeedDiffKn:   *maxDiff,
		SpeedErrScaleKn:  *errScale,
		ClimbRateFtMin:   *climbRate,
		SpeedDiffStdKn:   *std,
	}

	sampleCount := cfg.GetSampleCount()
	if *samples > 0 {
		sampleCount = *samples
	}
	mcSeed := cfg.GetSeed()
	if *seed != 0 {
		mcSeed = *seed
	}
	nWorkers := cfg.GetSweepWorkers()
	if *workers > 0 {
		nWorkers = *workers
	}

	model := risk.NewModel(risk.NewExcessEstimator(sampleCount, mcSeed))
	runner := sweep.NewRunner(model, nWorkers)

	values := spec.Values()
	log.Printf("Sweeping %s over %d values (%s)", sweptField, len(values), *rangeSpec)

	points, err := runner.Run(base, sweptField, values)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("sweep-%s-%s.csv", sweptField, time.Now().Format("20060102-150405"))
	}
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Could not create output file %s: %v", filename, err)
	}
	defer f.Close()
	if err := sweep.WriteCSV(f, sweptField.String(), points); err != nil {
		log.Fatalf("failed to write CSV: %v", err)
	}
	log.Printf("CSV written: %s", filename)

	if *pngFile != "" {
		if err := sweep.RenderPNG(points, sweptField.String(), *tls, *pngFile); err != nil {
			log.Fatalf("failed to render chart: %v", err)
		}
		log.Printf("Chart written: %s", *pngFile)
	}

	if *dbFile != "" {
		db, err := riskdb.Open(*dbFile)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		id, err := riskdb.NewStudyStore(db).InsertStudy(base, sweptField, points, *notes)
		if err != nil {
			log.Fatalf("failed to persist study: %v", err)
		}
		log.Printf("Study persisted: %s", id)
	}
}
