// Command pmac evaluates the probability of mid-air collision during a
// Climb/Descend Procedure. By default it evaluates a single scenario and
// prints the result; with -serve it starts the HTTP monitor instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/oceanic-safety/cdp.report/internal/config"
	"github.com/oceanic-safety/cdp.report/internal/monitor"
	"github.com/oceanic-safety/cdp.report/internal/risk"
	"github.com/oceanic-safety/cdp.report/internal/riskdb"
	"github.com/oceanic-safety/cdp.report/internal/version"
)

var (
	serve      = flag.Bool("serve", false, "Run the HTTP monitor instead of a one-shot evaluation")
	listen     = flag.String("listen", ":8080", "Listen address for -serve")
	dbFile     = flag.String("db", "", "SQLite study database path (enables sweep persistence and SQL debugging)")
	configFile = flag.String("config", "", "Engine config JSON (defaults to config/engine.defaults.json if found)")
	samples    = flag.Int("samples", 0, "Monte-Carlo sample count override")
	seed       = flag.Uint64("seed", 0, "Monte-Carlo seed override")

	climbStart = flag.Float64("climb-start", 10, "Minutes after the procedure begins that the level change starts")
	spacing    = flag.Float64("spacing", 15, "Initial longitudinal spacing in NM")
	length     = flag.Float64("length", 70, "Aircraft length in metres")
	height     = flag.Float64("height", 56, "Aircraft height in feet")
	maxDiff    = flag.Float64("max-diff", 0, "Upper truncation of the nominal speed difference in knots")
	errScale   = flag.Float64("err-scale", 4.5, "Laplace scale of the speed error in knots")
	climbRate  = flag.Float64("climb-rate", 1000, "Climb or descent rate in ft/min")
	std        = flag.Float64("std", 15, "Standard deviation of the nominal speed difference in knots")

	randomSpecs = flag.String("random", "", "Comma-separated random parameters for averaged evaluation, e.g. climb_start_minute=uniform:3:13")
	tolerance   = flag.Float64("tolerance", 0, "Averaged-evaluation tolerance override")
)

func baseScenario() risk.Scenario {
	return risk.Scenario{
		ClimbStartMinute: *climbStart,
		InitialSpacingNM: *spacing,
		AircraftLengthM:  *length,
		AircraftHeightFt: *height,
		MaxSpeedDiffKn:   *maxDiff,
		SpeedErrScaleKn:  *errScale,
		ClimbRateFtMin:   *climbRate,
		SpeedDiffStdKn:   *std,
	}
}

// parseRandomSpecs parses "field=kind:a:b" clauses from the -random flag.
func parseRandomSpecs(s string) ([]risk.RandomParameter, error) {
	if s == "" {
		return nil, nil
	}
	var out []risk.RandomParameter
	for _, clause := range strings.Split(s, ",") {
		name, spec, ok := strings.Cut(strings.TrimSpace(clause), "=")
		if !ok {
			return nil, fmt.Errorf("invalid random parameter %q: expected field=kind:a:b", clause)
		}
		field, err := risk.ParseField(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		dist, err := risk.ParseDistributionSpec(strings.TrimSpace(spec))
		if err != nil {
			return nil, err
		}
		out = append(out, risk.RandomParameter{Field: field, Dist: dist})
	}
	return out, nil
}

func loadConfig() *config.EngineConfig {
	if *configFile != "" {
		cfg, err := config.LoadEngineConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		return cfg
	}
	// Without -config, use the checked-in defaults file when run from the
	// repository, else the built-in defaults.
	if cfg, err := config.LoadEngineConfig(config.DefaultConfigPath); err == nil {
		return cfg
	}
	return config.EmptyEngineConfig()
}

func main() {
	flag.Parse()

	cfg := loadConfig()
	sampleCount := cfg.GetSampleCount()
	if *samples > 0 {
		sampleCount = *samples
	}
	mcSeed := cfg.GetSeed()
	if *seed != 0 {
		mcSeed = *seed
	}
	model := risk.NewModel(risk.NewExcessEstimator(sampleCount, mcSeed))

	if *serve {
		runServer(model, cfg)
		return
	}

	scenario := baseScenario()
	random, err := parseRandomSpecs(*randomSpecs)
	if err != nil {
		log.Fatalf("invalid -random flag: %v", err)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	if len(random) == 0 {
		p, err := model.EvaluateScenario(scenario)
		if err != nil {
			log.Fatalf("evaluation failed: %v", err)
		}
		if err := out.Encode(map[string]interface{}{
			"scenario":    scenario,
			"probability": p,
		}); err != nil {
			log.Fatalf("failed to encode result: %v", err)
		}
		return
	}

	opts := risk.AverageOptions{
		PPFBound:  cfg.GetPPFBound(),
		Tolerance: cfg.GetTolerance(),
		BaseOrder: cfg.GetBaseOrder(),
		MaxOrder:  cfg.GetMaxOrder(),
	}
	if *tolerance > 0 {
		opts.Tolerance = *tolerance
	}

	res, err := model.EvaluateAveraged(scenario, random, opts)
	if err != nil {
		log.Fatalf("averaged evaluation failed: %v", err)
	}
	if err := out.Encode(map[string]interface{}{
		"scenario":    scenario,
		"probability": res.Probability,
		"error":       res.Error,
	}); err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
}

func runServer(model *risk.Model, cfg *config.EngineConfig) {
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	log.Printf("cdp.report %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	var db *riskdb.DB
	if *dbFile != "" {
		var err error
		db, err = riskdb.Open(*dbFile)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := monitor.NewWebServer(monitor.WebServerConfig{
		Address: *listen,
		Model:   model,
		Engine:  cfg,
		DB:      db,
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			log.Printf("web server error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
