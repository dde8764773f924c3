package sweep

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oceanic-safety/cdp.report/internal/risk"
)

func testScenario() risk.Scenario {
	return risk.Scenario{
		ClimbStartMinute: 10,
		InitialSpacingNM: 15,
		AircraftLengthM:  70,
		AircraftHeightFt: 56,
		MaxSpeedDiffKn:   0,
		SpeedErrScaleKn:  4.5,
		ClimbRateFtMin:   1000,
		SpeedDiffStdKn:   15,
	}
}

func testRunner(workers int) *Runner {
	return NewRunner(risk.NewModel(risk.NewExcessEstimator(100_000, 1)), workers)
}

func TestRunnerSweepClimbStart(t *testing.T) {
	r := testRunner(4)
	values := RangeSpec{Min: 3, Max: 13, Step: 1}.Values()

	points, err := r.Run(testScenario(), risk.FieldClimbStartMinute, values)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(points) != len(values) {
		t.Fatalf("got %d points, want %d", len(points), len(values))
	}

	// Input order must be preserved regardless of worker completion order,
	// and risk rises monotonically as the climb start approaches the
	// window boundary.
	for i, p := range points {
		if p.Value != values[i] {
			t.Errorf("point %d: value %g, want %g", i, p.Value, values[i])
		}
		if p.Probability < 0 || p.Probability > 1 {
			t.Errorf("point %d: probability %v outside [0,1]", i, p.Probability)
		}
		if i > 0 && p.Probability < points[i-1].Probability {
			t.Errorf("point %d: probability fell from %v to %v", i, points[i-1].Probability, p.Probability)
		}
	}
}

func TestRunnerSequentialMatchesConcurrent(t *testing.T) {
	values := RangeSpec{Min: 15, Max: 25, Step: 5}.Values()

	seq, err := testRunner(1).Run(testScenario(), risk.FieldInitialSpacingNM, values)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	con, err := testRunner(8).Run(testScenario(), risk.FieldInitialSpacingNM, values)
	if err != nil {
		t.Fatalf("concurrent: %v", err)
	}
	for i := range seq {
		if seq[i] != con[i] {
			t.Errorf("point %d differs: %+v vs %+v", i, seq[i], con[i])
		}
	}
}

func TestRunnerPropagatesEvaluationError(t *testing.T) {
	r := testRunner(2)
	// Climb rates at or below zero are invalid scenarios.
	if _, err := r.Run(testScenario(), risk.FieldClimbRateFtMin, []float64{1000, 0}); err == nil {
		t.Fatal("invalid swept value did not fail the sweep")
	}

	if _, err := r.Run(testScenario(), risk.FieldClimbStartMinute, nil); err == nil {
		t.Fatal("empty sweep accepted")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	points := []Point{{Value: 3, Probability: 1.5e-10}, {Value: 4, Probability: 2.5e-10}}
	if err := WriteCSV(&buf, "climb_start_minute", points); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != "climb_start_minute,probability" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "3,1.5") {
		t.Errorf("first record = %q", lines[1])
	}
}

func TestRenderPNG(t *testing.T) {
	points := []Point{
		{Value: 3, Probability: 1e-12},
		{Value: 8, Probability: 1e-10},
		{Value: 13, Probability: 1e-6},
	}
	path := filepath.Join(t.TempDir(), "sweep.png")
	if err := RenderPNG(points, "climb_start_minute", 0, path); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}

	// All-zero series cannot be drawn on a log axis.
	flat := []Point{{Value: 1, Probability: 0}}
	if err := RenderPNG(flat, "x", 0, path); err == nil {
		t.Error("all-zero series accepted")
	}
}
