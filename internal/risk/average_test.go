package risk

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

// TestEvaluateAveragedPointMass: averaging over a vanishingly narrow
// uniform must reproduce the point evaluation at its center.
func TestEvaluateAveragedPointMass(t *testing.T) {
	m := testModel()
	base := referenceScenario()

	const center = 10.0
	const halfWidth = 1e-9
	res, err := m.EvaluateAveraged(base, []RandomParameter{
		{Field: FieldClimbStartMinute, Dist: distuv.Uniform{Min: center - halfWidth, Max: center + halfWidth}},
	}, AverageOptions{})
	if err != nil {
		t.Fatalf("EvaluateAveraged: %v", err)
	}

	want, err := m.EvaluateScenario(base)
	if err != nil {
		t.Fatalf("EvaluateScenario: %v", err)
	}
	if rel := math.Abs(res.Probability-want) / want; rel > 1e-6 {
		t.Errorf("point-mass average %.6e, point value %.6e (rel diff %g)", res.Probability, want, rel)
	}
}

// TestEvaluateAveragedTwoParameters reproduces the study's aggregate
// figure: climb start ~ Uniform(3,13) and spacing ~ Uniform(15,30) average
// to the order of 8e-11, strictly below the peak single-scenario risk.
func TestEvaluateAveragedTwoParameters(t *testing.T) {
	m := testModel()
	base := referenceScenario()

	res, err := m.EvaluateAveraged(base, []RandomParameter{
		{Field: FieldClimbStartMinute, Dist: distuv.Uniform{Min: 3, Max: 13}},
		{Field: FieldInitialSpacingNM, Dist: distuv.Uniform{Min: 15, Max: 30}},
	}, AverageOptions{})
	if err != nil {
		t.Fatalf("EvaluateAveraged: %v", err)
	}

	if res.Probability < 2e-11 || res.Probability > 3e-10 {
		t.Errorf("averaged probability = %.3e, want order 8e-11", res.Probability)
	}
	if res.Error > DefaultTolerance {
		t.Errorf("reported error %.3e exceeds tolerance %g", res.Error, DefaultTolerance)
	}

	// Averaging cannot exceed the peak of the integrand's support.
	peak := base
	peak.ClimbStartMinute = 13
	pPeak, err := m.EvaluateScenario(peak)
	if err != nil {
		t.Fatalf("EvaluateScenario: %v", err)
	}
	if res.Probability >= pPeak {
		t.Errorf("average %.3e not below peak scenario %.3e", res.Probability, pPeak)
	}
}

func TestEvaluateAveragedUnachievableTolerance(t *testing.T) {
	m := testModel()
	_, err := m.EvaluateAveraged(referenceScenario(), []RandomParameter{
		{Field: FieldClimbStartMinute, Dist: distuv.Uniform{Min: 3, Max: 13}},
	}, AverageOptions{Tolerance: 1e-30})
	if !errors.Is(err, ErrNotConverged) {
		t.Fatalf("want ErrNotConverged, got %v", err)
	}
}

func TestEvaluateAveragedInputErrors(t *testing.T) {
	m := testModel()

	if _, err := m.EvaluateAveraged(referenceScenario(), nil, AverageOptions{}); err == nil {
		t.Error("no random parameters accepted")
	}

	if _, err := m.EvaluateAveraged(referenceScenario(), []RandomParameter{
		{Field: FieldClimbStartMinute},
	}, AverageOptions{}); err == nil {
		t.Error("missing distribution accepted")
	}

	// A random climb rate reaching zero makes the point model fail; the
	// failure must surface instead of contributing silent zero mass.
	if _, err := m.EvaluateAveraged(referenceScenario(), []RandomParameter{
		{Field: FieldClimbRateFtMin, Dist: distuv.Uniform{Min: -100, Max: 100}},
	}, AverageOptions{}); err == nil {
		t.Error("invalid scenarios inside the domain did not fail the call")
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("climb_start_minute")
	if err != nil || f != FieldClimbStartMinute {
		t.Errorf("ParseField(climb_start_minute) = %v, %v", f, err)
	}
	if _, err := ParseField("bogus"); err == nil {
		t.Error("unknown field accepted")
	}
	if got := FieldInitialSpacingNM.String(); got != "initial_spacing_nm" {
		t.Errorf("String() = %q", got)
	}
}
