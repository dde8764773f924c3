package risk

import (
	"math"
	"strings"
	"testing"
)

// referenceScenario is the documented CDP study case: climb at minute 10,
// 15 NM spacing, 70 m × 56 ft aircraft, no allowed speed difference,
// 4.5 kn error scale, 1000 ft/min climb, 15 kn speed-difference std.
func referenceScenario() Scenario {
	return Scenario{
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

func TestScenarioValidate(t *testing.T) {
	if err := referenceScenario().Validate(); err != nil {
		t.Fatalf("reference scenario should be valid: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Scenario)
		wantSub string
	}{
		{"zero climb rate", func(s *Scenario) { s.ClimbRateFtMin = 0 }, "climb rate"},
		{"negative climb rate", func(s *Scenario) { s.ClimbRateFtMin = -500 }, "climb rate"},
		{"negative length", func(s *Scenario) { s.AircraftLengthM = -1 }, "length"},
		{"negative height", func(s *Scenario) { s.AircraftHeightFt = -1 }, "height"},
		{"zero error scale", func(s *Scenario) { s.SpeedErrScaleKn = 0 }, "error scale"},
		{"zero speed diff std", func(s *Scenario) { s.SpeedDiffStdKn = 0 }, "std"},
		{"window before reference", func(s *Scenario) { s.ClimbStartMinute = -5 }, "overlap window"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := referenceScenario()
			tc.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestOverlapWindow(t *testing.T) {
	s := referenceScenario()
	tStart, tStop := s.overlapWindow()

	// 1000 ft level change at 1000 ft/min, 56 ft vertical extent:
	// overlap from 10.944 to 11.056 minutes.
	if math.Abs(tStart-10.944) > 1e-12 {
		t.Errorf("tStart = %v, want 10.944", tStart)
	}
	if math.Abs(tStop-11.056) > 1e-12 {
		t.Errorf("tStop = %v, want 11.056", tStop)
	}
}

func TestClosingSpeedBandSignInsensitive(t *testing.T) {
	s := referenceScenario()
	vMin, vMax := s.closingSpeedBand()
	if !(vMin < vMax) {
		t.Fatalf("band inverted: vMin=%v vMax=%v", vMin, vMax)
	}

	// Spacing is used through its magnitude only.
	s.InitialSpacingNM = -s.InitialSpacingNM
	nMin, nMax := s.closingSpeedBand()
	if nMin != vMin || nMax != vMax {
		t.Errorf("negative spacing changed band: (%v,%v) vs (%v,%v)", nMin, nMax, vMin, vMax)
	}
}
