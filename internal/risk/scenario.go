// Package risk implements the probability engine for mid-air collision
// risk during a Climb/Descend Procedure (CDP): a following aircraft
// changes altitude through the level occupied by a leading aircraft while
// maintaining longitudinal separation.
//
// The engine has three layers, leaves first:
//
//   - ExcessEstimator: memoized Monte-Carlo estimate of the probability
//     that the follower's speed exceeds the leader's by more than the
//     allowed margin.
//   - Model.EvaluateScenario: closed-form overlap-window geometry combined
//     with an exponential tail term and the excess probability, giving one
//     collision probability for one fully specified scenario.
//   - Model.EvaluateAveraged: numerical integration of the point model
//     over probability distributions of uncertain inputs (climb timing,
//     initial spacing), with a hard convergence check.
package risk

import (
	"fmt"
	"math"

	"github.com/oceanic-safety/cdp.report/internal/units"
)

// LevelChangeFt is the fixed CDP level change of 1000 ft.
const LevelChangeFt = 1000.0

// Scenario is the full set of scalar parameters needed to evaluate the
// point risk model. Values are immutable once constructed; the model never
// mutates a Scenario.
type Scenario struct {
	// ClimbStartMinute is the time, in minutes after the procedure's
	// reference instant, at which the follower begins its level change.
	ClimbStartMinute float64 `json:"climb_start_minute"`

	// InitialSpacingNM is the longitudinal spacing between the aircraft at
	// the reference instant, in nautical miles. Only the magnitude is
	// meaningful; the sign carries no semantics.
	InitialSpacingNM float64 `json:"initial_spacing_nm"`

	// AircraftLengthM is the along-track extent of an aircraft in meters.
	AircraftLengthM float64 `json:"aircraft_length_m"`

	// AircraftHeightFt is the vertical extent of an aircraft in feet.
	AircraftHeightFt float64 `json:"aircraft_height_ft"`

	// MaxSpeedDiffKn is the maximum allowed speed difference in knots,
	// follower faster than leader.
	MaxSpeedDiffKn float64 `json:"max_speed_diff_kn"`

	// SpeedErrScaleKn is the scale, in knots, of the heavy-tailed
	// (Laplace-shaped) speed measurement error distribution.
	SpeedErrScaleKn float64 `json:"speed_err_scale_kn"`

	// ClimbRateFtMin is the follower's climb (or descent) rate in feet per
	// minute. Must be strictly positive for the model's time ordering.
	ClimbRateFtMin float64 `json:"climb_rate_ft_min"`

	// SpeedDiffStdKn is the standard deviation, in knots, of the
	// follower's baseline speed difference relative to the leader.
	SpeedDiffStdKn float64 `json:"speed_diff_std_kn"`
}

// Validate checks the Scenario invariants and the derived requirement that
// the vertical-overlap window starts strictly after the reference instant.
// The window check closes an input-validation gap: a window start at or
// before zero would otherwise flow into a division and produce silent
// numerical artifacts.
func (s Scenario) Validate() error {
	if s.ClimbRateFtMin <= 0 {
		return fmt.Errorf("climb rate must be positive, got %g ft/min", s.ClimbRateFtMin)
	}
	if s.AircraftLengthM < 0 {
		return fmt.Errorf("aircraft length must be non-negative, got %g m", s.AircraftLengthM)
	}
	if s.AircraftHeightFt < 0 {
		return fmt.Errorf("aircraft height must be non-negative, got %g ft", s.AircraftHeightFt)
	}
	if s.SpeedErrScaleKn <= 0 {
		return fmt.Errorf("speed error scale must be positive, got %g kn", s.SpeedErrScaleKn)
	}
	if s.SpeedDiffStdKn <= 0 {
		return fmt.Errorf("speed difference std must be positive, got %g kn", s.SpeedDiffStdKn)
	}
	if tStart, _ := s.overlapWindow(); tStart <= 0 {
		return fmt.Errorf("vertical-overlap window starts at %g min, must be after the reference instant", tStart)
	}
	return nil
}

// overlapWindow returns the start and end, in minutes, of the interval
// during which the climbing follower shares an altitude band with the
// leader: the climb must cover the 1000 ft level change minus/plus the
// aircraft's vertical extent.
func (s Scenario) overlapWindow() (tStart, tStop float64) {
	tStart = s.ClimbStartMinute + (LevelChangeFt-s.AircraftHeightFt)/s.ClimbRateFtMin
	tStop = s.ClimbStartMinute + (LevelChangeFt+s.AircraftHeightFt)/s.ClimbRateFtMin
	return tStart, tStop
}

// closingSpeedBand returns the band of closing speeds, in knots, at which
// the aircraft's along-track separation closes to within one aircraft
// length exactly during the vertical-overlap window.
func (s Scenario) closingSpeedBand() (vMin, vMax float64) {
	tStart, tStop := s.overlapWindow()
	spacing := math.Abs(s.InitialSpacingNM)
	lengthNM := units.MetersToNauticalMiles(s.AircraftLengthM)
	vMin = units.NauticalMilesPerMinuteToKnots((spacing - lengthNM) / tStop)
	vMax = units.NauticalMilesPerMinuteToKnots((spacing + lengthNM) / tStart)
	return vMin, vMax
}
