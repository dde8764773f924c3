package risk

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is the probabilistic description of one uncertain Scenario
// parameter. It needs only density evaluation and inverse-CDF (quantile)
// lookup; the distuv distributions in gonum satisfy it directly
// (distuv.Uniform, distuv.Normal, ...).
type Distribution interface {
	// Prob returns the probability density at x.
	Prob(x float64) float64
	// Quantile returns the value at which the CDF reaches p, p in (0,1).
	Quantile(p float64) float64
}

// Field names one Scenario parameter. The set is closed and ordered;
// averaging code binds distributions to fields by enum rather than by
// name-based dispatch.
type Field int

const (
	FieldClimbStartMinute Field = iota
	FieldInitialSpacingNM
	FieldAircraftLengthM
	FieldAircraftHeightFt
	FieldMaxSpeedDiffKn
	FieldSpeedErrScaleKn
	FieldClimbRateFtMin
	FieldSpeedDiffStdKn
)

var fieldNames = map[Field]string{
	FieldClimbStartMinute: "climb_start_minute",
	FieldInitialSpacingNM: "initial_spacing_nm",
	FieldAircraftLengthM:  "aircraft_length_m",
	FieldAircraftHeightFt: "aircraft_height_ft",
	FieldMaxSpeedDiffKn:   "max_speed_diff_kn",
	FieldSpeedErrScaleKn:  "speed_err_scale_kn",
	FieldClimbRateFtMin:   "climb_rate_ft_min",
	FieldSpeedDiffStdKn:   "speed_diff_std_kn",
}

// String returns the JSON field name of the Scenario parameter.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField resolves a Scenario field by its JSON name.
func ParseField(name string) (Field, error) {
	for f, n := range fieldNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown scenario field %q", name)
}

// Set returns a copy of s with the named field replaced by v.
func (f Field) Set(s Scenario, v float64) Scenario {
	switch f {
	case FieldClimbStartMinute:
		s.ClimbStartMinute = v
	case FieldInitialSpacingNM:
		s.InitialSpacingNM = v
	case FieldAircraftLengthM:
		s.AircraftLengthM = v
	case FieldAircraftHeightFt:
		s.AircraftHeightFt = v
	case FieldMaxSpeedDiffKn:
		s.MaxSpeedDiffKn = v
	case FieldSpeedErrScaleKn:
		s.SpeedErrScaleKn = v
	case FieldClimbRateFtMin:
		s.ClimbRateFtMin = v
	case FieldSpeedDiffStdKn:
		s.SpeedDiffStdKn = v
	}
	return s
}

// RandomParameter binds a Scenario field to the distribution it is drawn
// from when averaging.
type RandomParameter struct {
	Field Field
	Dist  Distribution
}

// ParseDistributionSpec parses a textual distribution spec into a
// Distribution. Supported forms:
//
//	uniform:<min>:<max>
//	normal:<mean>:<std>
func ParseDistributionSpec(spec string) (Distribution, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid distribution spec %q: expected kind:a:b", spec)
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid distribution parameter %q: %w", parts[1], err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid distribution parameter %q: %w", parts[2], err)
	}

	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "uniform":
		if !(a < b) {
			return nil, fmt.Errorf("uniform distribution needs min < max, got %g >= %g", a, b)
		}
		return distuv.Uniform{Min: a, Max: b}, nil
	case "normal":
		if b <= 0 {
			return nil, fmt.Errorf("normal distribution needs positive std, got %g", b)
		}
		return distuv.Normal{Mu: a, Sigma: b}, nil
	default:
		return nil, fmt.Errorf("unknown distribution kind %q", parts[0])
	}
}
