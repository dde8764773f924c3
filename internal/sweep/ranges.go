// Package sweep runs parameter studies over the risk engine: it evaluates
// the point model across a range of one scenario field and renders or
// persists the resulting probability series.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RangeSpec defines a floating-point parameter range for sweeping.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
// Returns an error if the format is invalid or values cannot be parsed.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}

	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}

	step, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}

	if step <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", step)
	}

	return RangeSpec{Min: min, Max: max, Step: step}, nil
}

// Values generates the swept values from Min to Max (inclusive) stepping
// by Step. The count is capped to prevent runaway allocation from a
// mistyped step.
func (r RangeSpec) Values() []float64 {
	if r.Step <= 0 || r.Min > r.Max {
		return nil
	}

	const maxValues = 10000
	count := int(math.Floor((r.Max-r.Min)/r.Step)) + 1
	if count > maxValues {
		count = maxValues
	}

	out := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		v := r.Min + float64(i)*r.Step
		if v > r.Max+1e-9 {
			break
		}
		out = append(out, v)
	}
	return out
}
