package risk

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Model evaluates collision probabilities for CDP scenarios. It owns the
// excess-speed estimator so that repeated evaluations across quadrature
// nodes and sweep points share one cache; there is no hidden package-level
// state.
type Model struct {
	excess *ExcessEstimator
}

// NewModel creates a Model with the given excess-speed estimator. A nil
// estimator selects the defaults.
func NewModel(excess *ExcessEstimator) *Model {
	if excess == nil {
		excess = NewExcessEstimator(0, 1)
	}
	return &Model{excess: excess}
}

// EvaluateScenario maps one fully specified Scenario to one collision
// probability:
//
//  1. Compute the vertical-overlap window from the climb start, climb rate
//     and aircraft height.
//  2. Compute the closing-speed band that brings the along-track
//     separation to zero length inside that window.
//  3. Take the exponential tail mass (scale = speed error scale, zero
//     floor) between the band edges shifted by the allowed maximum: the
//     conditional probability of geometric overlap given excess speed.
//  4. Look up the Monte-Carlo excess-speed probability.
//  5. Return the product of 3 and 4.
//
// The factorization in step 5 treats the excess event and the conditional
// overlap geometry as independent given the parameters. That is a domain
// modeling assumption the engine preserves as-is.
func (m *Model) EvaluateScenario(s Scenario) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, fmt.Errorf("invalid scenario: %w", err)
	}

	vMin, vMax := s.closingSpeedBand()

	tail := distuv.Exponential{Rate: 1 / s.SpeedErrScaleKn}
	pOverlap := tail.CDF(vMax-s.MaxSpeedDiffKn) - tail.CDF(vMin-s.MaxSpeedDiffKn)

	pExcess := m.excess.Estimate(s.SpeedDiffStdKn, s.MaxSpeedDiffKn, s.SpeedErrScaleKn)

	return pOverlap * pExcess, nil
}
