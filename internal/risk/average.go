package risk

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Averaging defaults. The tail truncation bound keeps the integration
// domain finite while discarding at most ~2e-12 of probability mass per
// parameter; the tolerance is the hard ceiling on the estimated absolute
// quadrature error.
const (
	DefaultPPFBound  = 1e-12
	DefaultTolerance = 1e-6

	defaultBaseOrder = 15
	defaultMaxOrder  = 511
)

// ErrNotConverged reports that the averaged-risk quadrature could not
// reach the requested tolerance. Results from a failed call must not be
// used; the caller may retry with a relaxed tolerance or a narrower
// truncation.
var ErrNotConverged = errors.New("averaged risk quadrature did not converge")

// Result is the output of an averaged-risk evaluation: the probability
// estimate and the estimated absolute numerical error of the quadrature.
type Result struct {
	Probability float64 `json:"probability"`
	Error       float64 `json:"error"`
}

// AverageOptions tunes the averaged-risk quadrature. The zero value
// selects the defaults above.
type AverageOptions struct {
	// PPFBound truncates each parameter's domain to the quantile interval
	// [PPFBound, 1-PPFBound].
	PPFBound float64
	// Tolerance is the maximum acceptable estimated absolute error.
	Tolerance float64
	// BaseOrder is the Gauss-Legendre node count per dimension of the
	// first refinement level; each level roughly doubles it.
	BaseOrder int
	// MaxOrder caps the per-dimension node count before giving up.
	MaxOrder int
}

func (o AverageOptions) withDefaults() AverageOptions {
	if o.PPFBound <= 0 {
		o.PPFBound = DefaultPPFBound
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.BaseOrder <= 0 {
		o.BaseOrder = defaultBaseOrder
	}
	if o.MaxOrder <= 0 {
		o.MaxOrder = defaultMaxOrder
	}
	return o
}

// EvaluateAveraged computes the expectation of the point risk model under
// the joint distribution of the given random parameters, holding the
// remaining fields of base fixed. Each parameter's domain is truncated at
// its distribution's ppf-bound quantiles, and the integrand
//
//	PointRisk(params) × ∏ density_i(param_i)
//
// is integrated by nested Gauss-Legendre quadrature over the resulting
// rectangle. Node counts double per refinement level; the error estimate
// is the absolute difference between the last two levels, floored at
// machine precision relative to the estimate. If the error estimate never
// falls below the tolerance the call fails with ErrNotConverged.
func (m *Model) EvaluateAveraged(base Scenario, random []RandomParameter, opts AverageOptions) (Result, error) {
	if len(random) == 0 {
		return Result{}, errors.New("no random parameters to average over")
	}
	opts = opts.withDefaults()

	bounds := make([][2]float64, len(random))
	for i, rp := range random {
		if rp.Dist == nil {
			return Result{}, fmt.Errorf("random parameter %s has no distribution", rp.Field)
		}
		lo := rp.Dist.Quantile(opts.PPFBound)
		hi := rp.Dist.Quantile(1 - opts.PPFBound)
		if !(lo < hi) {
			return Result{}, fmt.Errorf("random parameter %s has degenerate support [%g, %g]", rp.Field, lo, hi)
		}
		bounds[i] = [2]float64{lo, hi}
	}

	var prev float64
	havePrev := false
	var evalErr error

	for order := opts.BaseOrder; order <= opts.MaxOrder; order = 2*order + 1 {
		est := m.integrate(base, random, bounds, order, &evalErr)
		if evalErr != nil {
			return Result{}, evalErr
		}
		if havePrev {
			// The refinement difference underestimates the true error once
			// it reaches machine precision, so floor it there.
			errEst := math.Abs(est - prev)
			if floor := math.Abs(est) * 1e-15; errEst < floor {
				errEst = floor
			}
			if errEst <= opts.Tolerance {
				return Result{Probability: est, Error: errEst}, nil
			}
			prev = est
			continue
		}
		prev = est
		havePrev = true
	}

	return Result{}, fmt.Errorf("%w: tolerance %g not reached at %d nodes per dimension",
		ErrNotConverged, opts.Tolerance, opts.MaxOrder)
}

// integrate evaluates the weighted tensor-product quadrature at one node
// count per dimension. Point-model evaluation errors (an invalid scenario
// reached through a random parameter) abort the whole evaluation via
// evalErr rather than silently contributing zero mass.
func (m *Model) integrate(base Scenario, random []RandomParameter, bounds [][2]float64, order int, evalErr *error) float64 {
	var dim func(i int, s Scenario) float64
	dim = func(i int, s Scenario) float64 {
		if i == len(random) {
			p, err := m.EvaluateScenario(s)
			if err != nil {
				if *evalErr == nil {
					*evalErr = err
				}
				return 0
			}
			return p
		}
		rp := random[i]
		return quad.Fixed(func(x float64) float64 {
			return rp.Dist.Prob(x) * dim(i+1, rp.Field.Set(s, x))
		}, bounds[i][0], bounds[i][1], order, nil, 0)
	}
	return dim(0, base)
}
