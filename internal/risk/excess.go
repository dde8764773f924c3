package risk

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSampleCount is the Monte-Carlo sample count used when no tuning
// override is supplied. At 5e7 samples the relative error of an excess
// probability near 0.1 is on the order of 4e-4 (O(1/sqrt(k))).
const DefaultSampleCount = 50_000_000

// excessKey identifies one excess-probability estimate. Two calls with the
// same key must observe the same cached value for the process lifetime.
type excessKey struct {
	std      float64
	maxDiff  float64
	errScale float64
	samples  int
}

// ExcessEstimator estimates the probability that the follower's
// instantaneous speed exceeds the leader's by more than the allowed
// maximum. The follower's baseline speed difference is a zero-mean normal
// with the given standard deviation, upper-truncated at the allowed
// maximum (the procedure never clears a follower already faster than
// allowed); an independent zero-centered Laplace measurement error is
// added on top.
//
// Estimates are cached by parameter tuple. The point model is evaluated at
// many quadrature nodes that share the same excess parameters, and
// quadrature assumes a smooth, consistent integrand, so resampling per
// node would be both prohibitively slow and numerically unstable. The
// cache grows without bound; studies touch tens of distinct keys.
type ExcessEstimator struct {
	mu      sync.Mutex
	cache   map[excessKey]float64
	samples int
	seed    uint64
}

// NewExcessEstimator creates an estimator drawing the given number of
// Monte-Carlo samples per distinct parameter tuple. A non-positive count
// selects DefaultSampleCount. The seed fixes the RNG stream so that
// recomputing a key yields the same estimate run to run.
func NewExcessEstimator(samples int, seed uint64) *ExcessEstimator {
	if samples <= 0 {
		samples = DefaultSampleCount
	}
	return &ExcessEstimator{
		cache:   make(map[excessKey]float64),
		samples: samples,
		seed:    seed,
	}
}

// SampleCount returns the per-key Monte-Carlo sample count.
func (e *ExcessEstimator) SampleCount() int { return e.samples }

// Estimate returns P(baseline + error > maxDiff) for the given
// speed-difference standard deviation, allowed maximum and error scale.
// The first call for a tuple samples; later calls return the cached value
// bit-identically. The mutex is held across the computation so concurrent
// callers never sample the same key twice.
//
// Behavior is undefined for std <= 0 or errScale <= 0; callers enforce
// Scenario invariants upstream.
func (e *ExcessEstimator) Estimate(std, maxDiff, errScale float64) float64 {
	key := excessKey{std: std, maxDiff: maxDiff, errScale: errScale, samples: e.samples}

	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.cache[key]; ok {
		return p
	}
	p := e.sample(key)
	e.cache[key] = p
	return p
}

// sample draws the Monte-Carlo estimate for one key. Caller holds e.mu.
func (e *ExcessEstimator) sample(key excessKey) float64 {
	src := rand.NewPCG(e.seed, key.hash())
	rng := rand.New(src)

	baseline := distuv.Normal{Mu: 0, Sigma: key.std}
	errDist := distuv.Laplace{Mu: 0, Scale: key.errScale, Src: src}

	// Upper truncation at maxDiff by inverse-CDF: map a uniform draw on
	// (0, CDF(maxDiff)) through the untruncated quantile function.
	pCeil := baseline.CDF(key.maxDiff)

	exceeded := 0
	for i := 0; i < key.samples; i++ {
		base := baseline.Quantile(pCeil * rng.Float64())
		if base+errDist.Rand() > key.maxDiff {
			exceeded++
		}
	}
	return float64(exceeded) / float64(key.samples)
}

// hash folds the key's parameters into a PCG stream selector so distinct
// tuples draw from independent deterministic streams.
func (k excessKey) hash() uint64 {
	h := uint64(14695981039346656037)
	for _, bits := range []uint64{
		math.Float64bits(k.std),
		math.Float64bits(k.maxDiff),
		math.Float64bits(k.errScale),
		uint64(k.samples),
	} {
		h ^= bits
		h *= 1099511628211
	}
	return h
}
