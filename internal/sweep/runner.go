package sweep

import (
	"fmt"
	"sync"

	"github.com/oceanic-safety/cdp.report/internal/monitoring"
	"github.com/oceanic-safety/cdp.report/internal/risk"
)

// Point is one sweep sample: the swept field's value and the collision
// probability the point model assigns to it.
type Point struct {
	Value       float64 `json:"value"`
	Probability float64 `json:"probability"`
}

// Runner evaluates the point model across swept parameter values. Workers
// share the model's memoized excess estimator; collection is
// order-independent, so results are returned in input order regardless of
// completion order.
type Runner struct {
	model   *risk.Model
	workers int
}

// NewRunner creates a Runner with the given worker count. A non-positive
// count runs sequentially.
func NewRunner(model *risk.Model, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{model: model, workers: workers}
}

// Run evaluates base with field swept across values. The first evaluation
// error aborts the sweep.
func (r *Runner) Run(base risk.Scenario, field risk.Field, values []float64) ([]Point, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no values to sweep over for %s", field)
	}

	points := make([]Point, len(values))
	errs := make([]error, len(values))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)
	for i, v := range values {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, v float64) {
			defer wg.Done()
			defer func() { <-sem }()
			p, err := r.model.EvaluateScenario(field.Set(base, v))
			if err != nil {
				errs[i] = fmt.Errorf("%s=%g: %w", field, v, err)
				return
			}
			points[i] = Point{Value: v, Probability: p}
		}(i, v)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	monitoring.Logf("sweep complete: %s over %d values", field, len(values))
	return points, nil
}
