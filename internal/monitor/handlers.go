package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oceanic-safety/cdp.report/internal/httputil"
	"github.com/oceanic-safety/cdp.report/internal/risk"
	"github.com/oceanic-safety/cdp.report/internal/sweep"
)

// handlePointRisk evaluates the point model for a scenario passed as
// query parameters. Every scenario field is required; the endpoint does
// not invent defaults for safety-relevant inputs.
func (ws *WebServer) handlePointRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	s, err := scenarioFromQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	p, err := ws.model.EvaluateScenario(s)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"scenario":    s,
		"probability": p,
	})
}

// scenarioFromQuery builds a Scenario from query parameters, one per
// scenario field, named by the field's JSON name.
func scenarioFromQuery(r *http.Request) (risk.Scenario, error) {
	var s risk.Scenario
	for _, field := range []risk.Field{
		risk.FieldClimbStartMinute,
		risk.FieldInitialSpacingNM,
		risk.FieldAircraftLengthM,
		risk.FieldAircraftHeightFt,
		risk.FieldMaxSpeedDiffKn,
		risk.FieldSpeedErrScaleKn,
		risk.FieldClimbRateFtMin,
		risk.FieldSpeedDiffStdKn,
	} {
		raw := r.URL.Query().Get(field.String())
		if raw == "" {
			return risk.Scenario{}, fmt.Errorf("missing query parameter %s", field)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return risk.Scenario{}, fmt.Errorf("invalid %s: %w", field, err)
		}
		s = field.Set(s, v)
	}
	return s, nil
}

// distSpec is the wire form of a random-parameter distribution.
type distSpec struct {
	Field string  `json:"field"`
	Kind  string  `json:"kind"` // "uniform" or "normal"
	A     float64 `json:"a"`    // min or mean
	B     float64 `json:"b"`    // max or std
}

type averagedRequest struct {
	Scenario  risk.Scenario `json:"scenario"`
	Random    []distSpec    `json:"random"`
	PPFBound  float64       `json:"ppf_bound,omitempty"`
	Tolerance float64       `json:"tolerance,omitempty"`
}

// handleAveragedRisk integrates the point model over the requested
// parameter distributions. A convergence failure maps to 422: the request
// was well-formed but no trustworthy estimate exists at this tolerance.
func (ws *WebServer) handleAveragedRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req averagedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("parsing request: %v", err))
		return
	}

	random := make([]risk.RandomParameter, 0, len(req.Random))
	for _, ds := range req.Random {
		field, err := risk.ParseField(ds.Field)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		dist, err := risk.ParseDistributionSpec(fmt.Sprintf("%s:%g:%g", ds.Kind, ds.A, ds.B))
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		random = append(random, risk.RandomParameter{Field: field, Dist: dist})
	}

	opts := risk.AverageOptions{
		PPFBound:  req.PPFBound,
		Tolerance: req.Tolerance,
		BaseOrder: ws.cfg.GetBaseOrder(),
		MaxOrder:  ws.cfg.GetMaxOrder(),
	}
	if opts.PPFBound == 0 {
		opts.PPFBound = ws.cfg.GetPPFBound()
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = ws.cfg.GetTolerance()
	}

	res, err := ws.model.EvaluateAveraged(req.Scenario, random, opts)
	if err != nil {
		if errors.Is(err, risk.ErrNotConverged) {
			httputil.UnprocessableEntity(w, err.Error())
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.WriteJSONOK(w, res)
}

type sweepRequest struct {
	Scenario risk.Scenario `json:"scenario"`
	Field    string        `json:"field"`
	Range    string        `json:"range"` // "min:max:step"
	Notes    string        `json:"notes,omitempty"`
}

type sweepResponse struct {
	StudyID string        `json:"study_id,omitempty"`
	Field   string        `json:"field"`
	Points  []sweep.Point `json:"points"`
}

// handleSweep runs a sweep of one scenario field and, when a study
// database is configured, persists the result as a new study.
func (ws *WebServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("parsing request: %v", err))
		return
	}

	field, err := risk.ParseField(req.Field)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	spec, err := sweep.ParseRangeSpec(req.Range)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	runner := sweep.NewRunner(ws.model, ws.workers)
	points, err := runner.Run(req.Scenario, field, spec.Values())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	resp := sweepResponse{Field: field.String(), Points: points}
	if ws.store != nil {
		id, err := ws.store.InsertStudy(req.Scenario, field, points, req.Notes)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		resp.StudyID = id
	}

	httputil.WriteJSONOK(w, resp)
}

// handleStudies lists persisted studies.
func (ws *WebServer) handleStudies(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.NotFound(w, "no study database configured")
		return
	}
	studies, err := ws.store.ListStudies()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, studies)
}
