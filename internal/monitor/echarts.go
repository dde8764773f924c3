package monitor

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/oceanic-safety/cdp.report/internal/httputil"
	"github.com/oceanic-safety/cdp.report/internal/sweep"
)

// handleStudyChart renders a stored sweep study as an HTML line chart
// using go-echarts: the probability series on a log axis with a constant
// target-level-of-safety reference series. Query params:
//   - study_id (required)
//   - tls (optional; defaults to sweep.DefaultTLS)
func (ws *WebServer) handleStudyChart(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		httputil.NotFound(w, "no study database configured")
		return
	}

	studyID := r.URL.Query().Get("study_id")
	if studyID == "" {
		httputil.BadRequest(w, "missing study_id")
		return
	}

	rec, err := ws.store.GetStudy(studyID)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	points, err := ws.store.GetPoints(studyID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if len(points) == 0 {
		httputil.NotFound(w, "study has no points")
		return
	}

	tls := sweep.DefaultTLS
	if v := r.URL.Query().Get("tls"); v != "" {
		if parsed, err := parsePositiveFloat(v); err == nil {
			tls = parsed
		}
	}

	xs := make([]string, 0, len(points))
	riskSeries := make([]opts.LineData, 0, len(points))
	tlsSeries := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		xs = append(xs, fmt.Sprintf("%g", p.Value))
		riskSeries = append(riskSeries, opts.LineData{Value: p.Probability})
		tlsSeries = append(tlsSeries, opts.LineData{Value: tls})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "CDP collision risk", Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "CDP collision risk",
			Subtitle: fmt.Sprintf("study=%s field=%s points=%d", rec.StudyID, rec.SweptField, len(points)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: rec.SweptField, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Type: "log", Name: "PMAC"}),
	)
	line.SetXAxis(xs).
		AddSeries("PMAC", riskSeries).
		AddSeries(fmt.Sprintf("TLS %.0e", tls), tlsSeries)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("rendering chart: %v", err))
	}
}

func parsePositiveFloat(s string) (float64, error) {
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("value must be positive, got %g", v)
	}
	return v, nil
}
