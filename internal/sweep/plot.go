package sweep

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultTLS is the target level of safety reference drawn on sweep
// charts: 5e-9 fatal accidents per flight hour, the ICAO figure commonly
// used for procedural separation assessments.
const DefaultTLS = 5e-9

// RenderPNG plots a sweep series on a log-scale probability axis with a
// dashed horizontal line at the target level of safety, and saves it as a
// PNG. Points with non-positive probability cannot be shown on a log axis
// and are skipped.
func RenderPNG(points []Point, field string, tls float64, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("no points to plot")
	}
	if tls <= 0 {
		tls = DefaultTLS
	}

	p := plot.New()
	p.Title.Text = "CDP collision risk"
	p.X.Label.Text = field
	p.Y.Label.Text = "probability of mid-air collision"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	xys := make(plotter.XYs, 0, len(points))
	for _, pt := range points {
		// Zero probabilities have no place on a log axis.
		if pt.Probability > 0 {
			xys = append(xys, plotter.XY{X: pt.Value, Y: pt.Probability})
		}
	}
	if len(xys) == 0 {
		return fmt.Errorf("all %d points have non-positive probability", len(points))
	}

	risk, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("building risk line: %w", err)
	}
	risk.Width = vg.Points(1)
	risk.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(risk)
	p.Legend.Add("PMAC", risk)

	threshold, err := plotter.NewLine(plotter.XYs{
		{X: points[0].Value, Y: tls},
		{X: points[len(points)-1].Value, Y: tls},
	})
	if err != nil {
		return fmt.Errorf("building threshold line: %w", err)
	}
	threshold.Width = vg.Points(1)
	threshold.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	threshold.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(threshold)
	p.Legend.Add(fmt.Sprintf("TLS %.0e", tls), threshold)

	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save sweep plot: %w", err)
	}
	return nil
}
