package report

import (
	"errors"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/regressionfit/internal/compare"
)

// ErrNothingToPlot is returned when no outcome has a history of two or
// more finite points.
var ErrNothingToPlot = errors.New("no convergence history to plot")

// ConvergencePoints converts an outcome's history to log-likelihood points
// (step, value), dropping non-finite entries.
func ConvergencePoints(o compare.Outcome) plotter.XYs {
	pts := make(plotter.XYs, 0, len(o.Result.History))
	for step, v := range o.Result.History {
		ll := compare.ToLogLikelihood(o.Sense, v)
		if math.IsNaN(ll) || math.IsInf(ll, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(step), Y: ll})
	}
	return pts
}

// SaveConvergencePlot draws the best log-likelihood per step of every
// outcome and writes it to path. The image format follows the extension.
func SaveConvergencePlot(path string, r *compare.Report) error {
	p := plot.New()
	p.Title.Text = "Best log-likelihood"
	p.X.Label.Text = "Generation / iteration"
	p.Y.Label.Text = "Log-likelihood"

	drawn := 0
	for i, o := range r.Outcomes {
		pts := ConvergencePoints(o)
		if len(pts) < 2 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(o.Name, line)
		drawn++
	}
	if drawn == 0 {
		return ErrNothingToPlot
	}

	p.Add(plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
