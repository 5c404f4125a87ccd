// Package report renders evaluation artifacts: PNG plots of out-of-fold
// predictions and spectra via gonum/plot, and a standalone HTML summary via
// go-echarts. Everything is written to files; there is no serving surface.
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/impedance.report/internal/eis"
	"github.com/banshee-data/impedance.report/internal/eis/eval"
)

// SavePredictionScatter plots predicted against true values for every
// out-of-fold prediction, with the identity line for reference.
func SavePredictionScatter(res *eval.Result, title, path string) error {
	if len(res.Predictions) == 0 {
		return fmt.Errorf("no predictions to plot")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "true"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(res.Predictions))
	lo, hi := res.Predictions[0].YTrue, res.Predictions[0].YTrue
	for i, pr := range res.Predictions {
		pts[i] = plotter.XY{X: pr.YTrue, Y: pr.YPred}
		for _, v := range []float64{pr.YTrue, pr.YPred} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return err
	}
	identity.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	identity.Width = vg.Points(1)
	p.Add(identity)

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

// SaveResiduals plots prediction residuals against true values.
func SaveResiduals(res *eval.Result, title, path string) error {
	if len(res.Predictions) == 0 {
		return fmt.Errorf("no predictions to plot")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "true"
	p.Y.Label.Text = "residual (predicted - true)"

	pts := make(plotter.XYs, len(res.Predictions))
	for i, pr := range res.Predictions {
		pts[i] = plotter.XY{X: pr.YTrue, Y: pr.YPred - pr.YTrue}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	zero, err := plotter.NewLine(plotter.XYs{
		{X: pts[0].X, Y: 0}, {X: pts[len(pts)-1].X, Y: 0},
	})
	if err != nil {
		return err
	}
	zero.Width = vg.Points(1)
	p.Add(zero)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// SaveNyquist plots one spectrum in the complex plane (Z_real against
// -Z_imag, the electrochemistry convention).
func SaveNyquist(s *eis.Spectrum, path string) error {
	if s.Len() == 0 {
		return fmt.Errorf("empty spectrum %s", s.Key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Nyquist " + s.Key.String()
	p.X.Label.Text = "Z' (ohm)"
	p.Y.Label.Text = "-Z'' (ohm)"

	pts := make(plotter.XYs, s.Len())
	for i := 0; i < s.Len(); i++ {
		pts[i] = plotter.XY{X: s.ZRealOhm[i], Y: -s.ZImagOhm[i]}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
