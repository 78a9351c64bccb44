// Package plot renders PNG figures of the computed spectrum and dose
// arrays. Rendering is a convenience on top of the pipeline results; a plot
// failure is never fatal to the run.
package plot

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"fluxpost/internal/dose"
	"fluxpost/internal/spectrum"
)

// WriteSpectrumPNG renders flux per unit energy against bin mid energy on
// log-log axes. Bins with non-positive energy or flux are skipped (log axes
// cannot place them).
func WriteSpectrumPNG(w io.Writer, s *spectrum.Spectrum) error {
	xs, ys := logSafePoints(s, s.FluxPerE)
	if len(xs) < 2 {
		return fmt.Errorf("spectrum plot: only %d positive points", len(xs))
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Neutron spectrum — %s", s.Detector),
		Width:  1024,
		Height: 640,
		XAxis: chart.XAxis{
			Name:  "E [MeV]",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.LogarithmicRange{},
		},
		YAxis: chart.YAxis{
			Name:  "flux per unit energy [n/cm2/s/MeV]",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.LogarithmicRange{},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "flux per unit energy",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2.0},
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render spectrum plot: %w", err)
	}
	return nil
}

// WriteDosePNG renders per-bin dose rate against bin mid energy, log-scaled
// on the energy axis.
func WriteDosePNG(w io.Writer, s *spectrum.Spectrum, r *dose.Report) error {
	xs, ys := logSafePoints(s, r.DoseRate)
	if len(xs) < 2 {
		return fmt.Errorf("dose plot: only %d positive points", len(xs))
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Dose rate by energy bin — %s", s.Detector),
		Width:  1024,
		Height: 640,
		XAxis: chart.XAxis{
			Name:  "E [MeV]",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.LogarithmicRange{},
		},
		YAxis: chart.YAxis{
			Name:  "dose rate [rem/h]",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "dose rate",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2.0},
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render dose plot: %w", err)
	}
	return nil
}

func logSafePoints(s *spectrum.Spectrum, values []float64) (xs, ys []float64) {
	for i, b := range s.Bins {
		if b.Mid > 0 && values[i] > 0 {
			xs = append(xs, b.Mid)
			ys = append(ys, values[i])
		}
	}
	return xs, ys
}
