package types

import (
	"fmt"
	"os"
	"path"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// MovingAverage smooths the series over the given window,
// the first points average over what is available
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// PlotRewards draws one line per series (episode rewards, smoothed over window)
// and saves it as plotPath/fileName
func PlotRewards(plotPath, fileName string, names []string, series [][]float64, window int) error {
	if len(names) != len(series) {
		return fmt.Errorf("got %d names for %d series", len(names), len(series))
	}
	if _, err := os.Stat(plotPath); err != nil {
		if err := os.MkdirAll(plotPath, os.ModePerm); err != nil {
			return err
		}
	}

	p := plot.New()
	p.Title.Text = "Comparison"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Total reward"
	for i := 0; i < len(names); i++ {
		smoothed := MovingAverage(series[i], window)
		points := make(plotter.XYs, len(smoothed))
		for j, v := range smoothed {
			points[j] = plotter.XY{
				X: float64(j),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	return p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, fileName))
}
