package report

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotFormat names the output image format, mirroring dnspyre's own
// svg/png/jpg option for its benchmark plots.
type PlotFormat string

const (
	PlotFormatPNG PlotFormat = "png"
	PlotFormatSVG PlotFormat = "svg"
	PlotFormatJPG PlotFormat = "jpg"
)

// Series is one named time series to plot: x is virtual time, y is the
// sampled value (queue depth, drop count, latency, ...).
type Series struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
}

// PlotSeries renders s to path: the raw series as a dashed line, a moving
// average as a thicker solid line, and a polygon outlining the ±1
// rolling-standard-deviation band around it. No colours are set; every
// element uses gonum/plot's default styling. window is the rolling window width in samples; it is clamped to
// len(s.Y) if larger.
func PlotSeries(s Series, path string, format PlotFormat, window int) error {
	if len(s.X) != len(s.Y) {
		return fmt.Errorf("report: series %q has mismatched x/y lengths (%d vs %d)", s.Title, len(s.X), len(s.Y))
	}
	if len(s.X) == 0 {
		return fmt.Errorf("report: series %q has no samples to plot", s.Title)
	}
	if window <= 0 {
		window = 1
	}
	if window > len(s.Y) {
		window = len(s.Y)
	}

	smoothedX, smoothedY, upper, lower := smoothWithBand(s.X, s.Y, window)

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("report: failed to create plot: %w", err)
	}
	p.Title.Text = s.Title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	p.Add(plotter.NewGrid())

	raw, err := plotter.NewLine(toXYs(s.X, s.Y))
	if err != nil {
		return fmt.Errorf("report: failed to build raw series line: %w", err)
	}
	raw.LineStyle.Width = vg.Points(1)
	raw.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Add(raw)
	p.Legend.Add("original", raw)

	band, err := plotter.NewPolygon(bandPoints(smoothedX, upper, lower))
	if err != nil {
		return fmt.Errorf("report: failed to build std-dev band: %w", err)
	}
	p.Add(band)

	smoothed, err := plotter.NewLine(toXYs(smoothedX, smoothedY))
	if err != nil {
		return fmt.Errorf("report: failed to build smoothed series line: %w", err)
	}
	smoothed.LineStyle.Width = vg.Points(2)
	p.Add(smoothed)
	p.Legend.Add("smoothed (±1 std dev)", smoothed)

	return p.Save(10*vg.Inch, 6*vg.Inch, fmt.Sprintf("%s.%s", path, format))
}

func toXYs(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

// bandPoints builds the closed polygon outlining the upper bound forward
// and the lower bound backward, the vector-graphics equivalent of
// matplotlib's fill_between.
func bandPoints(x, upper, lower []float64) plotter.XYs {
	n := len(x)
	pts := make(plotter.XYs, 0, 2*n)
	for i := 0; i < n; i++ {
		pts = append(pts, plotter.XY{X: x[i], Y: upper[i]})
	}
	for i := n - 1; i >= 0; i-- {
		pts = append(pts, plotter.XY{X: x[i], Y: lower[i]})
	}
	return pts
}

// smoothWithBand computes a trailing simple moving average of y over window
// and a trailing rolling standard deviation of the same width, returning
// the aligned x values plus the smoothed series and its upper/lower bounds.
// Mirrors Statistics._moving_average / _moving_std_dev, both computed over
// a trailing window ending at each index rather than numpy's "valid mode"
// convolution, so the output series is the same length as the input.
func smoothWithBand(x, y []float64, window int) (outX, smoothed, upper, lower []float64) {
	n := len(y)
	outX = make([]float64, n)
	smoothed = make([]float64, n)
	upper = make([]float64, n)
	lower = make([]float64, n)

	for i := 0; i < n; i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		windowed := y[start : i+1]
		mean := stat.Mean(windowed, nil)
		std := stat.StdDev(windowed, nil)

		outX[i] = x[i]
		smoothed[i] = mean
		upper[i] = mean + std
		lower[i] = mean - std
	}
	return outX, smoothed, upper, lower
}
