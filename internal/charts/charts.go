// Package charts renders per-network gas trend PNGs.
package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"gaswatch/internal/model"
)

// Options tune the chart output.
type Options struct {
	Directory string
	Width     int
	Height    int
}

// Renderer writes gas trend charts from pruned history windows.
type Renderer struct {
	opts   Options
	logger zerolog.Logger
}

// NewRenderer constructs a chart renderer.
func NewRenderer(opts Options, logger zerolog.Logger) *Renderer {
	if opts.Directory == "" {
		opts.Directory = "charts"
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	return &Renderer{opts: opts, logger: logger.With().Str("component", "charts").Logger()}
}

// Render writes {directory}/{network}_gas_trend.png with base, safe (p25) and
// fast (p75) total fee series plus the corresponding priority fee series on
// the secondary axis. Windows with fewer than two samples are skipped.
func (r *Renderer) Render(network, displayName string, samples []model.GasSample) error {
	if len(samples) < 2 {
		r.logger.Debug().Str("network", network).Msg("not enough samples for chart")
		return nil
	}

	x := make([]time.Time, len(samples))
	base := make([]float64, len(samples))
	safe := make([]float64, len(samples))
	fast := make([]float64, len(samples))
	prioSafe := make([]float64, len(samples))
	prioFast := make([]float64, len(samples))

	for i, sample := range samples {
		x[i] = sample.Timestamp
		base[i] = sample.BaseFee.InexactFloat64()
		if v, ok := sample.FeeAt(model.P25); ok {
			safe[i] = v.InexactFloat64()
		}
		if v, ok := sample.FeeAt(model.P75); ok {
			fast[i] = v.InexactFloat64()
		}
		if v, ok := sample.PriorityAt(model.P25); ok {
			prioSafe[i] = v.InexactFloat64()
		}
		if v, ok := sample.PriorityAt(model.P75); ok {
			prioFast[i] = v.InexactFloat64()
		}
	}

	gweiFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Gas Prices", displayName),
		Width:  r.opts.Width,
		Height: r.opts.Height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Total Fee (Gwei)",
			ValueFormatter: gweiFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Priority (Gwei)",
			ValueFormatter: gweiFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Base Fee",
				XValues: x,
				YValues: base,
			},
			chart.TimeSeries{
				Name:    "Safe (p25)",
				XValues: x,
				YValues: safe,
			},
			chart.TimeSeries{
				Name:    "Fast (p75)",
				XValues: x,
				YValues: fast,
			},
			chart.TimeSeries{
				Name:    "Priority p25",
				XValues: x,
				YValues: prioSafe,
				YAxis:   chart.YAxisSecondary,
			},
			chart.TimeSeries{
				Name:    "Priority p75",
				XValues: x,
				YValues: prioFast,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := os.MkdirAll(r.opts.Directory, 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}

	path := filepath.Join(r.opts.Directory, fmt.Sprintf("%s_gas_trend.png", network))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	r.logger.Debug().Str("network", network).Str("path", path).Msg("chart saved")
	return nil
}
