// Package plot renders spectra as self-contained ECharts HTML documents
// for quick visual inspection of pipeline results.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cwbudde/algo-spectra/spectra/ops"
	"github.com/cwbudde/algo-spectra/spectra/spectrum"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

// ErrNoSpectra is returned when a chart is requested with no input.
var ErrNoSpectra = errors.New("plot: no spectra to plot")

// Option configures chart rendering.
type Option func(*config)

type config struct {
	title     string
	width     string
	height    string
	normalize bool
}

func defaultConfig() config {
	return config{width: "1200px", height: "600px"}
}

// WithTitle sets the chart title. The default is the first spectrum's name.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithSize sets the chart dimensions, e.g. "900px".
func WithSize(width, height string) Option {
	return func(c *config) { c.width = width; c.height = height }
}

// WithPeakNormalization peak-normalizes every series before plotting so
// spectra of different brightness share one vertical scale.
func WithPeakNormalization() Option {
	return func(c *config) { c.normalize = true }
}

// Line renders a single spectrum as a line chart HTML document.
func Line(w io.Writer, s *spectrum.Spectrum, options ...Option) error {
	return Compare(w, []*spectrum.Spectrum{s}, options...)
}

// Compare overlays several spectra in one chart. All spectra are converted
// to the first one's abscissa unit so they share an axis; invalid samples
// become gaps in the line.
func Compare(w io.Writer, spectra []*spectrum.Spectrum, options ...Option) error {
	if len(spectra) == 0 {
		return ErrNoSpectra
	}
	cfg := defaultConfig()
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.title == "" {
		cfg.title = spectra[0].Meta().Name
	}

	axisUnit := spectra[0].Unit()
	valueLabel := spectra[0].ValueUnit()
	if cfg.normalize {
		valueLabel = "normalized"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: cfg.title,
			Width:     cfg.width,
			Height:    cfg.height,
		}),
		charts.WithTitleOpts(opts.Title{Title: cfg.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(spectra) > 1)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: fmt.Sprintf("abscissa (%s)", axisUnit),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: valueLabel}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	for i, s := range spectra {
		prepared, err := prepare(s, cfg, axisUnit)
		if err != nil {
			return err
		}
		name := prepared.Meta().Name
		if name == "" {
			name = fmt.Sprintf("series %d", i+1)
		}
		line.AddSeries(name, seriesData(prepared),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("plot: render: %w", err)
	}
	return nil
}

func prepare(s *spectrum.Spectrum, cfg config, axisUnit unit.Unit) (*spectrum.Spectrum, error) {
	var err error
	if s.Unit() != axisUnit {
		s, err = ops.ConvertUnits(s, axisUnit)
		if err != nil {
			return nil, fmt.Errorf("plot: %w", err)
		}
	}
	if cfg.normalize {
		s, err = ops.Normalize(s, ops.NormalizePeak)
		if err != nil {
			return nil, fmt.Errorf("plot: %w", err)
		}
	}
	return s, nil
}

func seriesData(s *spectrum.Spectrum) []opts.LineData {
	abscissa := s.Abscissa()
	values := s.Values()
	data := make([]opts.LineData, 0, len(abscissa))
	for i := range abscissa {
		if math.IsNaN(values[i]) {
			// Null values render as gaps.
			data = append(data, opts.LineData{Value: []interface{}{abscissa[i], nil}})
			continue
		}
		data = append(data, opts.LineData{Value: []interface{}{abscissa[i], values[i]}})
	}
	return data
}
