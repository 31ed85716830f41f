// Package render draws dashboard views as self-contained HTML pages.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"energy-dashboard/application/views"
)

// ChartOptions configures the trend chart page
type ChartOptions struct {
	Title      string
	Subtitle   string
	AssetsHost string
}

// Series names, in legend order.
const (
	SeriesLoad  = "Load (kW)"
	SeriesSolar = "Solar (kW)"
	SeriesGrid  = "Grid (kW)"

	SeriesCO2      = "CO2 Energy (kWh)"
	SeriesFrascold = "Frascold Energy (kWh)"
	SeriesNewIQF   = "New IQF Energy (kWh)"
)

// TrendChart renders power and meter readings over time as a line chart.
// Meter readings use a second axis; missing readings leave gaps.
func TrendChart(w io.Writer, points []views.TimeSeriesPoint, options ChartOptions) error {
	x := make([]string, 0, len(points))
	load := make([]opts.LineData, 0, len(points))
	solar := make([]opts.LineData, 0, len(points))
	grid := make([]opts.LineData, 0, len(points))
	co2 := make([]opts.LineData, 0, len(points))
	frascold := make([]opts.LineData, 0, len(points))
	newIQF := make([]opts.LineData, 0, len(points))
	for _, pt := range points {
		x = append(x, pt.Time)
		load = append(load, opts.LineData{Value: pt.LoadKw})
		solar = append(solar, opts.LineData{Value: pt.SolarKw})
		grid = append(grid, opts.LineData{Value: pt.GridKw})
		co2 = append(co2, meter(pt.CO2Energy))
		frascold = append(frascold, meter(pt.FrascoldEnergy))
		newIQF = append(newIQF, meter(pt.NewIQFEnergy))
	}

	title := options.Title
	if title == "" {
		title = "Energy Trend"
	}
	subtitle := options.Subtitle
	if subtitle == "" {
		subtitle = fmt.Sprintf("points=%d", len(points))
	}

	init := opts.Initialization{PageTitle: title, Width: "100%", Height: "600px"}
	if options.AssetsHost != "" {
		init.AssetsHost = options.AssetsHost
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	power := charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)})
	meters := charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false), YAxisIndex: 1})

	line.ExtendYAxis(opts.YAxis{Name: "kWh"})
	line.SetXAxis(x).
		AddSeries(SeriesLoad, load, power).
		AddSeries(SeriesSolar, solar, power).
		AddSeries(SeriesGrid, grid, power).
		AddSeries(SeriesCO2, co2, meters).
		AddSeries(SeriesFrascold, frascold, meters).
		AddSeries(SeriesNewIQF, newIQF, meters)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func meter(v *float64) opts.LineData {
	if v == nil {
		// echarts draws "-" as a gap
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: *v}
}
