package stats

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/verte-zerg/formcoach/internal/model"
)

// RenderScoreChart writes an HTML page with the score timeline and the
// feedback breakdown of a run.
func RenderScoreChart(w io.Writer, title string, r Run, window int) error {
	if len(r.Samples) == 0 {
		return fmt.Errorf("no classified frames to chart")
	}

	xs := make([]string, len(r.Samples))
	raw := make([]opts.LineData, len(r.Samples))
	smoothed := MovingAverage(r.Scores(), window)
	avg := make([]opts.LineData, len(smoothed))
	for i, s := range r.Samples {
		xs[i] = fmt.Sprintf("%.1f", float64(s.OffsetMs)/1000)
		raw[i] = opts.LineData{Value: s.Score}
		avg[i] = opts.LineData{Value: smoothed[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s, %d frames", r.Exercise, r.Frames)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "seconds", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "score", Min: 0, Max: 100}),
	)
	line.SetXAxis(xs).
		AddSeries("score", raw, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries(fmt.Sprintf("moving avg (%d)", window), avg,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
			charts.WithMarkLineNameYAxisItemOpts(
				opts.MarkLineNameYAxisItem{Name: "good", YAxis: 90},
				opts.MarkLineNameYAxisItem{Name: "warning", YAxis: 70},
			),
		)

	s := Summarize(r)
	categories := []model.Category{model.Good, model.Warning, model.Error}
	labels := make([]string, len(categories))
	counts := make([]opts.BarData, len(categories))
	for i, c := range categories {
		labels[i] = string(c)
		counts[i] = opts.BarData{Value: s.ByCategory[c]}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Feedback", Subtitle: fmt.Sprintf("form accuracy %d%%", s.FormAccuracy)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("events", counts, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(line, bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
