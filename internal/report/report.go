// Package report renders classification runs as standalone HTML pages
// with go-echarts: a timeline of the predicted activity and a
// per-activity total.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/verasls/activity-recognition/internal/activity"
	"github.com/verasls/activity-recognition/internal/db"
)

// activityLevel maps labels to a stable y-axis position so the
// timeline reads bottom-to-top as walking, running, jumping.
var activityLevel = map[activity.Activity]int{
	activity.Walking: 1,
	activity.Running: 2,
	activity.Jumping: 3,
}

// Render writes the full HTML report for one run.
func Render(w io.Writer, run *db.Run, predictions []activity.Prediction, totals []db.ActivityTotal) error {
	page := components.NewPage()
	page.AddCharts(timeline(run, predictions), totalsBar(totals))
	return page.Render(w)
}

// timeline plots the predicted activity level per window over time.
func timeline(run *db.Run, predictions []activity.Prediction) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Predicted activity, run %s", run.ID),
			Subtitle: fmt.Sprintf("%s/%s, %g Hz, %gs windows", run.Placement, run.ModelType, run.SamplingFreq, run.WindowSize),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Min: 0,
			Max: 4,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	xs := make([]string, len(predictions))
	ys := make([]opts.LineData, len(predictions))
	for i, p := range predictions {
		xs[i] = p.Timestamp.Format("15:04:05.000")
		ys[i] = opts.LineData{Value: activityLevel[p.Activity], Name: string(p.Activity)}
	}

	line.SetXAxis(xs).AddSeries("activity", ys)
	return line
}

// totalsBar plots seconds spent per activity.
func totalsBar(totals []db.ActivityTotal) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Seconds per activity"}),
	)

	xs := make([]string, len(totals))
	ys := make([]opts.BarData, len(totals))
	for i, t := range totals {
		xs[i] = t.Activity
		ys[i] = opts.BarData{Value: t.Seconds}
	}

	bar.SetXAxis(xs).AddSeries("seconds", ys)
	return bar
}
