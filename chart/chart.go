/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package chart renders metric history as HTML line charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/reference"
	"github.com/humaidq/baseline/score"
)

// ErrNoData is returned when a metric has no dated observations.
var ErrNoData = errors.New("no dated observations to chart")

// bandEdges names the band each threshold opens, lowest threshold first,
// for tables where lower values are better.
var bandEdges = [4]string{"Optimal", "Good", "Average", "Below Average"}

// Trend renders a metric's dated observations, oldest first. When demo
// is set and the metric has a cutoff table, the band thresholds for the
// subject's group are drawn as dashed mark lines.
func Trend(metric biomarker.Metric, obs []biomarker.Observation, demo *biomarker.Demographics) (string, error) {
	dated := make([]biomarker.Observation, 0, len(obs))
	for _, o := range obs {
		if o.Date != nil && o.Metric == metric {
			dated = append(dated, o)
		}
	}

	if len(dated) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoData, metric)
	}

	slices.SortStableFunc(dated, func(a, b biomarker.Observation) int {
		return a.Date.Compare(*b.Date)
	})

	xAxis := make([]string, 0, len(dated))
	yData := make([]opts.LineData, 0, len(dated))

	for _, o := range dated {
		xAxis = append(xAxis, o.Date.Format("Jan 2, 2006"))
		yData = append(yData, opts.LineData{Value: o.Value})
	}

	title := metric.Label()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "320px",
			ChartID: "baseline_trend_" + string(metric),
		}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  metric.DefaultUnit(),
			Scale: opts.Bool(true),
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
	}

	if items := bandLines(metric, demo); len(items) > 0 {
		seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
			s.MarkLines = &opts.MarkLines{
				Data: items,
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(128, 128, 128, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(title, yData).
		SetSeriesOptions(seriesOpts...)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return buf.String(), nil
}

// bandLines returns the cutoff thresholds for the subject's group as
// mark line items.
func bandLines(metric biomarker.Metric, demo *biomarker.Demographics) []interface{} {
	if demo == nil {
		return nil
	}

	key, ok := score.ReferenceKey(metric)
	if !ok {
		return nil
	}

	table, ok := reference.Cutoffs(key)
	if !ok {
		return nil
	}

	th, ok := table.Thresholds(biomarker.AgeBucket(demo.Age), demo.Sex)
	if !ok {
		return nil
	}

	items := make([]interface{}, 0, len(th))
	for i, v := range th {
		name := bandEdges[i]
		if !table.LowerIsBetter {
			name = bandEdges[len(th)-1-i]
		}

		items = append(items, opts.MarkLineNameYAxisItem{Name: name, YAxis: v})
	}

	return items
}

// Since keeps observations dated on or after t. Undated observations are
// dropped.
func Since(obs []biomarker.Observation, t time.Time) []biomarker.Observation {
	out := make([]biomarker.Observation, 0, len(obs))
	for _, o := range obs {
		if o.Date != nil && !o.Date.Before(t) {
			out = append(out, o)
		}
	}

	return out
}
