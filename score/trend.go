/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package score

import (
	"math"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

// Direction of a trend.
type Direction string

// Directions.
const (
	Stable  Direction = "stable"
	Rising  Direction = "rising"
	Falling Direction = "falling"
)

const defaultRCV = 20.0

// Reference change values in percent: the smallest change that exceeds
// combined biological and analytical variation.
var rcvThresholds = map[biomarker.Metric]float64{
	biomarker.ApoB:           15,
	biomarker.LDL:            23,
	biomarker.HDL:            20,
	biomarker.Triglycerides:  35,
	biomarker.FastingGlucose: 14,
	biomarker.FastingInsulin: 40,
	biomarker.HbA1c:          9,
	biomarker.HsCRP:          120,
	biomarker.TSH:            30,
	biomarker.VitaminD:       25,
	biomarker.Ferritin:       30,
	biomarker.Hemoglobin:     8,
	biomarker.ALT:            35,
	biomarker.GGT:            28,
	biomarker.RestingHR:      12,
	biomarker.WeightLbs:      5,
}

// TrendPoint is one end of a trend.
type TrendPoint struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// Trend compares the newest and oldest observation of a metric.
type Trend struct {
	Metric      biomarker.Metric `json:"metric"`
	Direction   Direction        `json:"direction"`
	PctChange   float64          `json:"pctChange"`
	Significant bool             `json:"significant"`
	SpanMonths  int              `json:"spanMonths"`
	DataPoints  int              `json:"dataPoints"`
	Newest      TrendPoint       `json:"newest"`
	Oldest      TrendPoint       `json:"oldest"`
}

// DetectTrend returns nil unless there are two observations whose ends
// are both dated. obs is newest first.
func DetectTrend(metric biomarker.Metric, obs []biomarker.Observation) *Trend {
	if len(obs) < 2 {
		return nil
	}

	newest, oldest := obs[0], obs[len(obs)-1]
	if newest.Date == nil || oldest.Date == nil || oldest.Value == 0 {
		return nil
	}

	change := (newest.Value - oldest.Value) / oldest.Value * 100

	rcv, ok := rcvThresholds[metric]
	if !ok {
		rcv = defaultRCV
	}

	direction := Stable
	switch {
	case math.Abs(change) < 2:
	case change > 0:
		direction = Rising
	default:
		direction = Falling
	}

	return &Trend{
		Metric:      metric,
		Direction:   direction,
		PctChange:   math.Round(change*10) / 10,
		Significant: math.Abs(change) >= rcv,
		SpanMonths:  int(math.Round(MonthsBetween(*oldest.Date, *newest.Date))),
		DataPoints:  len(obs),
		Newest:      TrendPoint{Value: newest.Value, Date: *newest.Date},
		Oldest:      TrendPoint{Value: oldest.Value, Date: *oldest.Date},
	}
}
