/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package score

import (
	"time"

	"github.com/humaidq/baseline/biomarker"
)

// Window is a freshness plateau and decay end, in months.
type Window struct {
	Fresh float64
	Stale float64
}

// Undated observations get half credit.
const undatedFreshness = 0.5

var freshnessWindows = map[biomarker.Metric]Window{
	// ===== LABS =====
	biomarker.ApoB:           {6, 12},
	biomarker.LDL:            {6, 12},
	biomarker.HDL:            {6, 12},
	biomarker.Triglycerides:  {3, 9},
	biomarker.FastingGlucose: {3, 9},
	biomarker.FastingInsulin: {3, 9},
	biomarker.HbA1c:          {6, 12},
	biomarker.LpA:            {120, 240}, // genetic, effectively lifetime
	biomarker.HsCRP:          {6, 12},
	biomarker.TSH:            {6, 12},
	biomarker.VitaminD:       {4, 10},
	biomarker.Ferritin:       {6, 12},
	biomarker.Hemoglobin:     {12, 24},
	biomarker.ALT:            {6, 12},
	biomarker.GGT:            {6, 12},
	biomarker.WBC:            {12, 24},
	biomarker.Platelets:      {12, 24},
	biomarker.Systolic:       {3, 6},
	biomarker.Diastolic:      {3, 6},

	// ===== WEARABLES =====
	biomarker.RestingHR:             {0.5, 1},
	biomarker.SleepDurationAvg:      {0.5, 1},
	biomarker.SleepRegularityStddev: {0.5, 1},
	biomarker.DailyStepsAvg:         {1, 2},
	biomarker.VO2Max:                {1, 3},
	biomarker.HRVRMSSDAvg:           {0.5, 1},

	// ===== MANUAL =====
	biomarker.HasFamilyHistory:   {120, 240},
	biomarker.HasMedicationList:  {3, 6},
	biomarker.WaistCircumference: {3, 6},
	biomarker.WeightLbs:          {1, 3},
	biomarker.Zone2MinPerWeek:    {1, 3},
	biomarker.PHQ9Score:          {3, 6},
	biomarker.SmokingStatus:      {6, 12},
}

// FreshnessWindow returns the window for a metric.
func FreshnessWindow(metric biomarker.Metric) (Window, bool) {
	w, ok := freshnessWindows[metric]
	return w, ok
}

// MonthsBetween counts calendar months from a to b, with the day
// difference as a fraction of a 30-day month.
func MonthsBetween(a, b time.Time) float64 {
	return float64(b.Year()-a.Year())*12 +
		float64(b.Month()-a.Month()) +
		float64(b.Day()-a.Day())/30
}

// Freshness is 1 until the fresh mark, 0 from the stale mark, and linear
// in between. Metrics without a window get full credit.
func Freshness(metric biomarker.Metric, date *time.Time, now time.Time) float64 {
	if date == nil {
		return undatedFreshness
	}

	w, ok := freshnessWindows[metric]
	if !ok {
		return 1
	}

	months := MonthsBetween(*date, now)

	switch {
	case months <= w.Fresh:
		return 1
	case months >= w.Stale:
		return 0
	default:
		return 1 - (months-w.Fresh)/(w.Stale-w.Fresh)
	}
}

var fastingSensitive = map[biomarker.Metric]bool{
	biomarker.Triglycerides:  true,
	biomarker.FastingGlucose: true,
	biomarker.FastingInsulin: true,
}

// Reliability discounts measurements known to be noisy. obs is newest
// first.
func Reliability(metric biomarker.Metric, obs []biomarker.Observation, imports []biomarker.Import) float64 {
	if metric == biomarker.HsCRP {
		if len(obs) >= 2 {
			return 1
		}

		return 0.6
	}

	if fastingSensitive[metric] && len(obs) > 0 && obs[0].ImportID != nil {
		for _, imp := range imports {
			if imp.ID == *obs[0].ImportID && imp.Fasting != nil && !*imp.Fasting {
				return 0.7
			}
		}
	}

	return 1
}
