/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

// Range is an inclusive plausible physiological range.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// rangeGuards filter out supplement doses, phone numbers and reference
// range bounds picked up instead of the actual result.
var rangeGuards = map[Metric]Range{
	ApoB:             {20, 300},
	LDL:              {20, 400},
	HDL:              {10, 150},
	Triglycerides:    {20, 1000},
	TotalCholesterol: {50, 500},
	FastingGlucose:   {30, 500},
	HbA1c:            {3, 15},
	FastingInsulin:   {0.5, 100},
	LpA:              {1, 500},
	HsCRP:            {0.01, 50},
	TSH:              {0.01, 20},
	VitaminD:         {4, 150}, // ng/mL, not a 5000 IU dose
	Ferritin:         {1, 1000},
	ALT:              {3, 300},
	AST:              {3, 300},
	GGT:              {3, 500},
	Hemoglobin:       {5, 22},
	WBC:              {1, 30},
	Platelets:        {50, 600},
	Creatinine:       {0.1, 15},

	Systolic:           {70, 220},
	Diastolic:          {40, 130},
	WeightLbs:          {60, 600},
	WaistCircumference: {20, 70},
}

// Guard returns the range guard for a metric, if one is defined.
func Guard(m Metric) (Range, bool) {
	r, ok := rangeGuards[m]
	return r, ok
}

// Plausible reports whether v passes the metric's range guard. Metrics
// without a guard accept any value.
func Plausible(m Metric, v float64) bool {
	r, ok := rangeGuards[m]
	if !ok {
		return true
	}

	return r.Contains(v)
}

// FilterPlausible returns a copy of values without entries that fail
// their range guard.
func FilterPlausible(values map[Metric]float64) map[Metric]float64 {
	out := make(map[Metric]float64, len(values))
	for m, v := range values {
		if Plausible(m, v) {
			out[m] = v
		}
	}

	return out
}
