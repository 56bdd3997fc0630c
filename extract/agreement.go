/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package extract

import (
	"time"

	"github.com/humaidq/baseline/biomarker"
)

// ServiceVoice is the partial record an extraction service returns for a
// transcript. Field names follow the service's wire format.
type ServiceVoice struct {
	Age              *int               `json:"age,omitempty"`
	Sex              *biomarker.Sex     `json:"sex,omitempty"`
	HeightFeet       *int               `json:"height_feet,omitempty"`
	HeightInches     *int               `json:"height_inches,omitempty"`
	WeightLbs        *float64           `json:"weight_lbs,omitempty"`
	Systolic         *int               `json:"systolic,omitempty"`
	Diastolic        *int               `json:"diastolic,omitempty"`
	WaistInches      *float64           `json:"waist_inches,omitempty"`
	HasMedications   *bool              `json:"has_medications,omitempty"`
	MedicationText   *string            `json:"medication_text,omitempty"`
	HasFamilyHistory *bool              `json:"has_family_history,omitempty"`
	HasLabs          *bool              `json:"has_labs,omitempty"`
	Labs             map[string]float64 `json:"labs,omitempty"`
}

// ServiceLab is the partial record an extraction service returns for lab
// report text.
type ServiceLab struct {
	DrawDate   *string            `json:"draw_date,omitempty"`
	Fasting    *bool              `json:"fasting,omitempty"`
	Biomarkers map[string]float64 `json:"biomarkers,omitempty"`
}

// Reconcile merges a service extraction with the deterministic one for
// the same transcript.
//
// Numeric demographics and systolic pressure are taken from the service
// only when the regex extractor also found that field. Flags, booleans
// and lab panels are taken from the service unless the regex result says
// the opposite. Lab values are always range guarded.
func Reconcile(svc ServiceVoice, regex VoiceIntake) VoiceIntake {
	var out VoiceIntake

	if svc.Age != nil && regex.Age != nil && *svc.Age >= minAge && *svc.Age <= maxAge {
		out.Age = svc.Age
	}

	if svc.Sex != nil && regex.Sex != nil {
		if sex, ok := biomarker.ParseSex(string(*svc.Sex)); ok {
			out.Sex = &sex
		}
	}

	if svc.HeightFeet != nil && regex.HeightFt != nil {
		inches := svc.HeightInches
		if inches == nil {
			inches = regex.HeightIn
		}

		if plausibleHeight(*svc.HeightFeet, inches) {
			out.HeightFt = svc.HeightFeet
			out.HeightIn = inches
		}
	}

	if svc.WeightLbs != nil && regex.Weight != nil && biomarker.Plausible(biomarker.WeightLbs, *svc.WeightLbs) {
		out.Weight = svc.WeightLbs
	}

	if svc.Systolic != nil && regex.Systolic != nil {
		diastolic := svc.Diastolic
		if diastolic == nil {
			diastolic = regex.Diastolic
		}

		if plausibleBP(*svc.Systolic, diastolic) {
			out.Systolic = svc.Systolic
			out.Diastolic = diastolic
		}
	}

	if svc.WaistInches != nil && *svc.WaistInches >= 20 && *svc.WaistInches <= 60 {
		out.Waist = svc.WaistInches
	}

	if svc.HasLabs != nil {
		if !*svc.HasLabs && !regex.HasLabs {
			out.NoLabs = true
		}
		if *svc.HasLabs && !regex.NoLabs {
			out.HasLabs = true
		}
	}

	if svc.HasMedications != nil {
		contradicted := regex.HasMedications != nil && *regex.HasMedications != *svc.HasMedications
		if !contradicted {
			out.HasMedications = svc.HasMedications
			out.MedicationText = svc.MedicationText
		}
	}

	if svc.HasFamilyHistory != nil {
		if regex.FamilyHistory != nil {
			out.FamilyHistory = regex.FamilyHistory
		} else {
			out.FamilyHistory = svc.HasFamilyHistory
		}
	}

	labs := make(map[biomarker.Metric]float64, len(regex.Labs)+len(svc.Labs))
	for metric, v := range regex.Labs {
		labs[metric] = v
	}
	for metric, v := range serviceLabs(svc.Labs) {
		labs[metric] = v
	}
	if len(labs) > 0 {
		out.Labs = labs
	}

	return out
}

func plausibleHeight(feet int, inches *int) bool {
	if feet < 4 || feet > 7 {
		return false
	}

	return inches == nil || (*inches >= 0 && *inches <= 11)
}

// A reading needs both sides, each in range, with systolic above diastolic.
func plausibleBP(systolic int, diastolic *int) bool {
	if diastolic == nil {
		return false
	}

	return biomarker.Plausible(biomarker.Systolic, float64(systolic)) &&
		biomarker.Plausible(biomarker.Diastolic, float64(*diastolic)) &&
		systolic > *diastolic
}

// ReconcileLab merges a service lab extraction into a local report.
// Service values win for metrics both found. Draw date and fasting state
// are filled from the service only when the local report has none.
func ReconcileLab(svc ServiceLab, local LabReport) LabReport {
	out := LabReport{
		Results:   make(map[biomarker.Metric]LabResult, len(local.Results)+len(svc.Biomarkers)),
		DrawDate:  local.DrawDate,
		Fasting:   local.Fasting,
		Unmatched: local.Unmatched,
	}

	for metric, r := range local.Results {
		out.Results[metric] = r
	}

	for metric, v := range serviceLabs(svc.Biomarkers) {
		r, ok := out.Results[metric]
		if !ok {
			r = LabResult{Metric: metric, Unit: metric.DefaultUnit()}
		}
		r.Value = v
		out.Results[metric] = r
	}

	if out.DrawDate == nil && svc.DrawDate != nil {
		if d, err := time.Parse(time.DateOnly, *svc.DrawDate); err == nil {
			out.DrawDate = &d
		} else {
			logger.Debug("Ignoring unparseable service draw date", "draw_date", *svc.DrawDate)
		}
	}

	if out.Fasting == nil {
		out.Fasting = svc.Fasting
	}

	return out
}

// serviceLabs keeps known metrics with plausible values.
func serviceLabs(raw map[string]float64) map[biomarker.Metric]float64 {
	labs := make(map[biomarker.Metric]float64, len(raw))

	for key, v := range raw {
		metric, ok := biomarker.ParseMetric(key)
		if !ok {
			logger.Debug("Dropping unknown service metric", "metric", key)
			continue
		}

		if !biomarker.Plausible(metric, v) {
			logger.Debug("Dropping implausible service value", "metric", metric)
			continue
		}

		labs[metric] = v
	}

	return labs
}

// ToServiceVoice renders a local extraction in the service wire format.
func (v VoiceIntake) ToServiceVoice() ServiceVoice {
	out := ServiceVoice{
		Age:              v.Age,
		Sex:              v.Sex,
		HeightFeet:       v.HeightFt,
		HeightInches:     v.HeightIn,
		WeightLbs:        v.Weight,
		Systolic:         v.Systolic,
		Diastolic:        v.Diastolic,
		WaistInches:      v.Waist,
		HasMedications:   v.HasMedications,
		MedicationText:   v.MedicationText,
		HasFamilyHistory: v.FamilyHistory,
	}

	switch {
	case v.NoLabs:
		out.HasLabs = biomarker.Ptr(false)
	case v.HasLabs:
		out.HasLabs = biomarker.Ptr(true)
	}

	if len(v.Labs) > 0 {
		out.Labs = make(map[string]float64, len(v.Labs))
		for metric, value := range v.Labs {
			out.Labs[string(metric)] = value
		}
	}

	return out
}

// ToServiceLab renders a local lab report in the service wire format.
func (r LabReport) ToServiceLab() ServiceLab {
	out := ServiceLab{Fasting: r.Fasting}

	if r.DrawDate != nil {
		out.DrawDate = biomarker.Ptr(r.DrawDate.Format(time.DateOnly))
	}

	if len(r.Results) > 0 {
		out.Biomarkers = make(map[string]float64, len(r.Results))
		for metric, res := range r.Results {
			out.Biomarkers[string(metric)] = res.Value
		}
	}

	return out
}
