/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package score

import (
	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/reference"
)

// CategoryKey identifies a scoring category.
type CategoryKey string

// Category keys.
const (
	CategoryBloodPressure    CategoryKey = "blood_pressure"
	CategoryLipids           CategoryKey = "lipid_apob"
	CategoryMetabolic        CategoryKey = "metabolic"
	CategoryFamilyHistory    CategoryKey = "family_history"
	CategorySleep            CategoryKey = "sleep"
	CategorySteps            CategoryKey = "steps"
	CategoryRestingHR        CategoryKey = "resting_hr"
	CategoryWaist            CategoryKey = "waist"
	CategoryMedications      CategoryKey = "medications"
	CategoryLpA              CategoryKey = "lpa"
	CategoryVO2Max           CategoryKey = "vo2_max"
	CategoryHRV              CategoryKey = "hrv"
	CategoryHsCRP            CategoryKey = "hscrp"
	CategoryLiver            CategoryKey = "liver"
	CategoryCBC              CategoryKey = "cbc"
	CategoryThyroid          CategoryKey = "thyroid"
	CategoryVitaminDFerritin CategoryKey = "vitamin_d_ferritin"
	CategoryWeightTrends     CategoryKey = "weight_trends"
	CategoryPHQ9             CategoryKey = "phq9"
	CategoryZone2            CategoryKey = "zone2"
)

// scoredMetric is one candidate for a category's representative value.
type scoredMetric struct {
	metric biomarker.Metric
	key    reference.Key
	unit   string
}

// Category is one fixed entry in the coverage report.
type Category struct {
	Key    CategoryKey
	Name   string
	Tier   int
	Rank   int
	Weight int

	// Metrics decide hasData: any of them with a latest value.
	Metrics []biomarker.Metric
	// Priority is tried in order; the first metric with a value is the
	// representative one. Values are never blended.
	Priority []scoredMetric
	// Presence categories score Good whenever data exists.
	Presence bool
	// Paired is appended to the unit when present (diastolic on BP).
	Paired biomarker.Metric

	CostToClose string
	GapNote     string
	// UpgradeNote is shown when the category has data but lacks
	// UpgradeMetric.
	UpgradeMetric biomarker.Metric
	UpgradeNote   string
}

var categories = []Category{
	// ===== TIER 1 =====
	{
		Key: CategoryBloodPressure, Name: "Blood Pressure", Tier: 1, Rank: 1, Weight: 8,
		Metrics:     []biomarker.Metric{biomarker.Systolic},
		Priority:    []scoredMetric{{biomarker.Systolic, reference.KeyBPSystolic, "mmHg"}},
		Paired:      biomarker.Diastolic,
		CostToClose: "$40 one-time (Omron cuff)",
		GapNote:     "Each 20 mmHg >115 SBP doubles CVD mortality",
	},
	{
		Key: CategoryLipids, Name: "Lipid Panel + ApoB", Tier: 1, Rank: 2, Weight: 8,
		Metrics: []biomarker.Metric{biomarker.ApoB, biomarker.LDL, biomarker.HDL, biomarker.Triglycerides},
		Priority: []scoredMetric{
			{biomarker.ApoB, reference.KeyApoB, "mg/dL (ApoB)"},
			{biomarker.LDL, reference.KeyLDL, "mg/dL (LDL-C)"},
		},
		CostToClose:   "$30-50/yr (Quest lipid + ApoB add-on)",
		UpgradeMetric: biomarker.ApoB,
		UpgradeNote:   "ApoB > LDL-C for risk prediction",
	},
	{
		Key: CategoryMetabolic, Name: "Metabolic Panel", Tier: 1, Rank: 3, Weight: 8,
		Metrics: []biomarker.Metric{biomarker.FastingGlucose, biomarker.HbA1c, biomarker.FastingInsulin},
		Priority: []scoredMetric{
			{biomarker.FastingInsulin, reference.KeyFastingInsulin, "µIU/mL (fasting insulin)"},
			{biomarker.HbA1c, reference.KeyHbA1c, "% (HbA1c)"},
			{biomarker.FastingGlucose, reference.KeyFastingGlucose, "mg/dL (glucose)"},
		},
		CostToClose:   "$40-60/yr (glucose + HbA1c + insulin)",
		UpgradeMetric: biomarker.FastingInsulin,
		UpgradeNote:   "Fasting insulin catches IR 10-15 yrs before diagnosis",
	},
	{
		Key: CategoryFamilyHistory, Name: "Family History", Tier: 1, Rank: 4, Weight: 6,
		Metrics:     []biomarker.Metric{biomarker.HasFamilyHistory},
		Presence:    true,
		CostToClose: "Free, 10 min conversation",
		GapNote:     "One-time. Parental CVD <60 doubles risk.",
	},
	{
		Key: CategorySleep, Name: "Sleep Regularity", Tier: 1, Rank: 5, Weight: 5,
		Metrics:     []biomarker.Metric{biomarker.SleepRegularityStddev, biomarker.SleepDurationAvg},
		Priority:    []scoredMetric{{biomarker.SleepRegularityStddev, reference.KeySleepRegularity, "min std dev"}},
		CostToClose: "Free with any wearable",
		GapNote:     "Regularity predicts mortality > duration",
	},
	{
		Key: CategorySteps, Name: "Daily Steps", Tier: 1, Rank: 6, Weight: 4,
		Metrics:     []biomarker.Metric{biomarker.DailyStepsAvg},
		Priority:    []scoredMetric{{biomarker.DailyStepsAvg, reference.KeyDailySteps, "steps/day"}},
		CostToClose: "Free with phone",
		GapNote:     "Each +1K steps = ~15% lower mortality",
	},
	{
		Key: CategoryRestingHR, Name: "Resting Heart Rate", Tier: 1, Rank: 7, Weight: 4,
		Metrics:     []biomarker.Metric{biomarker.RestingHR},
		Priority:    []scoredMetric{{biomarker.RestingHR, reference.KeyRHR, "bpm"}},
		CostToClose: "Free with wearable",
	},
	{
		Key: CategoryWaist, Name: "Waist Circumference", Tier: 1, Rank: 8, Weight: 5,
		Metrics:     []biomarker.Metric{biomarker.WaistCircumference},
		Priority:    []scoredMetric{{biomarker.WaistCircumference, reference.KeyWaist, "inches"}},
		CostToClose: "$3 tape measure",
	},
	{
		Key: CategoryMedications, Name: "Medication List", Tier: 1, Rank: 9, Weight: 4,
		Metrics:     []biomarker.Metric{biomarker.HasMedicationList},
		Presence:    true,
		CostToClose: "Free, 5 min entry",
		GapNote:     "Context for interpreting all other data",
	},
	{
		Key: CategoryLpA, Name: "Lp(a)", Tier: 1, Rank: 10, Weight: 8,
		Metrics:     []biomarker.Metric{biomarker.LpA},
		Priority:    []scoredMetric{{biomarker.LpA, reference.KeyLpA, "nmol/L"}},
		CostToClose: "$30, once in your lifetime",
		GapNote:     "20% of people have elevated Lp(a), invisible on standard panels",
	},

	// ===== TIER 2 =====
	{
		Key: CategoryVO2Max, Name: "VO2 Max", Tier: 2, Rank: 11, Weight: 5,
		Metrics:     []biomarker.Metric{biomarker.VO2Max},
		Priority:    []scoredMetric{{biomarker.VO2Max, reference.KeyVO2Max, "mL/kg/min"}},
		CostToClose: "Free with Garmin/Apple Watch (estimate)",
		GapNote:     "Strongest modifiable predictor of all-cause mortality",
	},
	{
		Key: CategoryHRV, Name: "HRV (7-day avg)", Tier: 2, Rank: 12, Weight: 2,
		Metrics:     []biomarker.Metric{biomarker.HRVRMSSDAvg},
		Priority:    []scoredMetric{{biomarker.HRVRMSSDAvg, reference.KeyHRV, "ms RMSSD"}},
		CostToClose: "Free with wearable",
		GapNote:     "Use 7-day rolling avg, not single readings",
	},
	{
		Key: CategoryHsCRP, Name: "hs-CRP", Tier: 2, Rank: 13, Weight: 3,
		Metrics:     []biomarker.Metric{biomarker.HsCRP},
		Priority:    []scoredMetric{{biomarker.HsCRP, reference.KeyHsCRP, "mg/L"}},
		CostToClose: "$20/year (add to lab order)",
		GapNote:     "Adds CVD risk stratification beyond lipids",
	},
	{
		Key: CategoryLiver, Name: "Liver Enzymes", Tier: 2, Rank: 14, Weight: 2,
		Metrics: []biomarker.Metric{biomarker.ALT, biomarker.GGT},
		Priority: []scoredMetric{
			{biomarker.GGT, reference.KeyGGT, "U/L (GGT)"},
			{biomarker.ALT, reference.KeyALT, "U/L (ALT)"},
		},
		CostToClose: "Usually included in standard panels",
		GapNote:     "GGT independently predicts CV mortality + diabetes",
	},
	{
		Key: CategoryCBC, Name: "CBC", Tier: 2, Rank: 15, Weight: 2,
		Metrics:     []biomarker.Metric{biomarker.Hemoglobin, biomarker.WBC, biomarker.Platelets},
		Priority:    []scoredMetric{{biomarker.Hemoglobin, reference.KeyHemoglobin, "g/dL (Hgb)"}},
		CostToClose: "Usually included in standard panels",
		GapNote:     "Safety net screening. RDW predicts all-cause mortality",
	},
	{
		Key: CategoryThyroid, Name: "Thyroid (TSH)", Tier: 2, Rank: 16, Weight: 2,
		Metrics:     []biomarker.Metric{biomarker.TSH},
		Priority:    []scoredMetric{{biomarker.TSH, reference.KeyTSH, "mIU/L"}},
		CostToClose: "$20/year",
		GapNote:     "12% lifetime prevalence. Highly treatable.",
	},
	{
		Key: CategoryVitaminDFerritin, Name: "Vitamin D + Ferritin", Tier: 2, Rank: 17, Weight: 3,
		Metrics: []biomarker.Metric{biomarker.VitaminD, biomarker.Ferritin},
		Priority: []scoredMetric{
			{biomarker.VitaminD, reference.KeyVitaminD, "ng/mL (Vit D)"},
			{biomarker.Ferritin, reference.KeyFerritin, "ng/mL (Ferritin)"},
		},
		CostToClose: "$40-60 baseline lab add-on",
		GapNote:     "42% of US adults Vit D deficient. Cheap to fix.",
	},
	{
		Key: CategoryWeightTrends, Name: "Weight Trends", Tier: 2, Rank: 18, Weight: 2,
		Metrics:     []biomarker.Metric{biomarker.WeightLbs},
		Presence:    true,
		CostToClose: "$20-50 (smart scale)",
		GapNote:     "Progressive drift is the signal, not absolute weight",
	},
	{
		Key: CategoryPHQ9, Name: "PHQ-9 (Depression)", Tier: 2, Rank: 19, Weight: 2,
		Metrics:     []biomarker.Metric{biomarker.PHQ9Score},
		Presence:    true,
		CostToClose: "Free, 3 min questionnaire",
		GapNote:     "Depression independently raises CVD risk 80%",
	},
	{
		Key: CategoryZone2, Name: "Zone 2 Cardio", Tier: 2, Rank: 20, Weight: 2,
		Metrics:     []biomarker.Metric{biomarker.Zone2MinPerWeek},
		Presence:    true,
		CostToClose: "Free with HR wearable",
		GapNote:     "150-300 min/week = largest mortality reduction",
	},
}

// metricCategory maps each scored metric to the category it feeds.
var metricCategory = map[biomarker.Metric]CategoryKey{
	biomarker.Systolic:              CategoryBloodPressure,
	biomarker.Diastolic:             CategoryBloodPressure,
	biomarker.ApoB:                  CategoryLipids,
	biomarker.LDL:                   CategoryLipids,
	biomarker.HDL:                   CategoryLipids,
	biomarker.Triglycerides:         CategoryLipids,
	biomarker.FastingGlucose:        CategoryMetabolic,
	biomarker.HbA1c:                 CategoryMetabolic,
	biomarker.FastingInsulin:        CategoryMetabolic,
	biomarker.HasFamilyHistory:      CategoryFamilyHistory,
	biomarker.SleepDurationAvg:      CategorySleep,
	biomarker.SleepRegularityStddev: CategorySleep,
	biomarker.DailyStepsAvg:         CategorySteps,
	biomarker.RestingHR:             CategoryRestingHR,
	biomarker.WaistCircumference:    CategoryWaist,
	biomarker.HasMedicationList:     CategoryMedications,
	biomarker.LpA:                   CategoryLpA,
	biomarker.VO2Max:                CategoryVO2Max,
	biomarker.HRVRMSSDAvg:           CategoryHRV,
	biomarker.HsCRP:                 CategoryHsCRP,
	biomarker.ALT:                   CategoryLiver,
	biomarker.GGT:                   CategoryLiver,
	biomarker.Hemoglobin:            CategoryCBC,
	biomarker.WBC:                   CategoryCBC,
	biomarker.Platelets:             CategoryCBC,
	biomarker.TSH:                   CategoryThyroid,
	biomarker.VitaminD:              CategoryVitaminDFerritin,
	biomarker.Ferritin:              CategoryVitaminDFerritin,
	biomarker.WeightLbs:             CategoryWeightTrends,
	biomarker.PHQ9Score:             CategoryPHQ9,
	biomarker.Zone2MinPerWeek:       CategoryZone2,
}

// Categories returns the fixed category list in rank order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)

	return out
}

// CategoryFor returns the category a metric contributes to.
func CategoryFor(metric biomarker.Metric) (CategoryKey, bool) {
	key, ok := metricCategory[metric]
	return key, ok
}

// ReferenceKey returns the reference table a metric is assessed against.
func ReferenceKey(metric biomarker.Metric) (reference.Key, bool) {
	if metric == biomarker.Diastolic {
		return reference.KeyBPDiastolic, true
	}

	for _, c := range categories {
		for _, sm := range c.Priority {
			if sm.metric == metric {
				return sm.key, true
			}
		}
	}

	return "", false
}

func tierTotals() (t1, t2 int) {
	for _, c := range categories {
		if c.Tier == 1 {
			t1 += c.Weight
		} else {
			t2 += c.Weight
		}
	}

	return t1, t2
}
