/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package reference

import "github.com/humaidq/baseline/biomarker"

// Table keys shared by the percentile curves and cutoff tables.
const (
	KeyBPSystolic      Key = "bp_systolic"
	KeyBPDiastolic     Key = "bp_diastolic"
	KeyLDL             Key = "ldl_c"
	KeyHDL             Key = "hdl_c"
	KeyApoB            Key = "apob"
	KeyTriglycerides   Key = "triglycerides"
	KeyFastingGlucose  Key = "fasting_glucose"
	KeyHbA1c           Key = "hba1c"
	KeyFastingInsulin  Key = "fasting_insulin"
	KeyRHR             Key = "rhr"
	KeyDailySteps      Key = "daily_steps"
	KeyWaist           Key = "waist"
	KeyLpA             Key = "lpa"
	KeySleepRegularity Key = "sleep_regularity"
	KeyHsCRP           Key = "hscrp"
	KeyALT             Key = "alt"
	KeyGGT             Key = "ggt"
	KeyTSH             Key = "tsh"
	KeyVitaminD        Key = "vitamin_d"
	KeyFerritin        Key = "ferritin"
	KeyHemoglobin      Key = "hemoglobin"
	KeyVO2Max          Key = "vo2_max"
	KeyHRV             Key = "hrv_rmssd"
)

// CutoffDefinition is four ascending thresholds for one table group.
// The thresholds split values into five standing bands.
type CutoffDefinition struct {
	Key        Key
	Group      string
	Thresholds [4]float64
}

// CutoffTable is the set of thresholds for one key.
type CutoffTable struct {
	Key           Key
	LowerIsBetter bool
	Groups        map[string][4]float64
}

// Thresholds returns the thresholds for bucket|sex, falling back to the
// universal group.
func (t CutoffTable) Thresholds(bucket string, sex biomarker.Sex) ([4]float64, bool) {
	if th, ok := t.Groups[bucket+"|"+string(sex)]; ok {
		return th, true
	}

	th, ok := t.Groups[UniversalGroup]

	return th, ok
}

// higherIsBetter lists the cutoff keys whose direction is reversed.
var higherIsBetter = map[Key]bool{
	KeyHDL:        true,
	KeyDailySteps: true,
	KeyVitaminD:   true,
	KeyFerritin:   true,
	KeyHemoglobin: true,
	KeyVO2Max:     true,
	KeyHRV:        true,
}

// GetCutoffDefinitions returns every fallback cutoff row. Thresholds come
// from AHA/ACC, ADA, ACSM and published cohort data.
func GetCutoffDefinitions() []CutoffDefinition {
	return []CutoffDefinition{
		// ===== BLOOD PRESSURE (mmHg) =====
		{Key: KeyBPSystolic, Group: "30-39|M", Thresholds: [4]float64{110, 120, 130, 140}},
		{Key: KeyBPSystolic, Group: "30-39|F", Thresholds: [4]float64{110, 120, 130, 140}},
		{Key: KeyBPSystolic, Group: "40-49|M", Thresholds: [4]float64{115, 125, 135, 145}},
		{Key: KeyBPSystolic, Group: "50-59|M", Thresholds: [4]float64{120, 130, 140, 150}},
		{Key: KeyBPDiastolic, Group: "30-39|M", Thresholds: [4]float64{70, 80, 85, 90}},
		{Key: KeyBPDiastolic, Group: "30-39|F", Thresholds: [4]float64{70, 80, 85, 90}},

		// ===== LIPIDS (mg/dL) =====
		{Key: KeyLDL, Group: "30-39|M", Thresholds: [4]float64{80, 100, 130, 160}},
		{Key: KeyLDL, Group: "30-39|F", Thresholds: [4]float64{80, 100, 130, 160}},
		// HDL: higher is better
		{Key: KeyHDL, Group: "30-39|M", Thresholds: [4]float64{35, 40, 50, 60}},
		{Key: KeyHDL, Group: "30-39|F", Thresholds: [4]float64{40, 50, 60, 70}},
		{Key: KeyApoB, Group: UniversalGroup, Thresholds: [4]float64{70, 90, 110, 130}},
		{Key: KeyTriglycerides, Group: "30-39|M", Thresholds: [4]float64{75, 100, 150, 200}},
		{Key: KeyTriglycerides, Group: "30-39|F", Thresholds: [4]float64{75, 100, 150, 200}},
		{Key: KeyLpA, Group: UniversalGroup, Thresholds: [4]float64{30, 75, 125, 200}}, // nmol/L

		// ===== METABOLIC =====
		{Key: KeyFastingGlucose, Group: "30-39|M", Thresholds: [4]float64{88, 95, 100, 113}},
		{Key: KeyFastingGlucose, Group: "30-39|F", Thresholds: [4]float64{88, 95, 100, 113}},
		{Key: KeyHbA1c, Group: "30-39|M", Thresholds: [4]float64{5.0, 5.2, 5.6, 6.0}},
		{Key: KeyHbA1c, Group: "30-39|F", Thresholds: [4]float64{5.0, 5.2, 5.6, 6.0}},
		{Key: KeyFastingInsulin, Group: "30-39|M", Thresholds: [4]float64{5, 8, 12, 19}},
		{Key: KeyFastingInsulin, Group: "30-39|F", Thresholds: [4]float64{5, 8, 12, 19}},

		// ===== VITALS & BODY =====
		{Key: KeyRHR, Group: "30-39|M", Thresholds: [4]float64{58, 65, 74, 85}},
		{Key: KeyRHR, Group: "30-39|F", Thresholds: [4]float64{60, 68, 76, 88}},
		{Key: KeyWaist, Group: "30-39|M", Thresholds: [4]float64{33, 35, 38, 41}},
		{Key: KeyWaist, Group: "30-39|F", Thresholds: [4]float64{28, 31, 35, 38}},

		// ===== WEARABLES =====
		// Steps: higher is better
		{Key: KeyDailySteps, Group: UniversalGroup, Thresholds: [4]float64{4000, 6000, 8000, 10000}},
		// Bedtime standard deviation in minutes
		{Key: KeySleepRegularity, Group: UniversalGroup, Thresholds: [4]float64{15, 30, 45, 60}},

		// VO2 max (mL/kg/min): higher is better
		{Key: KeyVO2Max, Group: "20-29|M", Thresholds: [4]float64{35, 40, 46, 52}},
		{Key: KeyVO2Max, Group: "30-39|M", Thresholds: [4]float64{33, 38, 44, 50}},
		{Key: KeyVO2Max, Group: "40-49|M", Thresholds: [4]float64{31, 36, 42, 48}},
		{Key: KeyVO2Max, Group: "50-59|M", Thresholds: [4]float64{28, 33, 39, 45}},
		{Key: KeyVO2Max, Group: "60-69|M", Thresholds: [4]float64{24, 29, 35, 41}},
		{Key: KeyVO2Max, Group: "70+|M", Thresholds: [4]float64{20, 25, 31, 37}},
		{Key: KeyVO2Max, Group: "20-29|F", Thresholds: [4]float64{30, 35, 40, 46}},
		{Key: KeyVO2Max, Group: "30-39|F", Thresholds: [4]float64{28, 33, 38, 44}},
		{Key: KeyVO2Max, Group: "40-49|F", Thresholds: [4]float64{25, 30, 35, 41}},
		{Key: KeyVO2Max, Group: "50-59|F", Thresholds: [4]float64{22, 27, 32, 38}},
		{Key: KeyVO2Max, Group: "60-69|F", Thresholds: [4]float64{19, 24, 29, 35}},
		{Key: KeyVO2Max, Group: "70+|F", Thresholds: [4]float64{16, 21, 26, 32}},

		// HRV RMSSD (ms): higher is better, same for both sexes
		{Key: KeyHRV, Group: "20-29|M", Thresholds: [4]float64{18, 25, 40, 60}},
		{Key: KeyHRV, Group: "30-39|M", Thresholds: [4]float64{15, 22, 35, 55}},
		{Key: KeyHRV, Group: "40-49|M", Thresholds: [4]float64{12, 18, 28, 45}},
		{Key: KeyHRV, Group: "50-59|M", Thresholds: [4]float64{10, 15, 22, 38}},
		{Key: KeyHRV, Group: "60-69|M", Thresholds: [4]float64{8, 12, 18, 30}},
		{Key: KeyHRV, Group: "70+|M", Thresholds: [4]float64{6, 10, 15, 25}},
		{Key: KeyHRV, Group: "20-29|F", Thresholds: [4]float64{18, 25, 40, 60}},
		{Key: KeyHRV, Group: "30-39|F", Thresholds: [4]float64{15, 22, 35, 55}},
		{Key: KeyHRV, Group: "40-49|F", Thresholds: [4]float64{12, 18, 28, 45}},
		{Key: KeyHRV, Group: "50-59|F", Thresholds: [4]float64{10, 15, 22, 38}},
		{Key: KeyHRV, Group: "60-69|F", Thresholds: [4]float64{8, 12, 18, 30}},
		{Key: KeyHRV, Group: "70+|F", Thresholds: [4]float64{6, 10, 15, 25}},

		// ===== INFLAMMATION & LIVER =====
		{Key: KeyHsCRP, Group: "30-39|M", Thresholds: [4]float64{0.5, 1.0, 2.0, 5.0}},
		{Key: KeyHsCRP, Group: "30-39|F", Thresholds: [4]float64{0.5, 1.0, 2.0, 5.0}},
		{Key: KeyALT, Group: "30-39|M", Thresholds: [4]float64{20, 30, 44, 60}},
		{Key: KeyALT, Group: "30-39|F", Thresholds: [4]float64{15, 25, 35, 50}},
		{Key: KeyGGT, Group: "30-39|M", Thresholds: [4]float64{20, 30, 50, 80}},
		{Key: KeyGGT, Group: "30-39|F", Thresholds: [4]float64{15, 25, 40, 65}},

		// ===== THYROID, VITAMINS, IRON, CBC =====
		{Key: KeyTSH, Group: UniversalGroup, Thresholds: [4]float64{2.5, 4.0, 6.0, 10.0}},
		// Vitamin D (ng/mL): higher is better
		{Key: KeyVitaminD, Group: UniversalGroup, Thresholds: [4]float64{15, 20, 30, 40}},
		// Ferritin (ng/mL): higher is better within the scored range
		{Key: KeyFerritin, Group: "30-39|M", Thresholds: [4]float64{20, 40, 80, 150}},
		{Key: KeyFerritin, Group: "30-39|F", Thresholds: [4]float64{10, 20, 40, 80}},
		// Hemoglobin (g/dL): higher is better within the scored range
		{Key: KeyHemoglobin, Group: "30-39|M", Thresholds: [4]float64{12, 13.5, 14.5, 15.5}},
		{Key: KeyHemoglobin, Group: "30-39|F", Thresholds: [4]float64{10.5, 12, 13, 14}},
	}
}

var cutoffTables = buildCutoffTables(GetCutoffDefinitions())

func buildCutoffTables(defs []CutoffDefinition) map[Key]CutoffTable {
	tables := make(map[Key]CutoffTable)

	for _, def := range defs {
		table, ok := tables[def.Key]
		if !ok {
			table = CutoffTable{
				Key:           def.Key,
				LowerIsBetter: !higherIsBetter[def.Key],
				Groups:        make(map[string][4]float64),
			}
		}

		table.Groups[def.Group] = def.Thresholds
		tables[def.Key] = table
	}

	return tables
}

// Cutoffs returns the cutoff table for a key.
func Cutoffs(key Key) (CutoffTable, bool) {
	t, ok := cutoffTables[key]
	return t, ok
}
