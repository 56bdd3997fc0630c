/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

// Metric is the canonical key of one measurable health quantity.
type Metric string

// Lab metrics.
const (
	ApoB              Metric = "apob"
	LDL               Metric = "ldl_c"
	HDL               Metric = "hdl_c"
	Triglycerides     Metric = "triglycerides"
	TotalCholesterol  Metric = "total_cholesterol"
	FastingGlucose    Metric = "fasting_glucose"
	HbA1c             Metric = "hba1c"
	FastingInsulin    Metric = "fasting_insulin"
	LpA               Metric = "lpa"
	HsCRP             Metric = "hscrp"
	TSH               Metric = "tsh"
	FreeT4            Metric = "free_t4"
	FreeT3            Metric = "free_t3"
	VitaminD          Metric = "vitamin_d"
	Ferritin          Metric = "ferritin"
	ALT               Metric = "alt"
	AST               Metric = "ast"
	ALP               Metric = "alp"
	GGT               Metric = "ggt"
	WBC               Metric = "wbc"
	RBC               Metric = "rbc"
	Hemoglobin        Metric = "hemoglobin"
	Hematocrit        Metric = "hematocrit"
	Platelets         Metric = "platelets"
	RDW               Metric = "rdw"
	Creatinine        Metric = "creatinine"
	EGFR              Metric = "egfr"
	BUN               Metric = "bun"
	TestosteroneTotal Metric = "testosterone_total"
	TestosteroneFree  Metric = "testosterone_free"
	Homocysteine      Metric = "homocysteine"
	VitaminB12        Metric = "vitamin_b12"
	Folate            Metric = "folate"
	Iron              Metric = "iron"
	TIBC              Metric = "tibc"
	DHEAS             Metric = "dhea_s"
	Cortisol          Metric = "cortisol"
	UricAcid          Metric = "uric_acid"
)

// Vitals, wearable summaries and intake answers.
const (
	Systolic              Metric = "systolic"
	Diastolic             Metric = "diastolic"
	RestingHR             Metric = "resting_hr"
	DailyStepsAvg         Metric = "daily_steps_avg"
	SleepDurationAvg      Metric = "sleep_duration_avg"
	SleepRegularityStddev Metric = "sleep_regularity_stddev"
	VO2Max                Metric = "vo2_max"
	HRVRMSSDAvg           Metric = "hrv_rmssd_avg"
	Zone2MinPerWeek       Metric = "zone2_min_per_week"
	WaistCircumference    Metric = "waist_circumference"
	WeightLbs             Metric = "weight_lbs"
	HasFamilyHistory      Metric = "has_family_history"
	HasMedicationList     Metric = "has_medication_list"
	PHQ9Score             Metric = "phq9_score"
	SmokingStatus         Metric = "smoking_status"
)

type metricInfo struct {
	label string
	unit  string
}

var metricInfos = map[Metric]metricInfo{
	ApoB:              {"ApoB", "mg/dL"},
	LDL:               {"LDL-C", "mg/dL"},
	HDL:               {"HDL-C", "mg/dL"},
	Triglycerides:     {"Triglycerides", "mg/dL"},
	TotalCholesterol:  {"Total Cholesterol", "mg/dL"},
	FastingGlucose:    {"Fasting Glucose", "mg/dL"},
	HbA1c:             {"HbA1c", "%"},
	FastingInsulin:    {"Fasting Insulin", "µIU/mL"},
	LpA:               {"Lp(a)", "nmol/L"},
	HsCRP:             {"hs-CRP", "mg/L"},
	TSH:               {"TSH", "µIU/mL"},
	FreeT4:            {"Free T4", "ng/dL"},
	FreeT3:            {"Free T3", "pg/mL"},
	VitaminD:          {"Vitamin D", "ng/mL"},
	Ferritin:          {"Ferritin", "ng/mL"},
	ALT:               {"ALT", "IU/L"},
	AST:               {"AST", "IU/L"},
	ALP:               {"Alk Phos", "IU/L"},
	GGT:               {"GGT", "IU/L"},
	WBC:               {"WBC", "x10E3/uL"},
	RBC:               {"RBC", "x10E6/uL"},
	Hemoglobin:        {"Hemoglobin", "g/dL"},
	Hematocrit:        {"Hematocrit", "%"},
	Platelets:         {"Platelets", "x10E3/uL"},
	RDW:               {"RDW", "%"},
	Creatinine:        {"Creatinine", "mg/dL"},
	EGFR:              {"eGFR", "mL/min/1.73m2"},
	BUN:               {"BUN", "mg/dL"},
	TestosteroneTotal: {"Testosterone (Total)", "ng/dL"},
	TestosteroneFree:  {"Testosterone (Free)", "pg/mL"},
	Homocysteine:      {"Homocysteine", "µmol/L"},
	VitaminB12:        {"Vitamin B12", "pg/mL"},
	Folate:            {"Folate", "ng/mL"},
	Iron:              {"Iron", "µg/dL"},
	TIBC:              {"TIBC", "µg/dL"},
	DHEAS:             {"DHEA-S", "µg/dL"},
	Cortisol:          {"Cortisol", "µg/dL"},
	UricAcid:          {"Uric Acid", "mg/dL"},

	Systolic:              {"Systolic BP", "mmHg"},
	Diastolic:             {"Diastolic BP", "mmHg"},
	RestingHR:             {"Resting HR", "bpm"},
	DailyStepsAvg:         {"Daily Steps", "steps"},
	SleepDurationAvg:      {"Sleep Duration", "hrs"},
	SleepRegularityStddev: {"Sleep Regularity", "min"},
	VO2Max:                {"VO2 Max", "mL/kg/min"},
	HRVRMSSDAvg:           {"HRV (RMSSD)", "ms"},
	Zone2MinPerWeek:       {"Zone 2 Cardio", "min/wk"},
	WaistCircumference:    {"Waist", "in"},
	WeightLbs:             {"Weight", "lbs"},
	HasFamilyHistory:      {"Family History", ""},
	HasMedicationList:     {"Medication List", ""},
	PHQ9Score:             {"PHQ-9", ""},
	SmokingStatus:         {"Smoking Status", ""},
}

// Label returns the display name for the metric, or the raw key when
// the metric is unknown.
func (m Metric) Label() string {
	if info, ok := metricInfos[m]; ok {
		return info.label
	}

	return string(m)
}

// DefaultUnit returns the unit a metric is reported in when the source
// does not say otherwise.
func (m Metric) DefaultUnit() string {
	return metricInfos[m].unit
}

// Known reports whether the metric key is recognised.
func (m Metric) Known() bool {
	_, ok := metricInfos[m]
	return ok
}

// ParseMetric validates a raw metric key.
func ParseMetric(raw string) (Metric, bool) {
	m := Metric(raw)
	return m, m.Known()
}
