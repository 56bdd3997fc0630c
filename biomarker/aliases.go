/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import "sort"

// Alias maps one lowercase spelling found on lab reports to a metric.
type Alias struct {
	Text   string
	Metric Metric
}

var labAliases = []Alias{
	{"apolipoprotein b", ApoB}, {"apob", ApoB}, {"apo b", ApoB},
	{"ldl cholesterol calc", LDL}, {"ldl chol calc", LDL}, {"ldl cholesterol", LDL},
	{"ldl-c", LDL}, {"ldl direct", LDL}, {"ldl", LDL},
	{"hdl cholesterol", HDL}, {"hdl-c", HDL}, {"hdl", HDL},
	{"triglycerides", Triglycerides}, {"triglyceride", Triglycerides}, {"trig", Triglycerides},
	{"total cholesterol", TotalCholesterol}, {"cholesterol, total", TotalCholesterol},
	{"glucose", FastingGlucose}, {"fasting glucose", FastingGlucose},
	{"hemoglobin a1c", HbA1c}, {"hba1c", HbA1c}, {"a1c", HbA1c}, {"glycohemoglobin", HbA1c},
	{"insulin", FastingInsulin}, {"fasting insulin", FastingInsulin},
	{"lipoprotein (a)", LpA}, {"lipoprotein(a)", LpA}, {"lp(a)", LpA}, {"lp (a)", LpA},
	{"c-reactive protein, cardiac", HsCRP}, {"hs-crp", HsCRP}, {"hscrp", HsCRP},
	{"c-reactive protein", HsCRP}, {"crp", HsCRP},
	{"tsh", TSH}, {"thyrotropin", TSH},
	{"free t4", FreeT4}, {"t4, free", FreeT4},
	{"free t3", FreeT3}, {"t3, free", FreeT3},
	{"vitamin d, 25-hydroxy", VitaminD}, {"vitamin d,25-hydroxy", VitaminD},
	{"25-hydroxyvitamin d", VitaminD}, {"vitamin d", VitaminD},
	{"ferritin", Ferritin},
	{"alt", ALT}, {"sgpt", ALT}, {"alanine aminotransferase", ALT},
	{"ast", AST}, {"sgot", AST}, {"aspartate aminotransferase", AST},
	{"alkaline phosphatase", ALP}, {"alk phosphatase", ALP},
	{"ggt", GGT}, {"gamma-glutamyl transferase", GGT},
	{"wbc", WBC}, {"white blood cell count", WBC},
	{"rbc", RBC}, {"red blood cell count", RBC},
	{"hemoglobin", Hemoglobin}, {"hematocrit", Hematocrit},
	{"platelet count", Platelets}, {"platelets", Platelets},
	{"rdw", RDW},
	{"creatinine", Creatinine},
	{"egfr", EGFR}, {"glomerular filtration rate", EGFR},
	{"bun", BUN},
	{"testosterone, total", TestosteroneTotal}, {"testosterone,total", TestosteroneTotal},
	{"testosterone total", TestosteroneTotal},
	{"testosterone, free", TestosteroneFree}, {"testosterone,free", TestosteroneFree},
	{"free testosterone", TestosteroneFree},
	{"homocysteine", Homocysteine},
	{"vitamin b12", VitaminB12},
	{"folate", Folate},
	{"iron", Iron},
	{"tibc", TIBC},
	{"dhea-sulfate", DHEAS}, {"dhea sulfate", DHEAS},
	{"cortisol", Cortisol},
	{"uric acid", UricAcid},
}

var sortedAliases = sortAliases(labAliases)

func sortAliases(in []Alias) []Alias {
	out := make([]Alias, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Text) > len(out[j].Text)
	})

	return out
}

// LabAliases returns the lab-report alias table ordered longest first,
// so "ldl cholesterol calc" is tried before "ldl".
func LabAliases() []Alias {
	out := make([]Alias, len(sortedAliases))
	copy(out, sortedAliases)

	return out
}
