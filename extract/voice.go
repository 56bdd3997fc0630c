/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/humaidq/baseline/biomarker"
)

// VoiceIntake is what could be resolved from a spoken description of a
// health profile. Every field is independently optional: a nil pointer
// means "not mentioned", which is distinct from an explicit false.
type VoiceIntake struct {
	Age            *int           `json:"age,omitempty"`
	Sex            *biomarker.Sex `json:"sex,omitempty"`
	HeightFt       *int           `json:"heightFt,omitempty"`
	HeightIn       *int           `json:"heightIn,omitempty"`
	Weight         *float64       `json:"weight,omitempty"`
	Systolic       *int           `json:"systolic,omitempty"`
	Diastolic      *int           `json:"diastolic,omitempty"`
	Waist          *float64       `json:"waist,omitempty"`
	HasMedications *bool          `json:"hasMedications,omitempty"`
	MedicationText *string        `json:"medicationText,omitempty"`
	FamilyHistory  *bool          `json:"familyHistory,omitempty"`

	// NoLabs and HasLabs are only ever set, never cleared.
	NoLabs  bool                         `json:"noLabs,omitempty"`
	HasLabs bool                         `json:"hasLabs,omitempty"`
	Labs    map[biomarker.Metric]float64 `json:"labs,omitempty"`
}

// Empty reports whether nothing was resolved.
func (v VoiceIntake) Empty() bool {
	return v.Age == nil && v.Sex == nil && v.HeightFt == nil && v.Weight == nil &&
		v.Systolic == nil && v.Waist == nil && v.HasMedications == nil &&
		v.FamilyHistory == nil && !v.NoLabs && !v.HasLabs && len(v.Labs) == 0
}

// Accepted subject ages.
const (
	minAge = 18
	maxAge = 100
)

var (
	medIntroTaking = regexp.MustCompile(`(?i)(?:i\s+take|i'm\s+taking|i\s+am\s+taking|i'm\s+on|taking)\s+`)
	medEndTaking   = regexp.MustCompile(`(?i)\.\s|my\s+(?:ldl|hdl|apo|a1c|blood|cholesterol|glucose|triglyceride|hemoglobin|creatinine)|blood\s*pressure|waist|weighs|family`)
	medIntroList   = regexp.MustCompile(`(?i)(?:medications?|supplements?|meds)\s*(?:are|include|:)?\s+`)
	medEndList     = regexp.MustCompile(`(?i)\.\s|my\s|blood\s*pressure|waist|weighs|family`)

	knownMeds = regexp.MustCompile(`\b(?:vitamin\s*[a-d]\d?|fish\s*oil|omega\s*3|creatine|aspirin|baby\s*aspirin|metformin|statins?|atorvastatin|rosuvastatin|lisinopril|losartan|amlodipine|finasteride|minoxidil|levothyroxine|synthroid|magnesium|zinc|iron|melatonin|ashwagandha|berberine|coq10|probiotics?|multivitamin|whey|protein)\b`)

	ageExplicit = regexp.MustCompile(`(?:i'm|i am|age|aged)\s+(?:is\s+)?(\d{2})\b`)
	ageYearsOld = regexp.MustCompile(`\b(\d{2})\s*(?:years?\s*old|year\s*old|yo)\b`)
	// One leading garble character is tolerated ("h35 male").
	ageLeading = regexp.MustCompile(`^.?(\d{2})\b`)

	sexFemale = regexp.MustCompile(`\b(?:female|woman)\b`)
	sexMale   = regexp.MustCompile(`\b(?:male|man|guy)\b`)

	heightExplicit  = regexp.MustCompile(`(\d)\s*(?:foot|feet|ft|')\s*(\d{1,2})`)
	heightShorthand = regexp.MustCompile(`\b([4-7])(\d{1,2})\b`)

	weightExplicit = regexp.MustCompile(`(?:weigh|weight|weighing)\s+(\d{2,3})|(\d{2,3})\s*(?:pounds|lbs|lb)\b`)
	bareThreeDigit = regexp.MustCompile(`\b(\d{3})\b`)

	bpPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{2,3})\s*(?:over|/|\\)\s*(\d{2,3})`),
		regexp.MustCompile(`(?:blood\s*pressure|bp)\s*(?:is|was|of|at|:)?\s*(\d{2,3})\s+(\d{2,3})`),
		regexp.MustCompile(`(?:blood\s*pressure|bp)\s*(?:is|was|of|at|:)?\s*(\d{2,3})\s*(?:over|/|\\)\s*(\d{2,3})`),
	}

	waistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:waist|waste|waiste|weighs?\s*(?:this|the|dis))\s*(?:is|of|at|measures?|about|around|like)?\s*(?:about|around|like)?\s*(\d{2,3}(?:\.\d)?)`),
		regexp.MustCompile(`(\d{2,3}(?:\.\d)?)\s*(?:inch(?:es)?)\s*(?:waist|waste|at\s*(?:the\s*)?navel)`),
		regexp.MustCompile(`\b(3[0-9]|4[0-9]|5[0-9])\s*(?:inches|inch)\b`),
	}
	waistWord = regexp.MustCompile(`\b(?:waist|waste)\b`)
	waistBare = regexp.MustCompile(`\b(3[0-9]|4[0-9]|5[0-9])\b`)

	medsNegation = regexp.MustCompile(`\b(?:no\s+(?:medications?|meds|supplements?)|(?:don'?t|do\s*not)\s+take\s+(?:any|anything)|not\s+(?:on|taking)\s+(?:any|anything)|(?:medications?|meds)\s*[,:]?\s*(?:none|no|nothing|don'?t|i\s+don'?t))\b`)
	labsNegation = regexp.MustCompile(`\b(?:no\s+(?:labs?|blood\s*work|blood\s*tests?)|(?:don'?t|do\s*not)\s+have\s+(?:any\s+)?(?:labs?|blood\s*work)|haven'?t\s+(?:had|done|gotten)\s+(?:labs?|blood\s*work))\b`)
	labsPositive = regexp.MustCompile(`\b(?:(?:i\s+)?(?:do\s+)?have\s+(?:my\s+)?(?:labs?|lab\s*results?|blood\s*work|blood\s*tests?)|got\s+(?:my\s+)?(?:labs?|lab\s*results?|blood\s*work)|(?:labs?|lab\s*results?|blood\s*work)\s+(?:ready|available|done|back|here))\b`)

	familyNegation   = regexp.MustCompile(`\b(?:no\s+(?:family\s*history|history)|(?:family\s*history)\s*[,:]?\s*(?:none|no|nothing)|nothing\s+runs\s+in\s+(?:my|the)\s+family)\b`)
	familyRelatives  = regexp.MustCompile(`\b(?:dad|father|mom|mother|parents?|brother|sister|siblings?|uncle|aunt|grandfather|grandmother|grandpa|grandma|grandparents?)\b`)
	familyKeywords   = regexp.MustCompile(`\b(?:family\s*history|(?:family|history)\s+(?:of\s+)?(?:cardiac|heart|cancer|diabetes|stroke))\b`)
	familyConditions = regexp.MustCompile(`\b(?:cardiac|heart|cancer|diabetes|stroke|disease|attack|issues?|problems?)\b`)
)

type spokenLab struct {
	metric  biomarker.Metric
	pattern *regexp.Regexp
}

// Spoken lab mentions use verbal connectors ("LDL is 128", "ApoB of 95")
// instead of the tabular layout ExtractLabFields expects.
var spokenLabs = []spokenLab{
	{biomarker.LDL, regexp.MustCompile(`\b(?:ldl|ldl.c)\s*(?:is|was|of|at|:)?\s*(\d{2,3})\b`)},
	{biomarker.HDL, regexp.MustCompile(`\b(?:hdl|hdl.c)\s*(?:is|was|of|at|:)?\s*(\d{2,3})\b`)},
	{biomarker.Triglycerides, regexp.MustCompile(`\btriglycerides?\s*(?:is|was|of|at|are|:)?\s*(\d{2,4})\b`)},
	{biomarker.ApoB, regexp.MustCompile(`\b(?:apob|apo\s*b|apolipoprotein\s*b)\s*(?:is|was|of|at|:)?\s*(\d{2,3})\b`)},
	{biomarker.FastingGlucose, regexp.MustCompile(`\b(?:glucose|fasting\s*glucose|blood\s*sugar)\s*(?:is|was|of|at|:)?\s*(\d{2,3})\b`)},
	{biomarker.HbA1c, regexp.MustCompile(`\b(?:a1c|hba1c|hemoglobin\s*a1c)\s*(?:is|was|of|at|:)?\s*(\d+\.?\d*)\b`)},
	{biomarker.FastingInsulin, regexp.MustCompile(`\b(?:insulin|fasting\s*insulin)\s*(?:is|was|of|at|:)?\s*(\d+\.?\d*)\b`)},
	{biomarker.HsCRP, regexp.MustCompile(`\b(?:(?:hs.?)?crp|c.reactive)\s*(?:is|was|of|at|:)?\s*(\d+\.?\d*)\b`)},
	{biomarker.VitaminD, regexp.MustCompile(`\bvitamin\s*d\s*(?:level)?\s*(?:is|was|of|at|:)?\s*(\d{1,3})\b`)},
	{biomarker.TSH, regexp.MustCompile(`\btsh\s*(?:is|was|of|at|:)?\s*(\d+\.?\d*)\b`)},
	{biomarker.LpA, regexp.MustCompile(`\b(?:lp\s*\(?a\)?|lipoprotein\s*a)\s*(?:is|was|of|at|:)?\s*(\d{1,3})\b`)},
}

type medicationZone struct {
	start int
	end   int
	text  string
}

// ExtractVoiceIntake parses a speech transcript. It never fails; for
// unrelated text the result is empty or nearly so.
func ExtractVoiceIntake(transcript string) VoiceIntake {
	var out VoiceIntake
	lower := strings.ToLower(transcript)

	// Medication zones are masked before lab parsing so a dose like
	// "vitamin D 5000" is never read as a lab value.
	var zones []medicationZone
	zones = findMedicationZones(transcript, medIntroTaking, medEndTaking, zones)
	zones = findMedicationZones(transcript, medIntroList, medEndList, zones)

	for _, z := range zones {
		out.MedicationText = biomarker.Ptr(z.text)
		out.HasMedications = biomarker.Ptr(true)
	}

	if out.HasMedications == nil {
		if names := knownMeds.FindAllString(lower, -1); len(names) > 0 {
			out.HasMedications = biomarker.Ptr(true)
			out.MedicationText = biomarker.Ptr(strings.Join(names, ", "))
		}
	}

	labSafe := maskZones(transcript, zones)

	extractDemographics(lower, &out)
	extractVitals(lower, &out)

	if medsNegation.MatchString(lower) && out.HasMedications == nil {
		out.HasMedications = biomarker.Ptr(false)
		out.MedicationText = biomarker.Ptr("")
	}

	labsNeg := labsNegation.MatchString(lower)
	if labsNeg {
		out.NoLabs = true
	}
	if !labsNeg && labsPositive.MatchString(lower) {
		out.HasLabs = true
	}

	switch {
	case familyNegation.MatchString(lower):
		out.FamilyHistory = biomarker.Ptr(false)
	case familyRelatives.MatchString(lower) && familyConditions.MatchString(lower),
		familyKeywords.MatchString(lower):
		out.FamilyHistory = biomarker.Ptr(true)
	}

	if labs := extractSpokenLabs(labSafe); len(labs) > 0 {
		out.Labs = labs
	}

	logger.Debug("Parsed voice transcript", "medication_zones", len(zones), "labs", len(out.Labs))

	return out
}

// findMedicationZones scans for an introduction phrase and extends each
// zone up to the next terminator or the end of the text. A zone may not
// cross a line break.
func findMedicationZones(text string, intro, end *regexp.Regexp, zones []medicationZone) []medicationZone {
	pos := 0
	for pos < len(text) {
		loc := intro.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}

		start, bodyStart := pos+loc[0], pos+loc[1]
		rest := text[bodyStart:]

		bodyEnd := len(text)
		if term := end.FindStringIndex(rest); term != nil {
			bodyEnd = bodyStart + term[0]
		}

		if nl := strings.IndexAny(rest, "\r\n"); nl >= 0 && bodyStart+nl < bodyEnd {
			pos = start + 1
			continue
		}

		if body := strings.TrimSpace(text[bodyStart:bodyEnd]); len(body) > 2 {
			zones = append(zones, medicationZone{start: start, end: bodyEnd, text: body})
		}

		pos = bodyEnd
	}

	return zones
}

// maskZones blanks every byte inside a zone, keeping offsets intact.
func maskZones(text string, zones []medicationZone) string {
	if len(zones) == 0 {
		return text
	}

	masked := []byte(text)
	for _, z := range zones {
		for i := z.start; i < z.end; i++ {
			masked[i] = ' '
		}
	}

	return string(masked)
}

func extractDemographics(lower string, out *VoiceIntake) {
	ageMatch := ageExplicit.FindStringSubmatch(lower)
	if ageMatch == nil {
		ageMatch = ageYearsOld.FindStringSubmatch(lower)
	}
	if ageMatch == nil {
		ageMatch = ageLeading.FindStringSubmatch(lower)
	}
	if ageMatch != nil {
		if age, err := strconv.Atoi(ageMatch[1]); err == nil && age >= minAge && age <= maxAge {
			out.Age = biomarker.Ptr(age)
		}
	}

	// "female" contains "male", so it is tested first.
	if sexFemale.MatchString(lower) {
		out.Sex = biomarker.Ptr(biomarker.SexFemale)
	} else if sexMale.MatchString(lower) {
		out.Sex = biomarker.Ptr(biomarker.SexMale)
	}

	heightMatch := heightExplicit.FindStringSubmatch(lower)
	if heightMatch == nil {
		heightMatch = heightShorthand.FindStringSubmatch(lower)
		if heightMatch != nil {
			ft, _ := strconv.Atoi(heightMatch[1])
			in, _ := strconv.Atoi(heightMatch[2])
			if in > 11 || ft < 4 || ft > 7 {
				heightMatch = nil
			}
		}
	}
	if heightMatch != nil {
		ft, _ := strconv.Atoi(heightMatch[1])
		in, _ := strconv.Atoi(heightMatch[2])
		if ft >= 4 && ft <= 7 && in >= 0 && in <= 11 {
			out.HeightFt = biomarker.Ptr(ft)
			out.HeightIn = biomarker.Ptr(in)
		}
	}

	weightText := ""
	if m := weightExplicit.FindStringSubmatch(lower); m != nil {
		weightText = m[1]
		if weightText == "" {
			weightText = m[2]
		}
	} else {
		claimed := ""
		if out.HeightFt != nil {
			claimed = fmt.Sprintf("%d%d", *out.HeightFt, *out.HeightIn)
		}

		for _, m := range bareThreeDigit.FindAllStringSubmatch(lower, -1) {
			if m[0] == claimed {
				continue
			}

			if n, _ := strconv.Atoi(m[1]); n >= 100 && n <= 350 {
				weightText = m[1]
				break
			}
		}
	}
	if weightText != "" {
		if w, err := strconv.Atoi(weightText); err == nil && w >= 60 && w <= 600 {
			out.Weight = biomarker.Ptr(float64(w))
		}
	}
}

func extractVitals(lower string, out *VoiceIntake) {
	for _, pattern := range bpPatterns {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}

		sys, _ := strconv.Atoi(m[1])
		dia, _ := strconv.Atoi(m[2])
		if sys >= 70 && sys <= 220 && dia >= 40 && dia <= 130 && sys > dia {
			out.Systolic = biomarker.Ptr(sys)
			out.Diastolic = biomarker.Ptr(dia)
			break
		}
	}

	var waistMatch []string
	for _, pattern := range waistPatterns {
		if waistMatch = pattern.FindStringSubmatch(lower); waistMatch != nil {
			break
		}
	}
	if waistMatch == nil && waistWord.MatchString(lower) {
		waistMatch = waistBare.FindStringSubmatch(lower)
	}
	if waistMatch != nil {
		if w, err := strconv.ParseFloat(waistMatch[1], 64); err == nil && w >= 20 && w <= 70 {
			out.Waist = biomarker.Ptr(w)
		}
	}
}

func extractSpokenLabs(labSafe string) map[biomarker.Metric]float64 {
	lower := strings.ToLower(labSafe)
	labs := make(map[biomarker.Metric]float64)

	for _, lab := range spokenLabs {
		m := lab.pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}

		v, ok := parseLeadingFloat(m[1])
		if !ok || !biomarker.Plausible(lab.metric, v) {
			continue
		}

		labs[lab.metric] = v
	}

	return labs
}
