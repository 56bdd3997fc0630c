/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/extract"
)

const voiceSystemPrompt = `You extract structured health data from a user's spoken description of their health profile.
The user is dictating demographics, lab values, vitals, medications, and family history.
Reply with a single JSON object and nothing else. Omit any field that was not mentioned.
Values are in standard US units (mg/dL, lbs, inches).

Fields:
- age: integer, age in years
- sex: "M" or "F"
- height_feet: integer, feet component (5 in 5'10")
- height_inches: integer, inches component (10 in 5'10")
- weight_lbs: number, weight in pounds
- systolic: integer, top blood pressure number
- diastolic: integer, bottom blood pressure number
- waist_inches: number, waist circumference in inches
- has_medications: boolean, true if any medications or supplements are listed, false if explicitly none
- medication_text: string, the medications and supplements as spoken, empty if none
- has_family_history: boolean, family history of heart disease, cancer, diabetes or stroke; false if explicitly denied
- has_labs: boolean, false if they say "no labs" or "no blood work"
- labs: object of explicitly stated lab values keyed by apob, ldl_c, hdl_c, triglycerides, fasting_glucose, hba1c, fasting_insulin, lpa, hscrp, vitamin_d, tsh, ferritin, alt, ggt, hemoglobin, wbc, platelets, creatinine`

const labSystemPrompt = `You extract structured lab biomarker values from text extracted from a lab report PDF.
The text may be messy (OCR artifacts, table formatting issues). Extract every biomarker value you can find.
Reply with a single JSON object and nothing else. Omit any field you cannot find.

Fields:
- draw_date: string, date the blood was drawn as YYYY-MM-DD ("collection date", "drawn", "specimen date")
- fasting: boolean, whether the patient was fasting
- biomarkers: object of numeric values keyed by apob, ldl_c, hdl_c, triglycerides, total_cholesterol, fasting_glucose, hba1c, fasting_insulin, lpa, hscrp, vitamin_d, tsh, ferritin, alt, ast, ggt, hemoglobin, hematocrit, wbc, platelets, creatinine, bun, egfr, uric_acid, testosterone_total, testosterone_free`

func voiceUserPrompt(transcript string) string {
	return `Extract health data from this spoken transcript. The person is describing their health profile for a coverage score assessment.

CRITICAL RULES:
- Only extract values that are EXPLICITLY and CLEARLY stated as health information.
- Do NOT infer health data from ambiguous context. If something could be a health value OR something else, do NOT extract it.
- "30 seconds" is NOT age 30. "5 minutes" is NOT height 5 feet. Numbers must be clearly about health.
- Explicit negations count: "no medications" means has_medications=false, "no labs" means has_labs=false.
- If the transcript is not about health at all (e.g., casual conversation, technical discussion), return an empty object.
- When in doubt, leave a field out rather than guessing.

Transcript: "` + transcript + `"`
}

func labUserPrompt(text, formatHint string) string {
	var sb strings.Builder

	sb.WriteString("Extract all biomarker values from this lab report text. The text was extracted from a PDF and may have formatting artifacts.")
	if formatHint != "" {
		sb.WriteString(" This appears to be from " + formatHint + ".")
	}
	sb.WriteString("\n\nLab report text:\n")
	sb.WriteString(text)

	return sb.String()
}

// Models sometimes answer 35.0 for an integer field, so numbers are read
// as floats and rounded.
type voiceWire struct {
	Age              *float64            `json:"age"`
	Sex              *string             `json:"sex"`
	HeightFeet       *float64            `json:"height_feet"`
	HeightInches     *float64            `json:"height_inches"`
	WeightLbs        *float64            `json:"weight_lbs"`
	Systolic         *float64            `json:"systolic"`
	Diastolic        *float64            `json:"diastolic"`
	WaistInches      *float64            `json:"waist_inches"`
	HasMedications   *bool               `json:"has_medications"`
	MedicationText   *string             `json:"medication_text"`
	HasFamilyHistory *bool               `json:"has_family_history"`
	HasLabs          *bool               `json:"has_labs"`
	Labs             map[string]*float64 `json:"labs"`
}

type labWire struct {
	DrawDate   *string             `json:"draw_date"`
	Fasting    *bool               `json:"fasting"`
	Biomarkers map[string]*float64 `json:"biomarkers"`
}

// ParseVoice asks the model for a structured reading of a transcript.
func (c *Client) ParseVoice(ctx context.Context, transcript string) (extract.ServiceVoice, error) {
	content, err := c.complete(ctx, voiceSystemPrompt, voiceUserPrompt(transcript), true)
	if err != nil {
		return extract.ServiceVoice{}, err
	}

	var wire voiceWire
	if err := decodeObject(content, &wire); err != nil {
		return extract.ServiceVoice{}, err
	}

	out := extract.ServiceVoice{
		Age:              roundInt(wire.Age),
		HeightFeet:       roundInt(wire.HeightFeet),
		HeightInches:     roundInt(wire.HeightInches),
		WeightLbs:        wire.WeightLbs,
		Systolic:         roundInt(wire.Systolic),
		Diastolic:        roundInt(wire.Diastolic),
		WaistInches:      wire.WaistInches,
		HasMedications:   wire.HasMedications,
		MedicationText:   wire.MedicationText,
		HasFamilyHistory: wire.HasFamilyHistory,
		HasLabs:          wire.HasLabs,
		Labs:             dropNulls(wire.Labs),
	}

	if wire.Sex != nil {
		if sex, ok := biomarker.ParseSex(*wire.Sex); ok {
			out.Sex = &sex
		}
	}

	return out, nil
}

// ParseLab asks the model for the biomarkers in lab report text.
// formatHint names the lab or report layout when known.
func (c *Client) ParseLab(ctx context.Context, text, formatHint string) (extract.ServiceLab, error) {
	content, err := c.complete(ctx, labSystemPrompt, labUserPrompt(text, formatHint), true)
	if err != nil {
		return extract.ServiceLab{}, err
	}

	var wire labWire
	if err := decodeObject(content, &wire); err != nil {
		return extract.ServiceLab{}, err
	}

	return extract.ServiceLab{
		DrawDate:   wire.DrawDate,
		Fasting:    wire.Fasting,
		Biomarkers: dropNulls(wire.Biomarkers),
	}, nil
}

// decodeObject decodes the outermost JSON object in content, tolerating
// code fences and prose around it.
func decodeObject(content string, v any) error {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start < 0 || end < start {
		return ErrNoJSONObject
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to decode model output: %w", err)
	}

	return nil
}

func roundInt(v *float64) *int {
	if v == nil {
		return nil
	}

	n := int(math.Round(*v))

	return &n
}

func dropNulls(in map[string]*float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}

	out := make(map[string]float64, len(in))
	for k, v := range in {
		if v != nil {
			out[k] = *v
		}
	}

	return out
}
