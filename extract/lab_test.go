// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"maps"
	"math"
	"testing"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

const sampleLabReport = `Quest Diagnostics
Patient: Example Person
Collected: 03/15/24
Fasting: Yes

LDL Cholesterol Calc 118 mg/dL (ref 0-130)
HDL Cholesterol 52 mg/dL
Triglycerides 98 mg/dL
Glucose 105 H 65-99 mg/dL
Hemoglobin A1c 5.4 %
ALT 22 U/L
Sodium 140 mmol/L 135-145
LDL 140 mg/dL
`

func assertFloatClose(t *testing.T, got, want float64) {
	t.Helper()

	if math.Abs(got-want) > 0.0001 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractLabFieldsSingleLine(t *testing.T) {
	t.Parallel()

	got := ExtractLabFields("LDL Cholesterol Calc 118 mg/dL (ref 0-130)")
	want := map[biomarker.Metric]float64{biomarker.LDL: 118}

	if !maps.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractLabFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		metric biomarker.Metric
		want   float64
	}{
		{name: "longest alias wins over hemoglobin", input: "Hemoglobin A1c 5.4 %", metric: biomarker.HbA1c, want: 5.4},
		{name: "hdl cholesterol", input: "HDL Cholesterol 55 mg/dL", metric: biomarker.HDL, want: 55},
		{name: "less-than prefix", input: "hs-CRP <0.3 mg/L", metric: biomarker.HsCRP, want: 0.3},
		{name: "greater-than prefix with space", input: "Vitamin D, 25-Hydroxy > 90 ng/mL", metric: biomarker.VitaminD, want: 90},
		{name: "apob", input: "Apolipoprotein B 92 mg/dL", metric: biomarker.ApoB, want: 92},
		{name: "lp(a)", input: "Lipoprotein (a) 75 nmol/L", metric: biomarker.LpA, want: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractLabFields(tt.input)

			value, ok := got[tt.metric]
			if !ok {
				t.Fatalf("expected %s in %v", tt.metric, got)
			}

			assertFloatClose(t, value, tt.want)

			if len(got) != 1 {
				t.Fatalf("expected one metric, got %v", got)
			}
		})
	}
}

func TestExtractLabFieldsRangeGuard(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Vitamin D 5000 IU daily",
		"Triglycerides 12000",
		"Hemoglobin A1c 55",
		"Call 5551234 for results",
		sampleLabReport,
	}

	for _, input := range inputs {
		for metric, value := range ExtractLabFields(input) {
			if !biomarker.Plausible(metric, value) {
				t.Fatalf("implausible %s=%v extracted from %q", metric, value, input)
			}
		}
	}

	if got := ExtractLabFields("Vitamin D 5000 IU daily"); len(got) != 0 {
		t.Fatalf("expected supplement dose to be dropped, got %v", got)
	}
}

func TestExtractLabFieldsIdempotent(t *testing.T) {
	t.Parallel()

	first := ExtractLabFields(sampleLabReport)
	second := ExtractLabFields(sampleLabReport)

	if !maps.Equal(first, second) {
		t.Fatalf("expected identical results, got %v and %v", first, second)
	}
}

func TestExtractLabFieldsNoInput(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "\n\n", "nothing to see here"} {
		if got := ExtractLabFields(input); len(got) != 0 {
			t.Fatalf("expected empty result for %q, got %v", input, got)
		}
	}
}

func TestParseLabReport(t *testing.T) {
	t.Parallel()

	report := ParseLabReport(sampleLabReport)

	ldl, ok := report.Results[biomarker.LDL]
	if !ok {
		t.Fatalf("expected ldl_c result")
	}

	assertFloatClose(t, ldl.Value, 118)

	if ldl.RefRange != "0-130" {
		t.Fatalf("expected ref range 0-130, got %q", ldl.RefRange)
	}

	if ldl.Unit != "mg/dL" {
		t.Fatalf("expected mg/dL, got %q", ldl.Unit)
	}

	glucose := report.Results[biomarker.FastingGlucose]
	if glucose.Flag != "H" {
		t.Fatalf("expected H flag on glucose, got %q", glucose.Flag)
	}

	if glucose.RefRange != "65-99" {
		t.Fatalf("expected glucose ref range 65-99, got %q", glucose.RefRange)
	}

	if alt := report.Results[biomarker.ALT]; alt.Flag != "" {
		t.Fatalf("expected no flag from U/L, got %q", alt.Flag)
	}

	if _, ok := report.Results[biomarker.Hemoglobin]; ok {
		t.Fatalf("hemoglobin a1c line must not produce hemoglobin")
	}

	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	if report.DrawDate == nil || !report.DrawDate.Equal(want) {
		t.Fatalf("expected draw date %v, got %v", want, report.DrawDate)
	}

	if report.Fasting == nil || !*report.Fasting {
		t.Fatalf("expected fasting=true, got %v", report.Fasting)
	}

	if len(report.Unmatched) != 1 || report.Unmatched[0] != "Sodium 140 mmol/L 135-145" {
		t.Fatalf("expected sodium as the only unmatched line, got %q", report.Unmatched)
	}
}

func TestParseLabReportDrawDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{name: "two digit year", input: "Collected: 3/5/24", want: biomarker.Ptr(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))},
		{name: "four digit year dashes", input: "Specimen Date 11-30-2023", want: biomarker.Ptr(time.Date(2023, time.November, 30, 0, 0, 0, 0, time.UTC))},
		{name: "invalid day", input: "Drawn: 02/31/2024", want: nil},
		{name: "three digit year", input: "Collected: 02/03/202", want: nil},
		{name: "missing", input: "LDL 100", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseLabReport(tt.input).DrawDate

			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("expected no draw date, got %v", got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseLabReportFasting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  *bool
	}{
		{input: "Fasting: Yes", want: biomarker.Ptr(true)},
		{input: "FASTING STATUS: N", want: biomarker.Ptr(false)},
		{input: "Specimen: NON-FASTING", want: biomarker.Ptr(false)},
		{input: "Fasting glucose 90", want: nil},
	}

	for _, tt := range tests {
		got := ParseLabReport(tt.input).Fasting

		switch {
		case tt.want == nil && got != nil:
			t.Fatalf("%q: expected nil, got %v", tt.input, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Fatalf("%q: expected %v, got %v", tt.input, *tt.want, got)
		}
	}
}

func TestParseLabReportLpAUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "Lipoprotein (a) 75 nmol/L", want: "nmol/L"},
		{input: "Lp(a) 30 mg/dL", want: "mg/dL"},
		{input: "Lp(a) 150", want: "nmol/L"},
		{input: "Lp(a) 5", want: "mg/dL"},
		{input: "Lp(a) 45", want: "nmol/L (assumed)"},
	}

	for _, tt := range tests {
		res, ok := ParseLabReport(tt.input).Results[biomarker.LpA]
		if !ok {
			t.Fatalf("%q: expected lpa result", tt.input)
		}

		if res.Unit != tt.want {
			t.Fatalf("%q: expected unit %q, got %q", tt.input, tt.want, res.Unit)
		}
	}
}
