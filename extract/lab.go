/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

var (
	labNumberPattern  = regexp.MustCompile(`[<>]?\s*[\d.]+`)
	leadingFloat      = regexp.MustCompile(`^(?:\d+(?:\.\d*)?|\.\d+)`)
	labFlagPattern    = regexp.MustCompile(`(?:^|\s)([HL])(?:\s|$)`)
	labRefPattern     = regexp.MustCompile(`([\d.]+\s*[-–]\s*[\d.]+)`)
	lpaContextPattern = regexp.MustCompile(`(?i)lp\s*\(?\s*a\s*\)?|lipoprotein\s*\(?\s*a\s*\)?`)
	drawDatePattern   = regexp.MustCompile(`(?i)(?:collected|collection|drawn|date|specimen)\s*(?:date)?[:\s]*(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})`)
	nonFastingPattern = regexp.MustCompile(`(?i)\bnon[-\s]?fasting\b`)
	fastingPattern    = regexp.MustCompile(`(?i)\bfasting(?:\s+status)?\s*[:\-]?\s*(yes|no|y|n)\b`)
	digitPattern      = regexp.MustCompile(`\d+\.?\d*`)
	unmatchedSkip     = regexp.MustCompile(`date|time|phone|fax|address|page|specimen|collected|received|patient|doctor|physician|npi|account|order|quest|diagnostics|laboratory|clinical`)
)

// LabResult is one biomarker found on a lab report line.
type LabResult struct {
	Metric   biomarker.Metric `json:"metric"`
	Value    float64          `json:"value"`
	Unit     string           `json:"unit"`
	Flag     string           `json:"flag,omitempty"`
	RefRange string           `json:"ref_range,omitempty"`
	Line     string           `json:"source_line"`
}

// LabReport is the full local extraction of a lab report.
type LabReport struct {
	Results   map[biomarker.Metric]LabResult `json:"results"`
	DrawDate  *time.Time                     `json:"draw_date,omitempty"`
	Fasting   *bool                          `json:"fasting,omitempty"`
	Unmatched []string                       `json:"unmatched_lines,omitempty"`
}

// Values flattens the report into metric -> value.
func (r LabReport) Values() map[biomarker.Metric]float64 {
	out := make(map[biomarker.Metric]float64, len(r.Results))
	for m, res := range r.Results {
		out[m] = res.Value
	}

	return out
}

// ExtractLabFields scans free-text lab report output line by line and
// returns the first plausible value found for each metric. It never
// fails; unparseable input yields an empty map.
func ExtractLabFields(raw string) map[biomarker.Metric]float64 {
	return ParseLabReport(raw).Values()
}

// ParseLabReport is ExtractLabFields plus report metadata: draw date,
// fasting state, per-result flags, reference ranges and units.
func ParseLabReport(raw string) LabReport {
	report := LabReport{Results: make(map[biomarker.Metric]LabResult)}
	aliases := biomarker.LabAliases()

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if lower == "" {
			continue
		}

		matched := false
		for _, alias := range aliases {
			idx := strings.Index(lower, alias.Text)
			if idx == -1 {
				continue
			}

			// First match per metric wins for the whole document.
			if _, seen := report.Results[alias.Metric]; seen {
				matched = true
				continue
			}

			matched = true

			// ToLower keeps byte offsets for ASCII aliases, but not for
			// every rune; fall back to the lowered line when they drift.
			after := lower[idx+len(alias.Text):]
			if len(trimmed) == len(lower) {
				after = trimmed[idx+len(alias.Text):]
			}

			if res, ok := parseLabLine(alias.Metric, after, trimmed, raw); ok {
				report.Results[alias.Metric] = res
			}

			break
		}

		if !matched && len(trimmed) > 10 && digitPattern.MatchString(trimmed) && !unmatchedSkip.MatchString(lower) {
			report.Unmatched = append(report.Unmatched, trimmed)
		}
	}

	report.DrawDate = findDrawDate(raw)
	report.Fasting = findFasting(raw)

	logger.Debug("Parsed lab report", "count", len(report.Results), "unmatched", len(report.Unmatched))

	return report
}

func parseLabLine(metric biomarker.Metric, after, line, raw string) (LabResult, bool) {
	token := labNumberPattern.FindString(after)
	if token == "" {
		return LabResult{}, false
	}

	value, ok := parseLeadingFloat(strings.NewReplacer("<", "", ">", "", " ", "", "\t", "").Replace(token))
	if !ok || !biomarker.Plausible(metric, value) {
		return LabResult{}, false
	}

	res := LabResult{
		Metric: metric,
		Value:  value,
		Unit:   metric.DefaultUnit(),
		Line:   line,
	}

	if m := labFlagPattern.FindStringSubmatch(after); m != nil {
		res.Flag = m[1]
	}

	if m := labRefPattern.FindStringSubmatch(after); m != nil {
		res.RefRange = m[1]
	}

	if metric == biomarker.LpA {
		res.Unit = detectLpAUnit(raw, value)
	}

	return res, true
}

func parseLeadingFloat(s string) (float64, bool) {
	num := leadingFloat.FindString(s)
	if num == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(num, "."), 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// detectLpAUnit works out whether an Lp(a) result is nmol/L or mg/dL.
// The two differ by roughly 2-5x, so getting it wrong moves the standing
// by several bands.
func detectLpAUnit(raw string, value float64) string {
	var context strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		if lpaContextPattern.MatchString(line) {
			context.WriteString(strings.ToLower(line))
			context.WriteByte(' ')
		}
	}

	ctx := context.String()
	switch {
	case strings.Contains(ctx, "nmol/l"):
		return "nmol/L"
	case strings.Contains(ctx, "mg/dl"):
		return "mg/dL"
	case value > 100:
		return "nmol/L"
	case value < 10:
		return "mg/dL"
	default:
		return "nmol/L (assumed)"
	}
}

func findDrawDate(raw string) *time.Time {
	m := drawDatePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])

	yearText := m[3]
	if len(yearText) == 2 {
		yearText = "20" + yearText
	}

	year, err := strconv.Atoi(yearText)
	if err != nil || len(yearText) != 4 {
		return nil
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Month() != time.Month(month) || d.Day() != day {
		return nil
	}

	return &d
}

func findFasting(raw string) *bool {
	if nonFastingPattern.MatchString(raw) {
		return biomarker.Ptr(false)
	}

	m := fastingPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}

	answer := strings.ToLower(m[1])

	return biomarker.Ptr(answer == "yes" || answer == "y")
}
