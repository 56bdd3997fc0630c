/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/score"
)

const summarySystemPrompt = "You are a helpful health data assistant. Summarize a personal health coverage report in a few short paragraphs. " +
	"Say which categories look strong, which are concerning, and which missing measurements would add the most. " +
	"Be informative but not alarmist. Never tell the reader to consult a healthcare professional, this is shown separately. " +
	"Use basic markdown (italic, bold, etc), but don't use headings in your response."

// buildReportPrompt renders a coverage report as the user message.
func buildReportPrompt(demo biomarker.Demographics, report score.Report) string {
	var sb strings.Builder

	sb.WriteString("Please summarize the following health coverage report:\n\n")

	sb.WriteString(fmt.Sprintf("Age: %d years\n", demo.Age))
	if demo.Sex != "" {
		sb.WriteString(fmt.Sprintf("Sex: %s\n", demo.Sex))
	}

	sb.WriteString(fmt.Sprintf("Coverage: %d%% (%s categories)\n", report.CoverageScore, report.CoverageFraction))
	if report.RawCoverage != nil && *report.RawCoverage != report.CoverageScore {
		sb.WriteString(fmt.Sprintf("Coverage before freshness adjustment: %d%%\n", *report.RawCoverage))
	}
	if report.AvgPercentile != nil {
		sb.WriteString(fmt.Sprintf("Average percentile: %d\n", *report.AvgPercentile))
	}

	sb.WriteString("\n---\n\nCategories with data:\n\n")

	for _, r := range report.Results {
		if !r.HasData {
			continue
		}

		line := fmt.Sprintf("- %s: %s", r.Name, r.Standing)
		if r.Value != nil {
			line += fmt.Sprintf(", %g %s", *r.Value, r.Unit)
		}
		if r.Percentile != nil {
			line += fmt.Sprintf(" (percentile %d)", *r.Percentile)
		}
		if r.Freshness != nil && *r.Freshness < 1 {
			line += fmt.Sprintf(" [freshness %.0f%%]", *r.Freshness*100)
		}

		sb.WriteString(line + "\n")

		for _, t := range r.Trends {
			sb.WriteString(fmt.Sprintf("  - %s %s %.1f%% over %d months\n", t.Metric.Label(), t.Direction, t.PctChange, t.SpanMonths))
		}
	}

	if len(report.Gaps) > 0 {
		sb.WriteString("\nMissing categories, most important first:\n\n")

		for _, g := range report.Gaps {
			sb.WriteString(fmt.Sprintf("- %s (weight %d, cost: %s)\n", g.Name, g.Weight, g.CostToClose))
		}
	}

	return sb.String()
}

// StreamReportSummary streams a narrative summary of report. onChunk is
// called for each piece of text as it arrives.
func (c *Client) StreamReportSummary(ctx context.Context, demo biomarker.Demographics, report score.Report, onChunk func(string) error) error {
	return c.stream(ctx, summarySystemPrompt, buildReportPrompt(demo, report), onChunk)
}
