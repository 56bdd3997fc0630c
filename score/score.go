/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package score turns a subject's latest measurements into a weighted
// coverage report with per-category standings.
package score

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/logging"
	"github.com/humaidq/baseline/reference"
)

var logger = logging.Logger(logging.SourceScore)

// Result is the scored state of one category.
type Result struct {
	Category    CategoryKey `json:"category"`
	Name        string      `json:"name"`
	Tier        int         `json:"tier"`
	Rank        int         `json:"rank"`
	HasData     bool        `json:"hasData"`
	Value       *float64    `json:"value"`
	Unit        string      `json:"unit"`
	Standing    Standing    `json:"standing"`
	Percentile  *int        `json:"percentile"`
	Weight      int         `json:"weight"`
	CostToClose string      `json:"costToClose"`
	Note        string      `json:"note"`

	// Set in time-series mode only.
	Freshness       *float64 `json:"freshness,omitempty"`
	Reliability     *float64 `json:"reliability,omitempty"`
	EffectiveWeight *float64 `json:"effectiveWeight,omitempty"`
	Trends          []Trend  `json:"trends,omitempty"`
}

// Report is the full coverage report.
type Report struct {
	CoverageScore    int      `json:"coverageScore"`
	CoverageFraction string   `json:"coverageFraction"`
	Tier1Pct         int      `json:"tier1Pct"`
	Tier1Fraction    string   `json:"tier1Fraction"`
	Tier1Weight      string   `json:"tier1Weight"`
	Tier2Pct         int      `json:"tier2Pct"`
	Tier2Fraction    string   `json:"tier2Fraction"`
	Tier2Weight      string   `json:"tier2Weight"`
	AvgPercentile    *int     `json:"avgPercentile"`
	Results          []Result `json:"results"`
	Gaps             []Result `json:"gaps"`

	// Time-series mode only. CoverageScore then equals
	// FreshnessAdjustedCoverage and RawCoverage keeps the binary figure.
	FreshnessAdjustedCoverage *int               `json:"freshnessAdjustedCoverage,omitempty"`
	RawCoverage               *int               `json:"rawCoverage,omitempty"`
	ImportCount               *int               `json:"importCount,omitempty"`
	ObservationMetrics        []biomarker.Metric `json:"observationMetrics,omitempty"`
}

// Engine scores profiles against a set of percentile curves.
type Engine struct {
	strategies []strategy
}

// NewEngine returns an engine that consults curves before the cutoff
// tables. A nil curves set scores from cutoffs only.
func NewEngine(curves *reference.Curves) *Engine {
	return &Engine{
		strategies: []strategy{
			thyroidOverride,
			percentileStrategy(curves),
			cutoffStrategy,
		},
	}
}

var defaultEngine = NewEngine(reference.DefaultCurves())

// DefaultEngine returns the engine backed by the embedded curves.
func DefaultEngine() *Engine {
	return defaultEngine
}

// Assess resolves the standing of one value through the strategy chain.
func (e *Engine) Assess(key reference.Key, value float64, demo biomarker.Demographics) Assessment {
	in := assessInput{
		key:    key,
		value:  value,
		bucket: biomarker.AgeBucket(demo.Age),
		sex:    demo.Sex,
	}

	for _, s := range e.strategies {
		if a, ok := s(in); ok {
			return a
		}
	}

	return unknown
}

// ScoreFlat scores a profile given as the latest value per metric.
func (e *Engine) ScoreFlat(demo biomarker.Demographics, values map[biomarker.Metric]float64) Report {
	results := make([]Result, 0, len(categories))

	for _, c := range categories {
		results = append(results, e.scoreCategory(c, demo, values))
	}

	return summarise(results)
}

func (e *Engine) scoreCategory(c Category, demo biomarker.Demographics, values map[biomarker.Metric]float64) Result {
	r := Result{
		Category:    c.Key,
		Name:        c.Name,
		Tier:        c.Tier,
		Rank:        c.Rank,
		Weight:      c.Weight,
		CostToClose: c.CostToClose,
		Standing:    Unknown,
	}

	for _, m := range c.Metrics {
		if _, ok := values[m]; ok {
			r.HasData = true
			break
		}
	}

	switch {
	case c.Presence:
		if r.HasData {
			r.Standing = Good
		}
	default:
		for _, sm := range c.Priority {
			v, ok := values[sm.metric]
			if !ok {
				continue
			}

			a := e.Assess(sm.key, v, demo)
			r.Value = &v
			r.Unit = sm.unit
			r.Standing = a.Standing
			r.Percentile = a.Percentile

			break
		}
	}

	if c.Paired != "" && r.Value != nil {
		if p, ok := values[c.Paired]; ok {
			r.Unit = fmt.Sprintf("%s/%d", r.Unit, int(math.Round(p)))
		}
	}

	switch {
	case !r.HasData:
		r.Note = c.GapNote
	case c.UpgradeMetric != "":
		if _, ok := values[c.UpgradeMetric]; !ok {
			r.Note = c.UpgradeNote
		}
	}

	return r
}

func summarise(results []Result) Report {
	t1Total, t2Total := tierTotals()

	var covered, t1Covered, t2Covered int
	var withData, t1With, t1Count, t2With, t2Count int
	var pctSum, pctCount int

	for _, r := range results {
		if r.Tier == 1 {
			t1Count++
		} else {
			t2Count++
		}

		if r.Percentile != nil {
			pctSum += *r.Percentile
			pctCount++
		}

		if !r.HasData {
			continue
		}

		withData++
		covered += r.Weight

		if r.Tier == 1 {
			t1With++
			t1Covered += r.Weight
		} else {
			t2With++
			t2Covered += r.Weight
		}
	}

	report := Report{
		CoverageScore:    percentOf(float64(covered), t1Total+t2Total),
		CoverageFraction: fmt.Sprintf("%d/%d", withData, len(results)),
		Tier1Pct:         percentOf(float64(t1Covered), t1Total),
		Tier1Fraction:    fmt.Sprintf("%d/%d", t1With, t1Count),
		Tier1Weight:      fmt.Sprintf("%d/%d", t1Covered, t1Total),
		Tier2Pct:         percentOf(float64(t2Covered), t2Total),
		Tier2Fraction:    fmt.Sprintf("%d/%d", t2With, t2Count),
		Tier2Weight:      fmt.Sprintf("%d/%d", t2Covered, t2Total),
		Results:          results,
	}

	if pctCount > 0 {
		avg := int(math.Round(float64(pctSum) / float64(pctCount)))
		report.AvgPercentile = &avg
	}

	for _, r := range results {
		if !r.HasData {
			report.Gaps = append(report.Gaps, r)
		}
	}

	sort.SliceStable(report.Gaps, func(i, j int) bool {
		return report.Gaps[i].Weight > report.Gaps[j].Weight
	})

	return report
}

func percentOf(part float64, total int) int {
	if total == 0 {
		return 0
	}

	return int(math.Round(part / float64(total) * 100))
}

type categoryState struct {
	freshness   float64
	reliability float64
	set         bool
}

// Score scores a time-series profile. Each metric's observations are
// newest first, with undated observations last. Standings come from the
// latest value of each metric; coverage is weighted by freshness and
// reliability at now.
func (e *Engine) Score(
	demo biomarker.Demographics,
	obs map[biomarker.Metric][]biomarker.Observation,
	imports []biomarker.Import,
	now time.Time,
) Report {
	latest := make(map[biomarker.Metric]float64, len(obs))
	for metric, series := range obs {
		if len(series) > 0 {
			latest[metric] = series[0].Value
		}
	}

	report := e.ScoreFlat(demo, latest)

	states := make(map[CategoryKey]categoryState)
	trends := make(map[CategoryKey][]Trend)

	// Sorted so that ties on freshness resolve the same way every run.
	metrics := make([]biomarker.Metric, 0, len(obs))
	for metric, series := range obs {
		if len(series) > 0 {
			metrics = append(metrics, metric)
		}
	}
	slices.Sort(metrics)

	for _, metric := range metrics {
		series := obs[metric]

		cat, ok := metricCategory[metric]
		if !ok {
			continue
		}

		freshness := Freshness(metric, series[0].Date, now)
		reliability := Reliability(metric, series, imports)

		if st := states[cat]; !st.set || freshness < st.freshness {
			states[cat] = categoryState{freshness: freshness, reliability: reliability, set: true}
		}

		if trend := DetectTrend(metric, series); trend != nil && trend.Significant {
			trends[cat] = append(trends[cat], *trend)
		}
	}

	t1Total, t2Total := tierTotals()
	var effective float64

	for i := range report.Results {
		r := &report.Results[i]

		freshness, reliability := 0.0, 1.0
		if r.HasData {
			freshness = 1
			if st, ok := states[r.Category]; ok {
				freshness, reliability = st.freshness, st.reliability
			}
		}

		weight := 0.0
		if r.HasData {
			weight = float64(r.Weight) * freshness * reliability
		}

		r.Freshness = &freshness
		r.Reliability = &reliability
		r.EffectiveWeight = &weight
		r.Trends = trends[r.Category]

		effective += weight
	}

	// Gaps were copied before enrichment.
	gapIndex := make(map[CategoryKey]int, len(report.Results))
	for i, r := range report.Results {
		gapIndex[r.Category] = i
	}
	for i, g := range report.Gaps {
		report.Gaps[i] = report.Results[gapIndex[g.Category]]
	}

	adjusted := percentOf(effective, t1Total+t2Total)
	raw := report.CoverageScore
	importCount := len(imports)

	report.FreshnessAdjustedCoverage = &adjusted
	report.RawCoverage = &raw
	report.CoverageScore = adjusted
	report.ImportCount = &importCount
	report.ObservationMetrics = metrics

	logger.Debug("Scored profile", "coverage", adjusted, "raw_coverage", raw, "metrics", len(metrics))

	return report
}

// ScoreFlat scores a flat profile with the embedded reference data.
func ScoreFlat(demo biomarker.Demographics, values map[biomarker.Metric]float64) Report {
	return defaultEngine.ScoreFlat(demo, values)
}

// Score scores a time-series profile with the embedded reference data.
func Score(
	demo biomarker.Demographics,
	obs map[biomarker.Metric][]biomarker.Observation,
	imports []biomarker.Import,
	now time.Time,
) Report {
	return defaultEngine.Score(demo, obs, imports, now)
}
