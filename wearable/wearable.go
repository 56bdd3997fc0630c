/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package wearable summarises a daily wearable export into the
// observations the scoring engine reads.
package wearable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/logging"
)

var logger = logging.Logger(logging.SourceIntake)

var (
	ErrNoDateColumn = errors.New("wearable csv has no date column")
	ErrEmpty        = errors.New("wearable csv has no dated rows")
)

const (
	longWindow  = 30
	shortWindow = 7
	// Bedtimes before noon belong to the previous evening.
	noonMinutes = 720
	dayMinutes  = 1440
)

// Day is one row of the export. Nil fields were blank or non-positive.
type Day struct {
	Date       time.Time
	RestingHR  *float64
	Steps      *float64
	Bedtime    *int // minutes after midnight
	SleepHours *float64
	HRV        *float64
	VO2Max     *float64
	Zone2      *float64
}

// Summary is the set of metric values derived from a series, as of the
// newest row.
type Summary struct {
	AsOf   time.Time
	Days   int
	Values map[biomarker.Metric]float64
}

// ParseCSV reads a header row followed by one row per day. Columns are
// matched by name; unknown columns are ignored and rows with an
// unparseable date are skipped.
func ParseCSV(r io.Reader) ([]Day, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	if _, ok := cols["date"]; !ok {
		return nil, ErrNoDateColumn
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}

		return strings.TrimSpace(rec[i])
	}

	var days []Day

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		date, err := time.Parse(time.DateOnly, field(rec, "date"))
		if err != nil {
			logger.Warn("Skipping wearable row with bad date", "line", line)
			continue
		}

		days = append(days, Day{
			Date:       date,
			RestingHR:  positive(field(rec, "resting_hr")),
			Steps:      positive(field(rec, "steps")),
			Bedtime:    clock(field(rec, "bedtime")),
			SleepHours: positive(field(rec, "sleep_hours")),
			HRV:        positive(field(rec, "hrv_rmssd")),
			VO2Max:     positive(field(rec, "vo2_max")),
			Zone2:      positive(field(rec, "zone2_minutes")),
		})
	}

	if len(days) == 0 {
		return nil, ErrEmpty
	}

	return days, nil
}

// Summarize computes the wearable metrics relative to the newest day:
// 30-day means for resting heart rate, steps and sleep duration, the
// 30-day bedtime standard deviation, the 7-day HRV mean, the latest VO2
// max and the 7-day zone 2 total.
func Summarize(days []Day) Summary {
	var s Summary

	for _, d := range days {
		if d.Date.After(s.AsOf) {
			s.AsOf = d.Date
		}
	}

	s.Values = make(map[biomarker.Metric]float64)
	if len(days) == 0 {
		return s
	}

	var (
		rhr, steps, sleep, hrv []float64
		bedtimes               []float64
		zone2                  float64
		vo2                    *float64
		vo2Date                time.Time
	)

	for _, d := range days {
		age := int(s.AsOf.Sub(d.Date).Hours() / 24)

		if age < longWindow {
			s.Days++
			rhr = appendValue(rhr, d.RestingHR)
			steps = appendValue(steps, d.Steps)
			sleep = appendValue(sleep, d.SleepHours)

			if d.Bedtime != nil {
				minutes := *d.Bedtime
				if minutes < noonMinutes {
					minutes += dayMinutes
				}
				bedtimes = append(bedtimes, float64(minutes))
			}
		}

		if age < shortWindow {
			hrv = appendValue(hrv, d.HRV)
			if d.Zone2 != nil {
				zone2 += *d.Zone2
			}
		}

		if d.VO2Max != nil && (vo2 == nil || d.Date.After(vo2Date)) {
			vo2, vo2Date = d.VO2Max, d.Date
		}
	}

	if len(rhr) > 0 {
		s.Values[biomarker.RestingHR] = round1(mean(rhr))
	}

	if len(steps) > 0 {
		s.Values[biomarker.DailyStepsAvg] = math.Round(mean(steps))
	}

	if len(bedtimes) > 1 {
		s.Values[biomarker.SleepRegularityStddev] = round1(stddev(bedtimes))
	}

	if len(sleep) > 0 {
		s.Values[biomarker.SleepDurationAvg] = round1(mean(sleep))
	}

	if len(hrv) > 0 {
		s.Values[biomarker.HRVRMSSDAvg] = round1(mean(hrv))
	}

	if vo2 != nil {
		s.Values[biomarker.VO2Max] = round1(*vo2)
	}

	if total := math.Round(zone2); total > 0 {
		s.Values[biomarker.Zone2MinPerWeek] = total
	}

	return s
}

func positive(raw string) *float64 {
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}

	return &v
}

// clock parses HH:MM into minutes after midnight.
func clock(raw string) *int {
	if raw == "" {
		return nil
	}

	t, err := time.Parse("15:04", raw)
	if err != nil {
		return nil
	}

	minutes := t.Hour()*60 + t.Minute()

	return &minutes
}

func appendValue(values []float64, v *float64) []float64 {
	if v == nil {
		return values
	}

	return append(values, *v)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stddev is the sample standard deviation.
func stddev(values []float64) float64 {
	m := mean(values)

	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}

	return math.Sqrt(ss / float64(len(values)-1))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
