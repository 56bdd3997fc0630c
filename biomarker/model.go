/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sex is biological sex as used by the reference tables.
type Sex string

// Sex values.
const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// ParseSex accepts "M"/"F" and the spelled-out forms.
func ParseSex(raw string) (Sex, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male", "man":
		return SexMale, true
	case "f", "female", "woman":
		return SexFemale, true
	default:
		return "", false
	}
}

// Source identifies how an observation entered the store.
type Source string

// Source values.
const (
	SourceLabPDF   Source = "lab_pdf"
	SourceManual   Source = "manual"
	SourceWearable Source = "wearable"
	SourceLegacy   Source = "legacy"
	SourceVoice    Source = "voice"
)

// Observation is one measured value for one metric at one point in time.
// A nil Date marks undated legacy data.
type Observation struct {
	Metric   Metric     `json:"metric"`
	Value    float64    `json:"value"`
	Date     *time.Time `json:"date"`
	Source   Source     `json:"source"`
	ImportID *string    `json:"import_id"`
	Unit     *string    `json:"unit"`
}

// Import records one ingestion event and owns the observations that
// reference its ID.
type Import struct {
	ID               string     `json:"id"`
	SourceType       Source     `json:"source_type"`
	Filename         *string    `json:"filename"`
	DrawDate         *time.Time `json:"draw_date"`
	Fasting          *bool      `json:"fasting"`
	ImportedAt       time.Time  `json:"imported_at"`
	MetricsExtracted []Metric   `json:"metrics_extracted"`
}

// Demographics is the single subject record, last write wins.
type Demographics struct {
	Age       int    `json:"age"`
	Sex       Sex    `json:"sex"`
	Ethnicity string `json:"ethnicity,omitempty"`
}

// AgeBucket returns the reference-table age bucket for an age.
func AgeBucket(age int) string {
	switch {
	case age < 30:
		return "20-29"
	case age < 40:
		return "30-39"
	case age < 50:
		return "40-49"
	case age < 60:
		return "50-59"
	case age < 70:
		return "60-69"
	default:
		return "70+"
	}
}

// NewImportID returns an identifier of the form imp_<base36 millis>_<rand>.
func NewImportID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return "imp_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix
}

// Date truncates t to a calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
