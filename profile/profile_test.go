// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/score"
)

func TestLoadAndReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, time.October, 15, 12, 0, 0, 0, time.UTC)

	store, err := db.NewMemoryStore("")
	if err != nil {
		t.Fatalf("NewMemoryStore returned error: %v", err)
	}

	empty, err := Load(ctx, store)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if empty.Demographics != nil || empty.Demo() != (biomarker.Demographics{}) {
		t.Fatalf("expected no demographics, got %+v", empty.Demographics)
	}

	if err := store.SaveDemographics(ctx, biomarker.Demographics{Age: 35, Sex: biomarker.SexMale}); err != nil {
		t.Fatalf("SaveDemographics returned error: %v", err)
	}

	date := biomarker.Ptr(biomarker.Date(now))
	if _, err := store.Append(ctx, []biomarker.Observation{
		{Metric: biomarker.Systolic, Value: 118, Date: date, Source: biomarker.SourceManual},
		{Metric: biomarker.Diastolic, Value: 76, Date: date, Source: biomarker.SourceManual},
	}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	p, err := Load(ctx, store)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if p.Demo().Age != 35 || len(p.Observations[biomarker.Systolic]) != 1 {
		t.Fatalf("unexpected profile %+v", p)
	}

	report := p.Report(score.DefaultEngine(), now)
	if report.RawCoverage == nil || *report.RawCoverage == 0 {
		t.Fatalf("expected blood pressure coverage, got %+v", report.RawCoverage)
	}
}
