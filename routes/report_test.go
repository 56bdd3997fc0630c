// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/score"
)

func seedProfile(t *testing.T, deps *Deps) {
	t.Helper()

	ctx := context.Background()

	if err := deps.Store.SaveDemographics(ctx, biomarker.Demographics{Age: 35, Sex: biomarker.SexMale}); err != nil {
		t.Fatalf("SaveDemographics returned error: %v", err)
	}

	date := biomarker.Ptr(biomarker.Date(testNow))
	if _, err := deps.Store.Append(ctx, []biomarker.Observation{
		{Metric: biomarker.LDL, Value: 118, Date: date, Source: biomarker.SourceLabPDF},
	}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
}

func TestReport(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t)
	seedProfile(t, deps)

	rec := serve(t, deps, http.MethodGet, "/report", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var report score.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed decoding report: %v", err)
	}

	if len(report.Results) != 20 || report.RawCoverage == nil || *report.RawCoverage == 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestReportChart(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t)

	rec := serve(t, deps, http.MethodGet, "/report/chart/ldl_c", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without data, got %d", rec.Code)
	}

	assertErrorMessage(t, serve(t, deps, http.MethodGet, "/report/chart/bogus", "", ""), http.StatusNotFound, "unknown metric")

	seedProfile(t, deps)

	rec = serve(t, deps, http.MethodGet, "/report/chart/ldl_c", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}

	if !strings.Contains(rec.Body.String(), "LDL-C") {
		t.Fatal("expected chart title in body")
	}

	assertErrorMessage(t, serve(t, deps, http.MethodGet, "/report/chart/ldl_c?since=soon", "", ""), http.StatusBadRequest, "since must be YYYY-MM-DD")

	rec = serve(t, deps, http.MethodGet, "/report/chart/ldl_c?since=2999-01-01", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when nothing is recent enough, got %d", rec.Code)
	}
}

func TestReportWithoutStore(t *testing.T) {
	t.Parallel()

	deps := &Deps{}

	assertErrorMessage(t, serve(t, deps, http.MethodGet, "/report", "", ""), http.StatusNotFound, "not found")
	assertErrorMessage(t, serve(t, deps, http.MethodGet, "/extractions", "", ""), http.StatusNotFound, "not found")
}
