// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func obsFor(metric biomarker.Metric, value float64, date *time.Time, importID *string) biomarker.Observation {
	return biomarker.Observation{
		Metric:   metric,
		Value:    value,
		Date:     date,
		Source:   biomarker.SourceLabPDF,
		ImportID: importID,
	}
}

func mustAppend(t *testing.T, store Store, obs ...biomarker.Observation) int {
	t.Helper()

	n, err := store.Append(context.Background(), obs)
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	return n
}

func values(obs []biomarker.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Value
	}

	return out
}

func assertValues(t *testing.T, got []biomarker.Observation, want ...float64) {
	t.Helper()

	v := values(got)
	if len(v) != len(want) {
		t.Fatalf("expected values %v, got %v", want, v)
	}

	for i := range want {
		if v[i] != want[i] {
			t.Fatalf("expected values %v, got %v", want, v)
		}
	}
}

// runStoreContract exercises behaviour every Store must share. newStore
// must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("newest first with undated last", func(t *testing.T) {
		store := newStore(t)

		mustAppend(t, store,
			obsFor(biomarker.LDL, 120, day(2023, time.March, 1), nil),
			obsFor(biomarker.LDL, 140, nil, nil),
			obsFor(biomarker.LDL, 110, day(2024, time.June, 1), nil),
			obsFor(biomarker.HDL, 55, day(2024, time.June, 1), nil),
		)

		all, err := store.All(ctx, biomarker.LDL)
		if err != nil {
			t.Fatalf("All returned error: %v", err)
		}

		assertValues(t, all, 110, 120, 140)

		latest, err := store.Latest(ctx, biomarker.LDL)
		if err != nil {
			t.Fatalf("Latest returned error: %v", err)
		}

		if latest == nil || latest.Value != 110 {
			t.Fatalf("expected latest 110, got %+v", latest)
		}

		grouped, err := store.AllObservations(ctx)
		if err != nil {
			t.Fatalf("AllObservations returned error: %v", err)
		}

		if len(grouped) != 2 {
			t.Fatalf("expected two metrics, got %d", len(grouped))
		}

		assertValues(t, grouped[biomarker.LDL], 110, 120, 140)
	})

	t.Run("same date prefers the later write", func(t *testing.T) {
		store := newStore(t)

		mustAppend(t, store, obsFor(biomarker.ApoB, 95, day(2024, time.May, 2), nil))
		mustAppend(t, store, obsFor(biomarker.ApoB, 90, day(2024, time.May, 2), nil))

		latest, err := store.Latest(ctx, biomarker.ApoB)
		if err != nil {
			t.Fatalf("Latest returned error: %v", err)
		}

		if latest == nil || latest.Value != 90 {
			t.Fatalf("expected the correction to supersede, got %+v", latest)
		}
	})

	t.Run("missing metric", func(t *testing.T) {
		store := newStore(t)

		latest, err := store.Latest(ctx, biomarker.TSH)
		if err != nil || latest != nil {
			t.Fatalf("expected nil, nil; got %+v, %v", latest, err)
		}
	})

	t.Run("range guard rejects implausible values", func(t *testing.T) {
		store := newStore(t)

		n := mustAppend(t, store,
			obsFor(biomarker.VitaminD, 5000, nil, nil),
			obsFor(biomarker.VitaminD, 42, nil, nil),
			obsFor(biomarker.Systolic, 118, nil, nil),
		)
		if n != 2 {
			t.Fatalf("expected 2 stored, got %d", n)
		}

		all, err := store.All(ctx, biomarker.VitaminD)
		if err != nil {
			t.Fatalf("All returned error: %v", err)
		}

		assertValues(t, all, 42)
	})

	t.Run("imports own their observations", func(t *testing.T) {
		store := newStore(t)

		first, second := "imp_a", "imp_b"

		mustAppend(t, store,
			obsFor(biomarker.LDL, 130, day(2024, time.January, 5), &first),
			obsFor(biomarker.HDL, 50, day(2024, time.January, 5), &first),
			obsFor(biomarker.LDL, 115, day(2024, time.July, 5), &second),
		)

		older := biomarker.Import{
			ID: first, SourceType: biomarker.SourceLabPDF, Filename: biomarker.Ptr("jan.txt"),
			DrawDate: day(2024, time.January, 5), Fasting: biomarker.Ptr(false),
			ImportedAt:       time.Date(2024, time.January, 6, 9, 0, 0, 0, time.UTC),
			MetricsExtracted: []biomarker.Metric{biomarker.LDL, biomarker.HDL},
		}
		newer := biomarker.Import{
			ID: second, SourceType: biomarker.SourceLabPDF,
			ImportedAt:       time.Date(2024, time.July, 6, 9, 0, 0, 0, time.UTC),
			MetricsExtracted: []biomarker.Metric{biomarker.LDL},
		}

		for _, imp := range []biomarker.Import{older, newer} {
			if err := store.SaveImport(ctx, imp); err != nil {
				t.Fatalf("SaveImport returned error: %v", err)
			}
		}

		imports, err := store.ListImports(ctx)
		if err != nil {
			t.Fatalf("ListImports returned error: %v", err)
		}

		if len(imports) != 2 || imports[0].ID != second || imports[1].ID != first {
			t.Fatalf("expected imports newest first, got %+v", imports)
		}

		if imports[1].Fasting == nil || *imports[1].Fasting || len(imports[1].MetricsExtracted) != 2 {
			t.Fatalf("import metadata not kept: %+v", imports[1])
		}

		if err := store.DeleteImport(ctx, first); err != nil {
			t.Fatalf("DeleteImport returned error: %v", err)
		}

		ldl, err := store.All(ctx, biomarker.LDL)
		if err != nil {
			t.Fatalf("All returned error: %v", err)
		}

		assertValues(t, ldl, 115)

		hdl, err := store.All(ctx, biomarker.HDL)
		if err != nil {
			t.Fatalf("All returned error: %v", err)
		}

		if len(hdl) != 0 {
			t.Fatalf("expected HDL removed with its import, got %v", values(hdl))
		}

		imports, err = store.ListImports(ctx)
		if err != nil {
			t.Fatalf("ListImports returned error: %v", err)
		}

		if len(imports) != 1 {
			t.Fatalf("expected one import left, got %d", len(imports))
		}

		if err := store.DeleteByImport(ctx, second); err != nil {
			t.Fatalf("DeleteByImport returned error: %v", err)
		}

		if ldl, _ := store.All(ctx, biomarker.LDL); len(ldl) != 0 {
			t.Fatalf("expected no LDL left, got %v", values(ldl))
		}
	})

	t.Run("demographics last write wins", func(t *testing.T) {
		store := newStore(t)

		demo, err := store.Demographics(ctx)
		if err != nil || demo != nil {
			t.Fatalf("expected no demographics, got %+v, %v", demo, err)
		}

		for _, d := range []biomarker.Demographics{
			{Age: 34, Sex: biomarker.SexFemale},
			{Age: 35, Sex: biomarker.SexMale, Ethnicity: "white"},
		} {
			if err := store.SaveDemographics(ctx, d); err != nil {
				t.Fatalf("SaveDemographics returned error: %v", err)
			}
		}

		demo, err = store.Demographics(ctx)
		if err != nil {
			t.Fatalf("Demographics returned error: %v", err)
		}

		if demo == nil || demo.Age != 35 || demo.Sex != biomarker.SexMale || demo.Ethnicity != "white" {
			t.Fatalf("unexpected demographics %+v", demo)
		}
	})

	t.Run("extraction log expires entries", func(t *testing.T) {
		store := newStore(t)

		now := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

		old, err := NewExtractionLogEntry("parse-voice", "old", map[string]int{"age": 30}, time.Second, now.Add(-31*24*time.Hour))
		if err != nil {
			t.Fatalf("NewExtractionLogEntry returned error: %v", err)
		}

		fresh, err := NewExtractionLogEntry("parse-lab", "fresh", map[string]int{"ldl_c": 118}, 2*time.Second, now)
		if err != nil {
			t.Fatalf("NewExtractionLogEntry returned error: %v", err)
		}

		for _, e := range []ExtractionLogEntry{old, fresh} {
			if err := store.LogExtraction(ctx, e); err != nil {
				t.Fatalf("LogExtraction returned error: %v", err)
			}
		}

		entries, err := store.Extractions(ctx, now)
		if err != nil {
			t.Fatalf("Extractions returned error: %v", err)
		}

		if len(entries) != 1 || entries[0].ID != fresh.ID || entries[0].DurationMS != 2000 {
			t.Fatalf("expected only the fresh entry, got %+v", entries)
		}

		if !strings.Contains(string(entries[0].Output), "118") {
			t.Fatalf("expected output kept, got %s", entries[0].Output)
		}
	})

	t.Run("backup round trip", func(t *testing.T) {
		store := newStore(t)

		importID := "imp_round"

		if err := store.SaveDemographics(ctx, biomarker.Demographics{Age: 41, Sex: biomarker.SexFemale}); err != nil {
			t.Fatalf("SaveDemographics returned error: %v", err)
		}

		mustAppend(t, store,
			obsFor(biomarker.LDL, 101, day(2024, time.February, 10), &importID),
			obsFor(biomarker.WeightLbs, 150, nil, nil),
		)

		if err := store.SaveImport(ctx, biomarker.Import{
			ID: importID, SourceType: biomarker.SourceLabPDF,
			DrawDate: day(2024, time.February, 10), ImportedAt: time.Date(2024, time.February, 11, 8, 0, 0, 0, time.UTC),
			MetricsExtracted: []biomarker.Metric{biomarker.LDL},
		}); err != nil {
			t.Fatalf("SaveImport returned error: %v", err)
		}

		var buf bytes.Buffer
		if err := Export(ctx, store, &buf, time.Now()); err != nil {
			t.Fatalf("Export returned error: %v", err)
		}

		target := newStore(t)
		mustAppend(t, target, obsFor(biomarker.HDL, 60, nil, nil))

		stats, err := Restore(ctx, target, &buf)
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}

		if stats.Observations != 2 || stats.Imports != 1 {
			t.Fatalf("unexpected restore stats %+v", stats)
		}

		if hdl, _ := target.All(ctx, biomarker.HDL); len(hdl) != 0 {
			t.Fatalf("expected restore to replace existing data, got HDL %v", values(hdl))
		}

		ldl, err := target.All(ctx, biomarker.LDL)
		if err != nil {
			t.Fatalf("All returned error: %v", err)
		}

		if len(ldl) != 1 || ldl[0].Date == nil || !ldl[0].Date.Equal(*day(2024, time.February, 10)) {
			t.Fatalf("unexpected restored LDL %+v", ldl)
		}

		demo, _ := target.Demographics(ctx)
		if demo == nil || demo.Age != 41 {
			t.Fatalf("expected demographics restored, got %+v", demo)
		}
	})

	t.Run("restore rejects other schema versions", func(t *testing.T) {
		store := newStore(t)

		mustAppend(t, store, obsFor(biomarker.LDL, 99, nil, nil))

		backup := `{"schema_version": 1, "exported_at": "2024-01-01T00:00:00Z", "profile": {"age": 50, "sex": "F"},
			"observations": [{"metric": "ldl_c", "value": 150, "date": "2023-12-01", "source": "lab_pdf"}], "imports": []}`

		_, err := Restore(ctx, store, strings.NewReader(backup))
		if !errors.Is(err, ErrUnsupportedSchemaVersion) {
			t.Fatalf("expected ErrUnsupportedSchemaVersion, got %v", err)
		}

		var versionErr *SchemaVersionError
		if !errors.As(err, &versionErr) || versionErr.Got != "1" || versionErr.Want != SchemaVersion {
			t.Fatalf("expected SchemaVersionError{1, 2}, got %#v", err)
		}

		all, _ := store.All(ctx, biomarker.LDL)
		assertValues(t, all, 99)

		if demo, _ := store.Demographics(ctx); demo != nil {
			t.Fatalf("expected demographics untouched, got %+v", demo)
		}
	})
}
