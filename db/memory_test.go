// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

func TestMemoryStoreContract(t *testing.T) {
	t.Parallel()

	runStoreContract(t, func(t *testing.T) Store {
		t.Helper()

		s, err := NewMemoryStore("")
		if err != nil {
			t.Fatalf("NewMemoryStore returned error: %v", err)
		}

		return s
	})
}

func TestMemoryStoreStateFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "baseline.json")

	store, err := NewMemoryStore(path)
	if err != nil {
		t.Fatalf("NewMemoryStore returned error: %v", err)
	}

	if err := store.SaveDemographics(ctx, biomarker.Demographics{Age: 35, Sex: biomarker.SexMale}); err != nil {
		t.Fatalf("SaveDemographics returned error: %v", err)
	}

	mustAppend(t, store, obsFor(biomarker.Systolic, 118, day(2024, time.March, 3), nil))

	entry, err := NewExtractionLogEntry("parse-voice", "35 male", map[string]int{"age": 35}, time.Second, time.Now())
	if err != nil {
		t.Fatalf("NewExtractionLogEntry returned error: %v", err)
	}

	if err := store.LogExtraction(ctx, entry); err != nil {
		t.Fatalf("LogExtraction returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected state file, got %v", err)
	}

	if !strings.Contains(string(data), `"schema_version": 2`) || strings.Contains(string(data), "parse-voice") {
		t.Fatalf("unexpected state file contents: %s", data)
	}

	reopened, err := NewMemoryStore(path)
	if err != nil {
		t.Fatalf("NewMemoryStore returned error on reopen: %v", err)
	}

	latest, err := reopened.Latest(ctx, biomarker.Systolic)
	if err != nil || latest == nil || latest.Value != 118 {
		t.Fatalf("expected systolic 118 after reopen, got %+v, %v", latest, err)
	}

	demo, _ := reopened.Demographics(ctx)
	if demo == nil || demo.Age != 35 {
		t.Fatalf("expected demographics after reopen, got %+v", demo)
	}
}

func TestMemoryStoreRollsBackFailedWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// The parent directory does not exist, so every write fails.
	s, err := NewMemoryStore(filepath.Join(t.TempDir(), "missing", "baseline.json"))
	if err != nil {
		t.Fatalf("NewMemoryStore returned error: %v", err)
	}

	n, err := s.Append(ctx, []biomarker.Observation{obsFor(biomarker.LDL, 118, day(2024, time.March, 2), nil)})
	if err == nil || n != 0 {
		t.Fatalf("expected failed append, got n=%d err=%v", n, err)
	}

	if all, _ := s.All(ctx, biomarker.LDL); len(all) != 0 {
		t.Fatalf("expected append rolled back, got %+v", all)
	}

	if err := s.SaveImport(ctx, biomarker.Import{ID: "imp_1", SourceType: biomarker.SourceLabPDF}); err == nil {
		t.Fatal("expected failed SaveImport")
	}

	if imports, _ := s.ListImports(ctx); len(imports) != 0 {
		t.Fatalf("expected import rolled back, got %+v", imports)
	}

	if err := s.SaveDemographics(ctx, biomarker.Demographics{Age: 40, Sex: biomarker.SexFemale}); err == nil {
		t.Fatal("expected failed SaveDemographics")
	}

	if demo, _ := s.Demographics(ctx); demo != nil {
		t.Fatalf("expected demographics rolled back, got %+v", demo)
	}
}

func TestMemoryStoreRejectsOldStateFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, []byte(`{"schema_version": 1}`), 0o600); err != nil {
		t.Fatalf("failed to write state file: %v", err)
	}

	_, err := NewMemoryStore(path)
	if !errors.Is(err, ErrUnsupportedSchemaVersion) {
		t.Fatalf("expected ErrUnsupportedSchemaVersion, got %v", err)
	}
}

func TestNewExtractionLogEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC)
	input := strings.Repeat("é", 2500)

	entry, err := NewExtractionLogEntry("parse-lab", input, nil, 1500*time.Millisecond, now)
	if err != nil {
		t.Fatalf("NewExtractionLogEntry returned error: %v", err)
	}

	prefix := "parse-lab/1727784000000-"
	if !strings.HasPrefix(entry.ID, prefix) || len(entry.ID) != len(prefix)+8 {
		t.Fatalf("unexpected id %q", entry.ID)
	}

	if n := len([]rune(entry.Input)); n != 2000 {
		t.Fatalf("expected input capped at 2000 characters, got %d", n)
	}

	if entry.DurationMS != 1500 || !entry.ExpiresAt.Equal(now.Add(30*24*time.Hour)) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if string(entry.Output) != "null" {
		t.Fatalf("expected null output, got %s", entry.Output)
	}
}

func TestRestoreAcceptsTimestampDates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := NewMemoryStore("")

	backup := `{"schema_version": 2, "profile": null, "imports": [],
		"observations": [
			{"metric": "apob", "value": 88, "date": "2024-05-01T10:30:00Z", "source": "legacy"},
			{"metric": "apob", "value": 9000, "date": null, "source": "legacy"}
		]}`

	stats, err := Restore(ctx, store, strings.NewReader(backup))
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}

	if stats.Observations != 1 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	latest, _ := store.Latest(ctx, biomarker.ApoB)
	if latest == nil || latest.Date == nil || !latest.Date.Equal(*day(2024, time.May, 1)) {
		t.Fatalf("expected date truncated to 2024-05-01, got %+v", latest)
	}
}

func TestRestoreRejectsMissingVersion(t *testing.T) {
	t.Parallel()

	store, _ := NewMemoryStore("")

	_, err := Restore(context.Background(), store, strings.NewReader(`{"observations": []}`))

	var versionErr *SchemaVersionError
	if !errors.As(err, &versionErr) || versionErr.Got != "missing" {
		t.Fatalf("expected missing version error, got %v", err)
	}

	_, err = Restore(context.Background(), store, strings.NewReader(`not json`))
	if !errors.Is(err, ErrInvalidBackup) {
		t.Fatalf("expected ErrInvalidBackup, got %v", err)
	}
}
