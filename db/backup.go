/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

// SchemaVersion is the backup format version written and accepted.
const SchemaVersion = 2

type backupFile struct {
	SchemaVersion int                     `json:"schema_version"`
	ExportedAt    time.Time               `json:"exported_at"`
	Profile       *biomarker.Demographics `json:"profile"`
	Observations  []backupObservation     `json:"observations"`
	Imports       []backupImport          `json:"imports"`
}

// Dates are calendar dates on the wire.
type backupObservation struct {
	Metric   biomarker.Metric `json:"metric"`
	Value    float64          `json:"value"`
	Date     *string          `json:"date"`
	Source   biomarker.Source `json:"source"`
	ImportID *string          `json:"import_id,omitempty"`
	Unit     *string          `json:"unit,omitempty"`
}

type backupImport struct {
	ID               string             `json:"id"`
	SourceType       biomarker.Source   `json:"source_type"`
	Filename         *string            `json:"filename"`
	DrawDate         *string            `json:"draw_date"`
	Fasting          *bool              `json:"fasting"`
	ImportedAt       time.Time          `json:"imported_at"`
	MetricsExtracted []biomarker.Metric `json:"metrics_extracted"`
}

// RestoreStats summarises a restore.
type RestoreStats struct {
	Observations int `json:"observations"`
	Imports      int `json:"imports"`
	Rejected     int `json:"rejected"`
}

// Export writes every profile record to w as a backup document.
func Export(ctx context.Context, store Store, w io.Writer, now time.Time) error {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read profile data: %w", err)
	}

	data, err := encodeBackup(snap, now)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return nil
}

// Restore replaces all profile data with the backup read from r. A backup
// of another schema version fails with a *SchemaVersionError before
// anything is written.
func Restore(ctx context.Context, store Store, r io.Reader) (RestoreStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RestoreStats{}, fmt.Errorf("failed to read backup: %w", err)
	}

	snap, rejected, err := decodeBackupCounting(data)
	if err != nil {
		return RestoreStats{}, err
	}

	if err := store.ReplaceAll(ctx, snap); err != nil {
		return RestoreStats{}, fmt.Errorf("failed to restore backup: %w", err)
	}

	stats := RestoreStats{
		Observations: len(snap.Observations),
		Imports:      len(snap.Imports),
		Rejected:     rejected,
	}

	logger.Info("Restored backup", "observations", stats.Observations, "imports", stats.Imports, "rejected", stats.Rejected)

	return stats, nil
}

func encodeBackup(snap Snapshot, now time.Time) ([]byte, error) {
	file := backupFile{
		SchemaVersion: SchemaVersion,
		ExportedAt:    now.UTC(),
		Profile:       snap.Demographics,
		Observations:  make([]backupObservation, 0, len(snap.Observations)),
		Imports:       make([]backupImport, 0, len(snap.Imports)),
	}

	for _, o := range snap.Observations {
		file.Observations = append(file.Observations, backupObservation{
			Metric:   o.Metric,
			Value:    o.Value,
			Date:     formatDate(o.Date),
			Source:   o.Source,
			ImportID: o.ImportID,
			Unit:     o.Unit,
		})
	}

	for _, imp := range snap.Imports {
		file.Imports = append(file.Imports, backupImport{
			ID:               imp.ID,
			SourceType:       imp.SourceType,
			Filename:         imp.Filename,
			DrawDate:         formatDate(imp.DrawDate),
			Fasting:          imp.Fasting,
			ImportedAt:       imp.ImportedAt,
			MetricsExtracted: imp.MetricsExtracted,
		})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	return data, nil
}

func decodeBackup(data []byte) (Snapshot, error) {
	snap, _, err := decodeBackupCounting(data)
	return snap, err
}

func decodeBackupCounting(data []byte) (Snapshot, int, error) {
	var header struct {
		SchemaVersion json.RawMessage `json:"schema_version"`
	}

	if err := json.Unmarshal(data, &header); err != nil {
		return Snapshot{}, 0, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}

	got := string(bytes.TrimSpace(header.SchemaVersion))
	if got != fmt.Sprint(SchemaVersion) {
		if got == "" {
			got = "missing"
		}

		return Snapshot{}, 0, &SchemaVersionError{Got: got, Want: SchemaVersion}
	}

	var file backupFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Snapshot{}, 0, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}

	snap := Snapshot{
		Demographics: file.Profile,
		Observations: make([]biomarker.Observation, 0, len(file.Observations)),
		Imports:      make([]biomarker.Import, 0, len(file.Imports)),
	}

	rejected := 0

	for i, o := range file.Observations {
		date, err := parseDate(o.Date)
		if err != nil {
			return Snapshot{}, 0, fmt.Errorf("%w: observation %d: %w", ErrInvalidBackup, i, err)
		}

		if !biomarker.Plausible(o.Metric, o.Value) {
			rejected++
			continue
		}

		snap.Observations = append(snap.Observations, biomarker.Observation{
			Metric:   o.Metric,
			Value:    o.Value,
			Date:     date,
			Source:   o.Source,
			ImportID: o.ImportID,
			Unit:     o.Unit,
		})
	}

	for i, imp := range file.Imports {
		drawDate, err := parseDate(imp.DrawDate)
		if err != nil {
			return Snapshot{}, 0, fmt.Errorf("%w: import %d: %w", ErrInvalidBackup, i, err)
		}

		snap.Imports = append(snap.Imports, biomarker.Import{
			ID:               imp.ID,
			SourceType:       imp.SourceType,
			Filename:         imp.Filename,
			DrawDate:         drawDate,
			Fasting:          imp.Fasting,
			ImportedAt:       imp.ImportedAt,
			MetricsExtracted: imp.MetricsExtracted,
		})
	}

	return snap, rejected, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}

	s := t.Format(time.DateOnly)

	return &s
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.DateOnly, *s); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date %q: %w", *s, err)
	}

	d := biomarker.Date(t)

	return &d, nil
}
