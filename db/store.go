/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package db persists observations, imports, demographics and the
// extraction log, in memory or in PostgreSQL.
package db

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

// Store is the observation store.
type Store interface {
	// Latest returns the newest observation of a metric, or nil.
	Latest(ctx context.Context, metric biomarker.Metric) (*biomarker.Observation, error)
	// All returns a metric's observations newest first, undated last.
	All(ctx context.Context, metric biomarker.Metric) ([]biomarker.Observation, error)
	// AllObservations groups every observation by metric, each newest first.
	AllObservations(ctx context.Context) (map[biomarker.Metric][]biomarker.Observation, error)
	// Append stores observations that pass their range guard and returns
	// how many were stored.
	Append(ctx context.Context, obs []biomarker.Observation) (int, error)
	DeleteByImport(ctx context.Context, importID string) error

	SaveImport(ctx context.Context, imp biomarker.Import) error
	// DeleteImport removes an import and every observation it owns.
	DeleteImport(ctx context.Context, importID string) error
	// ListImports returns imports by ImportedAt, newest first.
	ListImports(ctx context.Context) ([]biomarker.Import, error)

	// Demographics returns the subject record, or nil if none was saved.
	Demographics(ctx context.Context) (*biomarker.Demographics, error)
	SaveDemographics(ctx context.Context, demo biomarker.Demographics) error

	LogExtraction(ctx context.Context, entry ExtractionLogEntry) error
	// Extractions returns unexpired log entries, newest first.
	Extractions(ctx context.Context, now time.Time) ([]ExtractionLogEntry, error)

	Snapshot(ctx context.Context) (Snapshot, error)
	// ReplaceAll discards all profile data and writes snap in its place.
	ReplaceAll(ctx context.Context, snap Snapshot) error
}

// Snapshot is the complete profile data set.
type Snapshot struct {
	Demographics *biomarker.Demographics
	Observations []biomarker.Observation
	Imports      []biomarker.Import
}

// Store kinds accepted by Open.
const (
	KindMemory   = "memory"
	KindPostgres = "postgres"
)

// Options configures Open.
type Options struct {
	Kind        string
	DatabaseURL string
	StateFile   string
}

// Open returns the configured store. The returned close function releases
// its resources.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	switch opts.Kind {
	case "", KindMemory:
		s, err := NewMemoryStore(opts.StateFile)
		if err != nil {
			return nil, nil, err
		}

		return s, func() {}, nil
	case KindPostgres:
		if err := Init(ctx, opts.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		if err := SyncSchema(ctx, opts.DatabaseURL); err != nil {
			Close()
			return nil, nil, fmt.Errorf("failed to sync schema: %w", err)
		}

		return NewPostgresStore(GetPool()), Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStoreKind, opts.Kind)
	}
}

// plausibleOnly drops observations that fail their range guard.
func plausibleOnly(obs []biomarker.Observation) []biomarker.Observation {
	out := make([]biomarker.Observation, 0, len(obs))

	for _, o := range obs {
		if !biomarker.Plausible(o.Metric, o.Value) {
			logger.Warn("Rejected implausible observation", "metric", o.Metric, "source_type", o.Source)
			continue
		}

		out = append(out, o)
	}

	return out
}

// sortNewestFirst orders by date descending with undated last. Ties keep
// the later insertion first, so obs must be in insertion order.
func sortNewestFirst(obs []biomarker.Observation) {
	slices.Reverse(obs)
	slices.SortStableFunc(obs, func(a, b biomarker.Observation) int {
		switch {
		case a.Date == nil && b.Date == nil:
			return 0
		case a.Date == nil:
			return 1
		case b.Date == nil:
			return -1
		default:
			return b.Date.Compare(*a.Date)
		}
	})
}

func sortImports(imports []biomarker.Import) {
	slices.SortStableFunc(imports, func(a, b biomarker.Import) int {
		return cmp.Compare(b.ImportedAt.UnixNano(), a.ImportedAt.UnixNano())
	})
}
