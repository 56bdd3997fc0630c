/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package profile loads everything the scoring engine needs from a store.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/db"
	"github.com/humaidq/baseline/score"
)

// Profile is the subject's stored data.
type Profile struct {
	// Demographics is nil when none were saved.
	Demographics *biomarker.Demographics
	Observations map[biomarker.Metric][]biomarker.Observation
	Imports      []biomarker.Import
}

// Load reads a profile from store.
func Load(ctx context.Context, store db.Store) (Profile, error) {
	demo, err := store.Demographics(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load demographics: %w", err)
	}

	obs, err := store.AllObservations(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load observations: %w", err)
	}

	imports, err := store.ListImports(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load imports: %w", err)
	}

	return Profile{Demographics: demo, Observations: obs, Imports: imports}, nil
}

// Demo returns the demographics, or the zero value when unset. Scoring
// then falls back to the universal reference groups.
func (p Profile) Demo() biomarker.Demographics {
	if p.Demographics == nil {
		return biomarker.Demographics{}
	}

	return *p.Demographics
}

// Report scores the profile in time-series mode.
func (p Profile) Report(engine *score.Engine, now time.Time) score.Report {
	return engine.Score(p.Demo(), p.Observations, p.Imports, now)
}
