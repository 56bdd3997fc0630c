/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/humaidq/baseline/biomarker"
)

// MemoryStore keeps everything in memory. With a state file set, profile
// data is written there in the backup format after every change and
// loaded from it on start. The extraction log is never written out.
type MemoryStore struct {
	mu           sync.RWMutex
	path         string
	demographics *biomarker.Demographics
	observations []biomarker.Observation // insertion order
	imports      map[string]biomarker.Import
	extractions  []ExtractionLogEntry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store persisted to path, or a purely in-memory
// one when path is empty.
func NewMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{
		path:    path,
		imports: make(map[string]biomarker.Import),
	}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	snap, err := decodeBackup(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load state file %s: %w", path, err)
	}

	s.load(snap)
	logger.Debug("Loaded state file", "path", path, "observations", len(s.observations), "imports", len(s.imports))

	return s, nil
}

func (s *MemoryStore) load(snap Snapshot) {
	s.demographics = nil
	if snap.Demographics != nil {
		d := *snap.Demographics
		s.demographics = &d
	}

	s.observations = slices.Clone(snap.Observations)

	s.imports = make(map[string]biomarker.Import, len(snap.Imports))
	for _, imp := range snap.Imports {
		s.imports[imp.ID] = imp
	}
}

func (s *MemoryStore) snapshot() Snapshot {
	snap := Snapshot{
		Observations: slices.Clone(s.observations),
		Imports:      make([]biomarker.Import, 0, len(s.imports)),
	}

	if s.demographics != nil {
		d := *s.demographics
		snap.Demographics = &d
	}

	for _, imp := range s.imports {
		snap.Imports = append(snap.Imports, imp)
	}
	sortImports(snap.Imports)

	return snap
}

// persist writes the state file. Callers hold the write lock.
func (s *MemoryStore) persist() error {
	if s.path == "" {
		return nil
	}

	data, err := encodeBackup(s.snapshot(), time.Now())
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".baseline-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

func (s *MemoryStore) byMetric(metric biomarker.Metric) []biomarker.Observation {
	var out []biomarker.Observation

	for _, o := range s.observations {
		if o.Metric == metric {
			out = append(out, o)
		}
	}

	sortNewestFirst(out)

	return out
}

func (s *MemoryStore) Latest(_ context.Context, metric biomarker.Metric) (*biomarker.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obs := s.byMetric(metric)
	if len(obs) == 0 {
		return nil, nil
	}

	return &obs[0], nil
}

func (s *MemoryStore) All(_ context.Context, metric biomarker.Metric) ([]biomarker.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byMetric(metric), nil
}

func (s *MemoryStore) AllObservations(_ context.Context) (map[biomarker.Metric][]biomarker.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := make(map[biomarker.Metric][]biomarker.Observation)
	for _, o := range s.observations {
		grouped[o.Metric] = append(grouped[o.Metric], o)
	}

	for _, obs := range grouped {
		sortNewestFirst(obs)
	}

	return grouped, nil
}

func (s *MemoryStore) Append(_ context.Context, obs []biomarker.Observation) (int, error) {
	accepted := plausibleOnly(obs)
	if len(accepted) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.observations
	s.observations = append(slices.Clip(prev), accepted...)

	if err := s.persist(); err != nil {
		s.observations = prev
		return 0, err
	}

	return len(accepted), nil
}

func (s *MemoryStore) DeleteByImport(_ context.Context, importID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteByImport(importID)

	return s.persist()
}

func (s *MemoryStore) deleteByImport(importID string) {
	s.observations = slices.DeleteFunc(s.observations, func(o biomarker.Observation) bool {
		return o.ImportID != nil && *o.ImportID == importID
	})
}

func (s *MemoryStore) SaveImport(_ context.Context, imp biomarker.Import) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.imports[imp.ID]
	s.imports[imp.ID] = imp

	if err := s.persist(); err != nil {
		if existed {
			s.imports[imp.ID] = prev
		} else {
			delete(s.imports, imp.ID)
		}

		return err
	}

	return nil
}

func (s *MemoryStore) DeleteImport(_ context.Context, importID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteByImport(importID)
	delete(s.imports, importID)

	return s.persist()
}

func (s *MemoryStore) ListImports(_ context.Context) ([]biomarker.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot().Imports, nil
}

func (s *MemoryStore) Demographics(_ context.Context) (*biomarker.Demographics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.demographics == nil {
		return nil, nil
	}

	d := *s.demographics

	return &d, nil
}

func (s *MemoryStore) SaveDemographics(_ context.Context, demo biomarker.Demographics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.demographics
	s.demographics = &demo

	if err := s.persist(); err != nil {
		s.demographics = prev
		return err
	}

	return nil
}

func (s *MemoryStore) LogExtraction(_ context.Context, entry ExtractionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.extractions = slices.DeleteFunc(s.extractions, func(e ExtractionLogEntry) bool {
		return !e.ExpiresAt.After(entry.Timestamp)
	})
	s.extractions = append(s.extractions, entry)

	return nil
}

func (s *MemoryStore) Extractions(_ context.Context, now time.Time) ([]ExtractionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ExtractionLogEntry

	for i := len(s.extractions) - 1; i >= 0; i-- {
		if e := s.extractions[i]; e.ExpiresAt.After(now) {
			out = append(out, e)
		}
	}

	return out, nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot(), nil
}

func (s *MemoryStore) ReplaceAll(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(snap)

	return s.persist()
}
