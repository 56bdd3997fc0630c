/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humaidq/baseline/biomarker"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var observationColumns = []string{"metric", "value", "date", "source", "import_id", "unit"}

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an initialized pool.
func NewPostgresStore(p *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: p}
}

func (s *PostgresStore) ready() error {
	if s == nil || s.pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	return nil
}

func (s *PostgresStore) queryObservations(ctx context.Context, where sq.Sqlizer, limit uint64) ([]biomarker.Observation, error) {
	q := psql.Select(observationColumns...).
		From("observations").
		OrderBy("date DESC NULLS LAST", "id DESC")
	if where != nil {
		q = q.Where(where)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build observation query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []biomarker.Observation

	for rows.Next() {
		var (
			o      biomarker.Observation
			metric string
			source string
		)

		if err := rows.Scan(&metric, &o.Value, &o.Date, &source, &o.ImportID, &o.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		o.Metric = biomarker.Metric(metric)
		o.Source = biomarker.Source(source)
		out = append(out, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return out, nil
}

func (s *PostgresStore) Latest(ctx context.Context, metric biomarker.Metric) (*biomarker.Observation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	obs, err := s.queryObservations(ctx, sq.Eq{"metric": string(metric)}, 1)
	if err != nil {
		return nil, err
	}

	if len(obs) == 0 {
		return nil, nil
	}

	return &obs[0], nil
}

func (s *PostgresStore) All(ctx context.Context, metric biomarker.Metric) ([]biomarker.Observation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	return s.queryObservations(ctx, sq.Eq{"metric": string(metric)}, 0)
}

func (s *PostgresStore) AllObservations(ctx context.Context) (map[biomarker.Metric][]biomarker.Observation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	obs, err := s.queryObservations(ctx, nil, 0)
	if err != nil {
		return nil, err
	}

	// Global order is already newest first, so each group is too.
	grouped := make(map[biomarker.Metric][]biomarker.Observation)
	for _, o := range obs {
		grouped[o.Metric] = append(grouped[o.Metric], o)
	}

	return grouped, nil
}

// Keeps each insert well under the 65535 bind parameter limit.
const insertBatchSize = 1000

func insertObservations(ctx context.Context, tx pgx.Tx, obs []biomarker.Observation) error {
	for batch := range slices.Chunk(obs, insertBatchSize) {
		q := psql.Insert("observations").Columns(observationColumns...)
		for _, o := range batch {
			q = q.Values(string(o.Metric), o.Value, o.Date, string(o.Source), o.ImportID, o.Unit)
		}

		query, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build observation insert: %w", err)
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert observations: %w", err)
		}
	}

	return nil
}

func (s *PostgresStore) Append(ctx context.Context, obs []biomarker.Observation) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	accepted := plausibleOnly(obs)
	if len(accepted) == 0 {
		return 0, nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertObservations(ctx, tx, accepted)
	})
	if err != nil {
		return 0, err
	}

	return len(accepted), nil
}

func (s *PostgresStore) DeleteByImport(ctx context.Context, importID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	query, args, err := psql.Delete("observations").Where(sq.Eq{"import_id": importID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete observations: %w", err)
	}

	return nil
}

func metricStrings(metrics []biomarker.Metric) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = string(m)
	}

	return out
}

func insertImport(ctx context.Context, tx pgx.Tx, imp biomarker.Import) error {
	query, args, err := psql.Insert("imports").
		Columns("id", "source_type", "filename", "draw_date", "fasting", "imported_at", "metrics_extracted").
		Values(imp.ID, string(imp.SourceType), imp.Filename, imp.DrawDate, imp.Fasting, imp.ImportedAt, metricStrings(imp.MetricsExtracted)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			source_type = EXCLUDED.source_type,
			filename = EXCLUDED.filename,
			draw_date = EXCLUDED.draw_date,
			fasting = EXCLUDED.fasting,
			imported_at = EXCLUDED.imported_at,
			metrics_extracted = EXCLUDED.metrics_extracted`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build import insert: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save import: %w", err)
	}

	return nil
}

func (s *PostgresStore) SaveImport(ctx context.Context, imp biomarker.Import) error {
	if err := s.ready(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertImport(ctx, tx, imp)
	})
}

func (s *PostgresStore) DeleteImport(ctx context.Context, importID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM observations WHERE import_id = $1`, importID); err != nil {
			return fmt.Errorf("failed to delete import observations: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM imports WHERE id = $1`, importID); err != nil {
			return fmt.Errorf("failed to delete import: %w", err)
		}

		return nil
	})
}

func (s *PostgresStore) ListImports(ctx context.Context) ([]biomarker.Import, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("id", "source_type", "filename", "draw_date", "fasting", "imported_at", "metrics_extracted").
		From("imports").
		OrderBy("imported_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build import query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var imports []biomarker.Import

	for rows.Next() {
		var (
			imp        biomarker.Import
			sourceType string
			metrics    []string
		)

		err := rows.Scan(&imp.ID, &sourceType, &imp.Filename, &imp.DrawDate, &imp.Fasting, &imp.ImportedAt, &metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}

		imp.SourceType = biomarker.Source(sourceType)
		for _, m := range metrics {
			imp.MetricsExtracted = append(imp.MetricsExtracted, biomarker.Metric(m))
		}

		imports = append(imports, imp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating imports: %w", err)
	}

	return imports, nil
}

func (s *PostgresStore) Demographics(ctx context.Context) (*biomarker.Demographics, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var (
		demo biomarker.Demographics
		sex  string
	)

	err := s.pool.QueryRow(ctx, `SELECT age, sex, ethnicity FROM profile WHERE id = 1`).Scan(&demo.Age, &sex, &demo.Ethnicity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get demographics: %w", err)
	}

	demo.Sex = biomarker.Sex(sex)

	return &demo, nil
}

func upsertDemographics(ctx context.Context, tx pgx.Tx, demo biomarker.Demographics) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO profile (id, age, sex, ethnicity, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET age = EXCLUDED.age, sex = EXCLUDED.sex, ethnicity = EXCLUDED.ethnicity, updated_at = NOW()
	`, demo.Age, string(demo.Sex), demo.Ethnicity)
	if err != nil {
		return fmt.Errorf("failed to save demographics: %w", err)
	}

	return nil
}

func (s *PostgresStore) SaveDemographics(ctx context.Context, demo biomarker.Demographics) error {
	if err := s.ready(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return upsertDemographics(ctx, tx, demo)
	})
}

func (s *PostgresStore) LogExtraction(ctx context.Context, entry ExtractionLogEntry) error {
	if err := s.ready(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM extraction_log WHERE expires_at <= $1`, entry.Timestamp); err != nil {
			return fmt.Errorf("failed to prune extraction log: %w", err)
		}

		query, args, err := psql.Insert("extraction_log").
			Columns("id", "endpoint", "input", "output", "duration_ms", "created_at", "expires_at").
			Values(entry.ID, entry.Endpoint, entry.Input, string(entry.Output), entry.DurationMS, entry.Timestamp, entry.ExpiresAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build extraction log insert: %w", err)
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to log extraction: %w", err)
		}

		return nil
	})
}

func (s *PostgresStore) Extractions(ctx context.Context, now time.Time) ([]ExtractionLogEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("id", "endpoint", "input", "output", "duration_ms", "created_at", "expires_at").
		From("extraction_log").
		Where(sq.Gt{"expires_at": now}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction log query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}
	defer rows.Close()

	var out []ExtractionLogEntry

	for rows.Next() {
		var (
			e      ExtractionLogEntry
			output []byte
		)

		if err := rows.Scan(&e.ID, &e.Endpoint, &e.Input, &output, &e.DurationMS, &e.Timestamp, &e.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", err)
		}

		e.Output = output
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extractions: %w", err)
	}

	return out, nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := s.ready(); err != nil {
		return Snapshot{}, err
	}

	demo, err := s.Demographics(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	query, args, err := psql.Select(observationColumns...).From("observations").OrderBy("id ASC").ToSql()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to build observation query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to query observations: %w", err)
	}

	obs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (biomarker.Observation, error) {
		var (
			o      biomarker.Observation
			metric string
			source string
		)

		err := row.Scan(&metric, &o.Value, &o.Date, &source, &o.ImportID, &o.Unit)
		o.Metric = biomarker.Metric(metric)
		o.Source = biomarker.Source(source)

		return o, err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to scan observations: %w", err)
	}

	imports, err := s.ListImports(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Demographics: demo, Observations: obs, Imports: imports}, nil
}

func (s *PostgresStore) ReplaceAll(ctx context.Context, snap Snapshot) error {
	if err := s.ready(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE profile, observations, imports RESTART IDENTITY`); err != nil {
			return fmt.Errorf("failed to clear profile data: %w", err)
		}

		if snap.Demographics != nil {
			if err := upsertDemographics(ctx, tx, *snap.Demographics); err != nil {
				return err
			}
		}

		if err := insertObservations(ctx, tx, snap.Observations); err != nil {
			return err
		}

		for _, imp := range snap.Imports {
			if err := insertImport(ctx, tx, imp); err != nil {
				return err
			}
		}

		return nil
	})
}
