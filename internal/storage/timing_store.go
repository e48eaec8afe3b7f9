package storage

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"
)

// DefaultRetention is how long samples stay in the percentile window.
const DefaultRetention = 7 * 24 * time.Hour

// timeLayout is fixed width so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// TimingRecord is one persisted stage sample.
type TimingRecord struct {
	ID         int64
	RunID      string
	Stage      string
	Duration   time.Duration
	RecordedAt time.Time
}

// RecordSamples persists every sample of one run in a single transaction.
func (db *DB) RecordSamples(ctx context.Context, runID string, samples map[string][]time.Duration) error {
	if len(samples) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(timeLayout)

	stages := make([]string, 0, len(samples))
	for s := range samples {
		stages = append(stages, s)
	}
	sort.Strings(stages)

	return db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO timing_samples (run_id, stage, duration_us, recorded_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, stage := range stages {
			for _, d := range samples[stage] {
				if _, err := stmt.ExecContext(ctx, runID, stage, d.Microseconds(), now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LoadSamples returns the samples recorded at or after since, grouped by
// stage, each group in recording order.
func (db *DB) LoadSamples(ctx context.Context, since time.Time) (map[string][]time.Duration, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT stage, duration_us
		FROM timing_samples
		WHERE recorded_at >= ?
		ORDER BY id
	`, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]time.Duration)
	for rows.Next() {
		var stage string
		var us int64
		if err := rows.Scan(&stage, &us); err != nil {
			return nil, err
		}
		out[stage] = append(out[stage], time.Duration(us)*time.Microsecond)
	}
	return out, rows.Err()
}

// Records returns the most recent samples, optionally filtered by stage.
func (db *DB) Records(ctx context.Context, limit int, stage string) ([]TimingRecord, error) {
	query := `
		SELECT id, run_id, stage, duration_us, recorded_at
		FROM timing_samples
	`
	args := []any{}
	if stage != "" {
		query += " WHERE stage = ?"
		args = append(args, stage)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TimingRecord
	for rows.Next() {
		var r TimingRecord
		var us int64
		var recordedAt string
		if err := rows.Scan(&r.ID, &r.RunID, &r.Stage, &us, &recordedAt); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(us) * time.Microsecond
		r.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// CleanupOldSamples removes samples older than the retention period
func (db *DB) CleanupOldSamples(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)
	result, err := db.conn.ExecContext(ctx, `DELETE FROM timing_samples WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Stats returns the sample count and the oldest and newest record times.
func (db *DB) Stats(ctx context.Context) (total int64, oldest, newest *time.Time, err error) {
	var oldestStr, newestStr sql.NullString
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(recorded_at), MAX(recorded_at)
		FROM timing_samples
	`).Scan(&total, &oldestStr, &newestStr)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil, nil
	}
	if err != nil {
		return 0, nil, nil, err
	}
	if oldestStr.Valid {
		if t, perr := time.Parse(timeLayout, oldestStr.String); perr == nil {
			oldest = &t
		}
	}
	if newestStr.Valid {
		if t, perr := time.Parse(timeLayout, newestStr.String); perr == nil {
			newest = &t
		}
	}
	return total, oldest, newest, nil
}
