// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cinegraph/cinegraph/internal/metrics"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

// Interaction is one event row as ingested through the API.
type Interaction struct {
	UserID     int64
	ItemID     int64
	MediaKind  string
	EventKind  string
	EventValue *float64
	OccurredAt time.Time
}

// InsertInteraction writes one event. Exact duplicates (same user, item,
// kind and timestamp) are ignored.
func (db *DB) InsertInteraction(ctx context.Context, row Interaction) error {
	return db.InsertInteractions(ctx, []Interaction{row})
}

// InsertInteractions writes a batch of events in one transaction.
func (db *DB) InsertInteractions(ctx context.Context, rows []Interaction) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := db.queryContext(ctx)
	defer cancel()
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert interactions: %w", err)
	}
	defer rollbackQuietly(tx)

	const q = `INSERT OR IGNORE INTO user_interactions
		(user_id, item_id, media_kind, event_kind, event_value, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, q,
			row.UserID, row.ItemID, row.MediaKind, row.EventKind,
			row.EventValue, row.OccurredAt); err != nil {
			return fmt.Errorf("insert interaction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert interactions: %w", err)
	}

	metrics.DatabaseQueryDuration.WithLabelValues("insert_interactions").Observe(time.Since(start).Seconds())
	return nil
}

// ReplaceUserInteractions drops every event a user has and writes the
// given rows in their place, atomically.
func (db *DB) ReplaceUserInteractions(ctx context.Context, userID int64, rows []Interaction) error {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace user: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_interactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user interactions: %w", err)
	}

	const q = `INSERT OR IGNORE INTO user_interactions
		(user_id, item_id, media_kind, event_kind, event_value, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, q,
			userID, row.ItemID, row.MediaKind, row.EventKind,
			row.EventValue, row.OccurredAt); err != nil {
			return fmt.Errorf("insert replacement interaction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace user: %w", err)
	}

	metrics.DatabaseQueryDuration.WithLabelValues("replace_user").Observe(time.Since(start).Seconds())
	return nil
}

// LoadInteractions returns all events for one catalog partition ordered
// by occurrence time ascending, with ingestion time as the tie-break so
// reloads preserve ingestion order. Implements recommend.DataStore.
func (db *DB) LoadInteractions(ctx context.Context, partition string) ([]recommend.RawInteraction, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, item_id, event_kind, event_value, occurred_at
		FROM user_interactions
		WHERE media_kind = ?
		ORDER BY occurred_at ASC, ingested_at ASC`, partition)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer closeQuietly(rows)

	var out []recommend.RawInteraction
	for rows.Next() {
		var (
			r        recommend.RawInteraction
			kind     string
			value    sql.NullFloat64
			occurred sql.NullTime
		)
		if err := rows.Scan(&r.UserID, &r.ItemID, &kind, &value, &occurred); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		r.Kind = recommend.ParseEventKind(kind)
		if value.Valid {
			v := value.Float64
			r.Value = &v
		}
		if occurred.Valid {
			r.OccurredAt = occurred.Time
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}

	metrics.DatabaseQueryDuration.WithLabelValues("load_interactions").Observe(time.Since(start).Seconds())
	return out, nil
}

func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
