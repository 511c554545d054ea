// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cinegraph/cinegraph/internal/metrics"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

// SyncFollows replaces a follower's entire followee set atomically.
func (db *DB) SyncFollows(ctx context.Context, followerID int64, followeeIDs []int64) error {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin follows sync: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_follows WHERE follower_id = ?`, followerID); err != nil {
		return fmt.Errorf("delete follows: %w", err)
	}
	for _, followeeID := range followeeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_follows (follower_id, followee_id) VALUES (?, ?)`,
			followerID, followeeID); err != nil {
			return fmt.Errorf("insert follow edge: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit follows sync: %w", err)
	}

	metrics.FollowEdgesSynced.Add(float64(len(followeeIDs)))
	metrics.DatabaseQueryDuration.WithLabelValues("sync_follows").Observe(time.Since(start).Seconds())
	return nil
}

// LoadFollows returns the full follow-edge table. Implements
// recommend.DataStore.
func (db *DB) LoadFollows(ctx context.Context) ([]recommend.FollowEdge, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT follower_id, followee_id FROM user_follows`)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer closeQuietly(rows)

	var out []recommend.FollowEdge
	for rows.Next() {
		var e recommend.FollowEdge
		if err := rows.Scan(&e.FollowerID, &e.FolloweeID); err != nil {
			return nil, fmt.Errorf("scan follow edge: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follows: %w", err)
	}

	metrics.DatabaseQueryDuration.WithLabelValues("load_follows").Observe(time.Since(start).Seconds())
	return out, nil
}
