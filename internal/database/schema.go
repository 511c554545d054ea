// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package database

import "fmt"

// Schema statements run at startup, in order. Idempotent by design.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS user_interactions (
		user_id     BIGINT NOT NULL,
		item_id     BIGINT NOT NULL,
		media_kind  VARCHAR NOT NULL,
		event_kind  VARCHAR NOT NULL,
		event_value DOUBLE,
		occurred_at TIMESTAMP NOT NULL,
		ingested_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_interactions_event
		ON user_interactions (user_id, item_id, media_kind, event_kind, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_kind
		ON user_interactions (media_kind)`,
	`CREATE TABLE IF NOT EXISTS user_follows (
		follower_id BIGINT NOT NULL,
		followee_id BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_follows_edge
		ON user_follows (follower_id, followee_id)`,
}

func (db *DB) initSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}
