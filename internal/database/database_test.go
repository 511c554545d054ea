// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package database

import (
	"context"
	"testing"
	"time"

	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{
		Path:         ":memory:",
		MaxMemory:    "256MB",
		QueryTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func fv(v float64) *float64 { return &v }

func TestInsertAndLoadInteractions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	at := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

	rows := []Interaction{
		{UserID: 1, ItemID: 10, MediaKind: "movie", EventKind: "watched", OccurredAt: at},
		{UserID: 1, ItemID: 10, MediaKind: "movie", EventKind: "rating", EventValue: fv(8), OccurredAt: at.Add(time.Hour)},
		{UserID: 2, ItemID: 20, MediaKind: "tv", EventKind: "favorite", OccurredAt: at},
	}
	if err := db.InsertInteractions(ctx, rows); err != nil {
		t.Fatalf("insert: %v", err)
	}

	movies, err := db.LoadInteractions(ctx, "movie")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("loaded %d movie rows, want 2", len(movies))
	}
	// Ordered by occurrence time ascending.
	if movies[0].Kind != recommend.EventWatched || movies[1].Kind != recommend.EventRating {
		t.Errorf("order/kind mismatch: %+v", movies)
	}
	if movies[1].Value == nil || *movies[1].Value != 8 {
		t.Errorf("rating value not preserved: %+v", movies[1])
	}
	if !movies[0].OccurredAt.Equal(at) {
		t.Errorf("occurred_at = %v, want %v", movies[0].OccurredAt, at)
	}

	tv, err := db.LoadInteractions(ctx, "tv")
	if err != nil {
		t.Fatalf("load tv: %v", err)
	}
	if len(tv) != 1 || tv[0].UserID != 2 {
		t.Errorf("tv rows = %+v", tv)
	}
}

func TestInsertInteractionDeduplicates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	at := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	row := Interaction{UserID: 1, ItemID: 10, MediaKind: "movie", EventKind: "watched", OccurredAt: at}

	if err := db.InsertInteraction(ctx, row); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertInteraction(ctx, row); err != nil {
		t.Fatalf("duplicate insert should be ignored, got %v", err)
	}

	rows, err := db.LoadInteractions(ctx, "movie")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("loaded %d rows, want 1 after dedupe", len(rows))
	}
}

func TestReplaceUserInteractions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	at := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

	seed := []Interaction{
		{UserID: 1, ItemID: 10, MediaKind: "movie", EventKind: "watched", OccurredAt: at},
		{UserID: 1, ItemID: 20, MediaKind: "movie", EventKind: "watched", OccurredAt: at},
		{UserID: 2, ItemID: 10, MediaKind: "movie", EventKind: "watched", OccurredAt: at},
	}
	if err := db.InsertInteractions(ctx, seed); err != nil {
		t.Fatal(err)
	}

	replacement := []Interaction{
		{ItemID: 30, MediaKind: "movie", EventKind: "favorite", OccurredAt: at.Add(time.Hour)},
	}
	if err := db.ReplaceUserInteractions(ctx, 1, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}

	rows, err := db.LoadInteractions(ctx, "movie")
	if err != nil {
		t.Fatal(err)
	}
	var user1, user2 int
	for _, r := range rows {
		switch r.UserID {
		case 1:
			user1++
			if r.ItemID != 30 {
				t.Errorf("user 1 kept stale item %d", r.ItemID)
			}
		case 2:
			user2++
		}
	}
	if user1 != 1 || user2 != 1 {
		t.Errorf("rows per user = %d/%d, want 1/1", user1, user2)
	}
}

func TestSyncAndLoadFollows(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SyncFollows(ctx, 1, []int64{2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := db.SyncFollows(ctx, 2, []int64{1}); err != nil {
		t.Fatal(err)
	}

	edges, err := db.LoadFollows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 3 {
		t.Fatalf("loaded %d edges, want 3", len(edges))
	}

	// Re-sync replaces the previous followee set.
	if err := db.SyncFollows(ctx, 1, []int64{5}); err != nil {
		t.Fatal(err)
	}
	edges, err = db.LoadFollows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("loaded %d edges after re-sync, want 2", len(edges))
	}
	for _, e := range edges {
		if e.FollowerID == 1 && e.FolloweeID != 5 {
			t.Errorf("stale followee %d survived re-sync", e.FolloweeID)
		}
	}
}

func TestLoadInteractionsEmptyPartition(t *testing.T) {
	db := testDB(t)
	rows, err := db.LoadInteractions(context.Background(), "movie")
	if err != nil {
		t.Fatalf("load from empty table: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}

func TestPing(t *testing.T) {
	db := testDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}
