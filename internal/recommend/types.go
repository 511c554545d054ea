// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"context"
	"time"
)

// Note: This package has no dependencies on other internal packages beyond
// logging. The DataStore interface allows integration with the database
// package without creating circular imports.

// EventKind classifies a raw user-item interaction event.
//
// The set is closed: adding a kind means adding a constant, a ParseEventKind
// case and a Weight case, all checked at compile time by the exhaustive
// switches below.
type EventKind int

const (
	// EventUnknown is any unrecognized event kind. It carries zero weight.
	EventUnknown EventKind = iota
	// EventWatchlist indicates the user queued the item.
	EventWatchlist
	// EventWatched indicates the user watched the item.
	EventWatched
	// EventFavorite indicates the user marked the item as a favorite.
	EventFavorite
	// EventRating indicates an explicit 0-10 rating with a value.
	EventRating
	// EventFavoriteActor indicates the item features an actor the user favors.
	EventFavoriteActor
)

// ParseEventKind maps a wire-format event kind to its enum value.
// Unrecognized strings map to EventUnknown.
func ParseEventKind(s string) EventKind {
	switch s {
	case "watchlist":
		return EventWatchlist
	case "watched":
		return EventWatched
	case "favorite":
		return EventFavorite
	case "rating":
		return EventRating
	case "favorite_actor":
		return EventFavoriteActor
	default:
		return EventUnknown
	}
}

// String returns the wire-format name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventWatchlist:
		return "watchlist"
	case EventWatched:
		return "watched"
	case EventFavorite:
		return "favorite"
	case EventRating:
		return "rating"
	case EventFavoriteActor:
		return "favorite_actor"
	default:
		return "unknown"
	}
}

// Flat base weights for the non-valued event kinds.
const (
	weightWatchlist     = 0.5
	weightWatched       = 1.0
	weightFavorite      = 2.0
	weightFavoriteActor = 1.65
)

// Weight computes the pre-decay weight of one event. value is the optional
// event value (nil when the event carries none).
//
// An explicit non-positive value on a flat-weight kind is a revocation
// signal and zeroes the event.
func (k EventKind) Weight(value *float64) float64 {
	switch k {
	case EventRating:
		if value == nil || *value <= 0 {
			return 0
		}
		return clip(*value, 0, 10) / 10 * 2.0
	case EventFavoriteActor:
		if value == nil {
			return weightFavoriteActor
		}
		if *value <= 0 {
			return 0
		}
		return weightFavoriteActor * (0.75 + 0.25*clip(*value, 0, 10)/10)
	case EventWatchlist:
		return flatWeight(weightWatchlist, value)
	case EventWatched:
		return flatWeight(weightWatched, value)
	case EventFavorite:
		return flatWeight(weightFavorite, value)
	default:
		return 0
	}
}

func flatWeight(base float64, value *float64) float64 {
	if value != nil && *value <= 0 {
		return 0
	}
	return base
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RawInteraction is one interaction event as loaded from the store.
// A zero OccurredAt means the timestamp was missing or malformed; the
// normalizer treats such events as occurring "now".
type RawInteraction struct {
	UserID     int64
	ItemID     int64
	Kind       EventKind
	Value      *float64
	OccurredAt time.Time
}

// ScoreRow is the normalized, decayed, deduplicated score for one
// (user, item) pair. Score is always in (0, ScoreCeiling].
type ScoreRow struct {
	UserID int64
	ItemID int64
	Score  float64
}

// FollowEdge is one asymmetric follower -> followee edge.
type FollowEdge struct {
	FollowerID int64
	FolloweeID int64
}

// Bundle is the immutable trained snapshot for one catalog partition.
// All fields are read-only after TrainBundle returns; a retrain replaces
// the whole bundle, never individual fields.
//
// Sub-models are nil when the matrix is too small to support them; every
// consumer treats nil as "contributes nothing".
type Bundle struct {
	// Matrix is the sparse user-item matrix, nil for an empty partition.
	Matrix *Matrix

	// UserKNN indexes matrix rows for cosine neighbor queries.
	UserKNN *NeighborIndex

	// ItemKNN indexes matrix columns for cosine neighbor queries.
	ItemKNN *NeighborIndex

	// Latent holds truncated-factorization item embeddings.
	Latent *LatentModel

	// Popularity is the per-item sum of normalized scores.
	Popularity map[int64]float64

	// Follows is the follower -> followee adjacency. Self-edges and
	// non-positive ids are excluded at build time.
	Follows map[int64]map[int64]struct{}

	// RowCount is the number of raw interaction rows the bundle was
	// trained from.
	RowCount int

	// TrainedAt is when training completed.
	TrainedAt time.Time
}

// Empty reports whether the bundle was trained on a degenerate input.
func (b *Bundle) Empty() bool {
	return b == nil || b.Matrix == nil
}

// Recommendation is one ranked item returned to the serving layer.
type Recommendation struct {
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// ScoreParts decomposes a blended score into its five weighted signals.
type ScoreParts struct {
	UserKNN     float64 `json:"user_knn"`
	ItemKNN     float64 `json:"item_knn"`
	SVD         float64 `json:"svd"`
	FollowTaste float64 `json:"follow_taste"`
	Popularity  float64 `json:"popularity"`
}

// Sum returns the final blended score for the pair.
func (p ScoreParts) Sum() float64 {
	return p.UserKNN + p.ItemKNN + p.SVD + p.FollowTaste + p.Popularity
}

// NeighborUser is one similar user supporting an explanation.
type NeighborUser struct {
	UserID           int64   `json:"user_id"`
	Similarity       float64 `json:"similarity"`
	InteractionScore float64 `json:"interaction_score"`
}

// SimilarSeenItem is one item from the user's own history supporting an
// explanation.
type SimilarSeenItem struct {
	ItemID       int64   `json:"item_id"`
	Similarity   float64 `json:"similarity"`
	UserStrength float64 `json:"user_strength"`
}

// Explanation decomposes the blended score of one (user, item) pair.
type Explanation struct {
	UserID           int64             `json:"user_id"`
	ItemID           int64             `json:"item_id"`
	AlreadySeen      bool              `json:"already_seen"`
	FinalScore       float64           `json:"final_score"`
	ScoreParts       ScoreParts        `json:"score_parts"`
	TopNeighborUsers []NeighborUser    `json:"top_neighbor_users"`
	SimilarSeenItems []SimilarSeenItem `json:"similar_seen_items"`
}

// DataStore supplies training data. It is typically implemented by the
// database layer.
type DataStore interface {
	// LoadInteractions returns all interaction events for one catalog
	// partition, ordered by occurrence time ascending.
	LoadInteractions(ctx context.Context, partition string) ([]RawInteraction, error)

	// LoadFollows returns the full follow-edge table.
	LoadFollows(ctx context.Context) ([]FollowEdge, error)
}
