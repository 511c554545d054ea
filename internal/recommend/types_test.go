// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"math"
	"testing"
)

func fv(v float64) *float64 { return &v }

func floatNear(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		in   string
		want EventKind
	}{
		{"watchlist", EventWatchlist},
		{"watched", EventWatched},
		{"favorite", EventFavorite},
		{"rating", EventRating},
		{"favorite_actor", EventFavoriteActor},
		{"", EventUnknown},
		{"gibberish", EventUnknown},
	}
	for _, tt := range tests {
		if got := ParseEventKind(tt.in); got != tt.want {
			t.Errorf("ParseEventKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEventKindStringRoundTrip(t *testing.T) {
	kinds := []EventKind{EventWatchlist, EventWatched, EventFavorite, EventRating, EventFavoriteActor}
	for _, k := range kinds {
		if got := ParseEventKind(k.String()); got != k {
			t.Errorf("round trip %v via %q = %v", k, k.String(), got)
		}
	}
	if EventUnknown.String() != "unknown" {
		t.Errorf("EventUnknown.String() = %q", EventUnknown.String())
	}
}

func TestEventKindWeight(t *testing.T) {
	tests := []struct {
		name  string
		kind  EventKind
		value *float64
		want  float64
	}{
		{"watchlist flat", EventWatchlist, nil, 0.5},
		{"watched flat", EventWatched, nil, 1.0},
		{"favorite flat", EventFavorite, nil, 2.0},
		{"watched revoked by zero value", EventWatched, fv(0), 0},
		{"favorite revoked by negative value", EventFavorite, fv(-1), 0},
		{"watchlist positive value keeps flat weight", EventWatchlist, fv(3), 0.5},
		{"rating without value", EventRating, nil, 0},
		{"rating zero", EventRating, fv(0), 0},
		{"rating negative", EventRating, fv(-2), 0},
		{"rating mid", EventRating, fv(5), 1.0},
		{"rating max", EventRating, fv(10), 2.0},
		{"rating clipped above", EventRating, fv(15), 2.0},
		{"favorite_actor without value", EventFavoriteActor, nil, 1.65},
		{"favorite_actor zero value", EventFavoriteActor, fv(0), 0},
		{"favorite_actor full value", EventFavoriteActor, fv(10), 1.65},
		{"favorite_actor mid value", EventFavoriteActor, fv(5), 1.65 * 0.875},
		{"favorite_actor value clipped", EventFavoriteActor, fv(20), 1.65},
		{"unknown kind", EventUnknown, fv(9), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Weight(tt.value); !floatNear(got, tt.want) {
				t.Errorf("Weight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorePartsSum(t *testing.T) {
	p := ScoreParts{UserKNN: 0.1, ItemKNN: 0.2, SVD: 0.3, FollowTaste: 0.05, Popularity: 0.01}
	if !floatNear(p.Sum(), 0.66) {
		t.Errorf("Sum() = %v, want 0.66", p.Sum())
	}
}

func TestBundleEmpty(t *testing.T) {
	var b *Bundle
	if !b.Empty() {
		t.Error("nil bundle should be empty")
	}
	if !(&Bundle{}).Empty() {
		t.Error("bundle without matrix should be empty")
	}
}
