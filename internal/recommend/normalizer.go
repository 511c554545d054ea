// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"math"
	"sort"
	"time"
)

// Normalizer converts raw interaction events into per-(user,item) scores:
// weight by event kind, decay by age, deduplicate latest-wins per
// (user, item, kind), sum per pair, drop non-positive, clip at the ceiling.
type Normalizer struct {
	cfg Config
}

// NewNormalizer returns a normalizer with the given engine config.
func NewNormalizer(cfg Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

type pairKey struct {
	userID int64
	itemID int64
}

type dedupKey struct {
	userID int64
	itemID int64
	kind   EventKind
}

type dedupEntry struct {
	occurredAt time.Time
	order      int
	score      float64
}

// Normalize produces deduplicated per-pair scores from raw events.
// now freezes the decay reference so one training run is self-consistent.
// Rows with non-positive user or item ids are dropped.
func (n *Normalizer) Normalize(raw []RawInteraction, now time.Time) []ScoreRow {
	if len(raw) == 0 {
		return nil
	}

	// Latest event per (user, item, kind) wins; ties on the timestamp fall
	// back to ingestion order so reprocessing the same slice is stable.
	latest := make(map[dedupKey]dedupEntry, len(raw))
	for i, ev := range raw {
		if ev.UserID <= 0 || ev.ItemID <= 0 {
			continue
		}
		weight := ev.Kind.Weight(ev.Value)
		occurred := ev.OccurredAt
		if occurred.IsZero() {
			occurred = now
		}
		score := weight * n.decay(occurred, now)

		key := dedupKey{userID: ev.UserID, itemID: ev.ItemID, kind: ev.Kind}
		prev, ok := latest[key]
		if ok && !entrySupersedes(occurred, i, prev) {
			continue
		}
		latest[key] = dedupEntry{occurredAt: occurred, order: i, score: score}
	}

	sums := make(map[pairKey]float64, len(latest))
	for key, entry := range latest {
		sums[pairKey{userID: key.userID, itemID: key.itemID}] += entry.score
	}

	rows := make([]ScoreRow, 0, len(sums))
	for key, sum := range sums {
		if sum <= 0 {
			continue
		}
		rows = append(rows, ScoreRow{
			UserID: key.userID,
			ItemID: key.itemID,
			Score:  math.Min(sum, n.cfg.ScoreCeiling),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].ItemID < rows[j].ItemID
	})
	return rows
}

func entrySupersedes(occurred time.Time, order int, prev dedupEntry) bool {
	if occurred.After(prev.occurredAt) {
		return true
	}
	if occurred.Before(prev.occurredAt) {
		return false
	}
	return order > prev.order
}

// decay returns the recency multiplier for an event. Future timestamps
// are treated as age zero.
func (n *Normalizer) decay(occurred, now time.Time) float64 {
	ageDays := now.Sub(occurred).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	halflifeDays := n.cfg.DecayHalflife.Hours() / 24
	return n.cfg.DecayBase + n.cfg.DecayScale*math.Exp(-ageDays/halflifeDays)
}
