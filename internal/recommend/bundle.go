// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import "time"

// TrainBundle normalizes raw interactions and fits every sub-model that
// the resulting matrix can support. Degenerate inputs produce an empty
// bundle with nil sub-models, never an error.
func TrainBundle(cfg Config, raw []RawInteraction, edges []FollowEdge, now time.Time) *Bundle {
	b := &Bundle{
		Follows:   buildFollowGraph(edges),
		RowCount:  len(raw),
		TrainedAt: now,
	}

	rows := NewNormalizer(cfg).Normalize(raw, now)
	b.Matrix = NewMatrix(rows)
	if b.Matrix == nil {
		return b
	}

	b.UserKNN = NewUserNeighborIndex(b.Matrix)
	b.ItemKNN = NewItemNeighborIndex(b.Matrix)
	b.Latent = NewLatentModel(b.Matrix, cfg.MaxLatentRank, cfg.LatentIterations, cfg.Seed)
	b.Popularity = buildPopularity(b.Matrix)
	return b
}
