// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"math"
	"sort"
)

// Neighbor similarities at or below this threshold carry no usable signal.
const minNeighborSimilarity = 0.01

// Neighbor is one result of a nearest-neighbor query.
type Neighbor struct {
	Idx        int
	Similarity float64
}

// NeighborIndex answers exhaustive cosine nearest-neighbor queries over a
// set of sparse vectors (matrix rows for users, columns for items).
type NeighborIndex struct {
	vecs  []map[int]float64
	norms []float64
}

// NewUserNeighborIndex indexes the matrix rows. Requires >=2 users and
// >=1 item, otherwise returns nil.
func NewUserNeighborIndex(m *Matrix) *NeighborIndex {
	if m == nil || m.NumUsers() < 2 || m.NumItems() < 1 {
		return nil
	}
	return &NeighborIndex{vecs: m.rows, norms: m.rowNorms}
}

// NewItemNeighborIndex indexes the matrix columns. Requires >=2 items and
// >=1 user, otherwise returns nil.
func NewItemNeighborIndex(m *Matrix) *NeighborIndex {
	if m == nil || m.NumItems() < 2 || m.NumUsers() < 1 {
		return nil
	}
	return &NeighborIndex{vecs: m.cols, norms: m.colNorms}
}

// Size returns the number of indexed vectors.
func (ix *NeighborIndex) Size() int { return len(ix.vecs) }

// Query returns the k most similar vectors to the target, sorted by
// descending similarity with ascending index as the tie-break. The target
// itself is included in the result set; callers skip it.
func (ix *NeighborIndex) Query(target, k int) []Neighbor {
	if target < 0 || target >= len(ix.vecs) {
		return nil
	}
	if k > len(ix.vecs) {
		k = len(ix.vecs)
	}
	if k < 1 {
		return nil
	}

	all := make([]Neighbor, len(ix.vecs))
	tv, tn := ix.vecs[target], ix.norms[target]
	for i := range ix.vecs {
		all[i] = Neighbor{
			Idx:        i,
			Similarity: cosineSparse(tv, ix.vecs[i], tn, ix.norms[i]),
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Similarity != all[j].Similarity {
			return all[i].Similarity > all[j].Similarity
		}
		return all[i].Idx < all[j].Idx
	})
	return all[:k]
}

func clampK(requested, n int) int {
	if requested < 2 {
		requested = 2
	}
	if requested > n {
		requested = n
	}
	return requested
}

// scoreUserKNN scores unseen-or-not items for a user from the behavior of
// similar users. Each neighbor contributes its norm-scaled item values
// weighted by similarity; a per-item support total then scales confidence
// so one weak neighbor cannot dominate a thinly supported item.
func scoreUserKNN(m *Matrix, ix *NeighborIndex, userID int64, requestedK int) map[int64]float64 {
	if m == nil || ix == nil {
		return nil
	}
	userIdx, ok := m.UserIdx(userID)
	if !ok {
		return nil
	}

	k := clampK(requestedK, m.NumUsers())
	raw := make(map[int]float64)
	support := make(map[int]float64)
	for _, nb := range ix.Query(userIdx, k) {
		if nb.Idx == userIdx || nb.Similarity <= minNeighborSimilarity {
			continue
		}
		norm := m.RowNorm(nb.Idx)
		if norm == 0 {
			continue
		}
		for itemIdx, val := range m.Row(nb.Idx) {
			raw[itemIdx] += nb.Similarity * (val / norm)
			support[itemIdx] += nb.Similarity
		}
	}

	scores := make(map[int64]float64, len(raw))
	for itemIdx, r := range raw {
		s := support[itemIdx]
		if s <= 0 {
			continue
		}
		confidence := math.Min(1.25, 0.55+math.Log(1+s))
		scores[m.ItemID(itemIdx)] = (r / s) * confidence
	}
	return scores
}

// scoreItemKNN scores items near everything the user has interacted with.
// Seed strengths are normalized by their sum so prolific users do not get
// inflated raw totals.
func scoreItemKNN(m *Matrix, ix *NeighborIndex, userID int64, requestedK int) map[int64]float64 {
	if m == nil || ix == nil {
		return nil
	}
	userIdx, ok := m.UserIdx(userID)
	if !ok {
		return nil
	}
	row := m.Row(userIdx)
	var total float64
	for _, v := range row {
		total += v
	}
	if total <= 0 {
		return nil
	}

	k := clampK(requestedK, m.NumItems())
	raw := make(map[int]float64)
	support := make(map[int]float64)
	for seedIdx, strength := range row {
		normStrength := strength / total
		for _, nb := range ix.Query(seedIdx, k) {
			if nb.Idx == seedIdx || nb.Similarity <= minNeighborSimilarity {
				continue
			}
			raw[nb.Idx] += nb.Similarity * normStrength
			support[nb.Idx] += nb.Similarity * normStrength
		}
	}

	scores := make(map[int64]float64, len(raw))
	for itemIdx, r := range raw {
		confidence := math.Min(1.2, 0.6+math.Log(1+support[itemIdx]))
		scores[m.ItemID(itemIdx)] = r * confidence
	}
	return scores
}

// profileSeeds returns the user's strongest interactions, ranked by
// descending score with ascending item id as the tie-break, capped at n.
func profileSeeds(m *Matrix, userID int64, n int) []int {
	if m == nil {
		return nil
	}
	userIdx, ok := m.UserIdx(userID)
	if !ok {
		return nil
	}
	row := m.Row(userIdx)
	seeds := make([]int, 0, len(row))
	for itemIdx := range row {
		seeds = append(seeds, itemIdx)
	}
	sort.Slice(seeds, func(i, j int) bool {
		if row[seeds[i]] != row[seeds[j]] {
			return row[seeds[i]] > row[seeds[j]]
		}
		return seeds[i] < seeds[j]
	})
	if len(seeds) > n {
		seeds = seeds[:n]
	}
	return seeds
}

// scoreProfileSimilar runs the item-similarity pass restricted to the
// user's profile seeds, boosting stronger seeds by rank. No confidence
// scaling here: seed rank already encodes trust.
func scoreProfileSimilar(m *Matrix, ix *NeighborIndex, userID int64, requestedK, seedCount int) map[int64]float64 {
	if m == nil || ix == nil {
		return nil
	}
	userIdx, ok := m.UserIdx(userID)
	if !ok {
		return nil
	}
	seeds := profileSeeds(m, userID, seedCount)
	if len(seeds) == 0 {
		return nil
	}

	row := m.Row(userIdx)
	var total float64
	for _, seedIdx := range seeds {
		total += row[seedIdx]
	}
	if total <= 0 {
		return nil
	}

	k := clampK(requestedK, m.NumItems())
	n := float64(len(seeds))
	scores := make(map[int64]float64)
	for rank, seedIdx := range seeds {
		boost := 1 + ((n-float64(rank))/n)*0.6
		normStrength := row[seedIdx] / total
		for _, nb := range ix.Query(seedIdx, k) {
			if nb.Idx == seedIdx || nb.Similarity <= minNeighborSimilarity {
				continue
			}
			scores[m.ItemID(nb.Idx)] += nb.Similarity * normStrength * boost
		}
	}
	return scores
}

// mergeItemSignals blends the general item-similarity pass with the
// profile-seeded pass. Where both score an item the merge favors the
// broader pass slightly; otherwise the present signal passes through.
func mergeItemSignals(itemKNN, profile map[int64]float64) map[int64]float64 {
	if len(itemKNN) == 0 && len(profile) == 0 {
		return nil
	}
	merged := make(map[int64]float64, len(itemKNN)+len(profile))
	for id, v := range itemKNN {
		if p, ok := profile[id]; ok {
			merged[id] = 0.55*v + 0.45*p
		} else {
			merged[id] = v
		}
	}
	for id, p := range profile {
		if _, ok := itemKNN[id]; !ok {
			merged[id] = p
		}
	}
	return merged
}
