// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"math"
	"sort"
)

// Matrix is a sparse user-item score matrix with a cached transpose and
// cached row/column L2 norms. It is immutable after NewMatrix returns.
type Matrix struct {
	userIDs []int64
	itemIDs []int64

	userIndex map[int64]int
	itemIndex map[int64]int

	// rows[u] maps item index -> score; cols[i] maps user index -> score.
	rows []map[int]float64
	cols []map[int]float64

	rowNorms []float64
	colNorms []float64
}

// NewMatrix builds the matrix from normalized score rows. Returns nil for
// empty input.
func NewMatrix(rows []ScoreRow) *Matrix {
	if len(rows) == 0 {
		return nil
	}

	userSet := make(map[int64]struct{})
	itemSet := make(map[int64]struct{})
	for _, r := range rows {
		userSet[r.UserID] = struct{}{}
		itemSet[r.ItemID] = struct{}{}
	}

	m := &Matrix{
		userIDs:   sortedIDs(userSet),
		itemIDs:   sortedIDs(itemSet),
		userIndex: make(map[int64]int, len(userSet)),
		itemIndex: make(map[int64]int, len(itemSet)),
	}
	for i, id := range m.userIDs {
		m.userIndex[id] = i
	}
	for i, id := range m.itemIDs {
		m.itemIndex[id] = i
	}

	m.rows = make([]map[int]float64, len(m.userIDs))
	m.cols = make([]map[int]float64, len(m.itemIDs))
	for i := range m.rows {
		m.rows[i] = make(map[int]float64)
	}
	for i := range m.cols {
		m.cols[i] = make(map[int]float64)
	}

	for _, r := range rows {
		u := m.userIndex[r.UserID]
		it := m.itemIndex[r.ItemID]
		m.rows[u][it] = r.Score
		m.cols[it][u] = r.Score
	}

	m.rowNorms = norms(m.rows)
	m.colNorms = norms(m.cols)
	return m
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func norms(vecs []map[int]float64) []float64 {
	out := make([]float64, len(vecs))
	for i, vec := range vecs {
		var sum float64
		for _, v := range vec {
			sum += v * v
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}

// NumUsers returns the number of distinct users.
func (m *Matrix) NumUsers() int { return len(m.userIDs) }

// NumItems returns the number of distinct items.
func (m *Matrix) NumItems() int { return len(m.itemIDs) }

// UserIDs returns the sorted user ids backing the row axis.
func (m *Matrix) UserIDs() []int64 { return m.userIDs }

// ItemIDs returns the sorted item ids backing the column axis.
func (m *Matrix) ItemIDs() []int64 { return m.itemIDs }

// UserIdx maps a user id to its row index.
func (m *Matrix) UserIdx(userID int64) (int, bool) {
	idx, ok := m.userIndex[userID]
	return idx, ok
}

// ItemIdx maps an item id to its column index.
func (m *Matrix) ItemIdx(itemID int64) (int, bool) {
	idx, ok := m.itemIndex[itemID]
	return idx, ok
}

// UserID maps a row index back to its user id.
func (m *Matrix) UserID(idx int) int64 { return m.userIDs[idx] }

// ItemID maps a column index back to its item id.
func (m *Matrix) ItemID(idx int) int64 { return m.itemIDs[idx] }

// Row returns the sparse row for a user index. Callers must not mutate it.
func (m *Matrix) Row(idx int) map[int]float64 { return m.rows[idx] }

// Col returns the sparse column for an item index. Callers must not mutate it.
func (m *Matrix) Col(idx int) map[int]float64 { return m.cols[idx] }

// RowNorm returns the cached L2 norm of a user row.
func (m *Matrix) RowNorm(idx int) float64 { return m.rowNorms[idx] }

// ColNorm returns the cached L2 norm of an item column.
func (m *Matrix) ColNorm(idx int) float64 { return m.colNorms[idx] }

// Value returns the score at (user idx, item idx), zero when absent.
func (m *Matrix) Value(userIdx, itemIdx int) float64 {
	return m.rows[userIdx][itemIdx]
}

// SeenItems returns the item ids a user has any positive score for.
func (m *Matrix) SeenItems(userID int64) map[int64]struct{} {
	idx, ok := m.userIndex[userID]
	if !ok {
		return nil
	}
	seen := make(map[int64]struct{}, len(m.rows[idx]))
	for itemIdx := range m.rows[idx] {
		seen[m.itemIDs[itemIdx]] = struct{}{}
	}
	return seen
}

// cosineSparse computes the cosine similarity of two sparse vectors given
// their precomputed norms. Zero-norm vectors yield zero similarity.
func cosineSparse(a, b map[int]float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	return dot / (normA * normB)
}
