// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"math"
	"math/rand"
	"sort"
)

const profileWeightEpsilon = 1e-8

// LatentModel holds dense item embeddings from a rank-r truncated
// factorization of the items x users matrix. Embeddings carry the singular
// value scaling, so a plain dot product against a strength-weighted profile
// vector yields the affinity score.
type LatentModel struct {
	rank    int
	factors [][]float64 // per item index, length rank
}

// NewLatentModel factorizes the matrix via seeded randomized subspace
// iteration. Returns nil when the matrix cannot support rank >= 2
// (fewer than 2 users or 2 items, or the clamped rank falls below 2).
// Deterministic for a fixed seed.
func NewLatentModel(m *Matrix, maxRank, iterations int, seed int64) *LatentModel {
	if m == nil || m.NumUsers() < 2 || m.NumItems() < 2 {
		return nil
	}
	rank := maxRank
	if r := m.NumUsers() - 1; r < rank {
		rank = r
	}
	if r := m.NumItems() - 1; r < rank {
		rank = r
	}
	if rank < 2 {
		return nil
	}

	numUsers := m.NumUsers()
	rows := sortedSparseRows(m)

	// Random orthonormal starting block over the user space.
	rng := rand.New(rand.NewSource(seed))
	q := make([][]float64, numUsers)
	for u := range q {
		q[u] = make([]float64, rank)
		for j := range q[u] {
			q[u][j] = rng.NormFloat64()
		}
	}
	orthonormalize(q, rank)

	// Power iterations against the user-user Gram matrix, applied as
	// A * (A^T * Q) to stay sparse.
	for it := 0; it < iterations; it++ {
		proj := multiplyTranspose(rows, q, m.NumItems(), rank)
		q = multiply(rows, proj, numUsers, rank)
		orthonormalize(q, rank)
	}

	// Order components by their Rayleigh quotient, strongest first.
	proj := multiplyTranspose(rows, q, m.NumItems(), rank)
	energy := make([]float64, rank)
	for j := 0; j < rank; j++ {
		for i := range proj {
			energy[j] += proj[i][j] * proj[i][j]
		}
	}
	order := make([]int, rank)
	for j := range order {
		order[j] = j
	}
	sort.Slice(order, func(a, b int) bool {
		if energy[order[a]] != energy[order[b]] {
			return energy[order[a]] > energy[order[b]]
		}
		return order[a] < order[b]
	})

	factors := make([][]float64, m.NumItems())
	for i := range factors {
		factors[i] = make([]float64, rank)
		for j, src := range order {
			factors[i][j] = proj[i][src]
		}
	}
	return &LatentModel{rank: rank, factors: factors}
}

// Rank returns the factorization rank.
func (l *LatentModel) Rank() int { return l.rank }

// ItemFactor returns the embedding for an item index.
func (l *LatentModel) ItemFactor(itemIdx int) []float64 { return l.factors[itemIdx] }

// scoreLatent projects every item embedding onto the user's
// strength-weighted profile vector.
func scoreLatent(m *Matrix, l *LatentModel, userID int64) map[int64]float64 {
	if m == nil || l == nil {
		return nil
	}
	userIdx, ok := m.UserIdx(userID)
	if !ok {
		return nil
	}
	row := m.Row(userIdx)
	if len(row) == 0 {
		return nil
	}

	var total float64
	for _, v := range row {
		total += v
	}
	if total < profileWeightEpsilon {
		return nil
	}

	profile := make([]float64, l.rank)
	for itemIdx, strength := range row {
		w := strength / total
		for j, f := range l.factors[itemIdx] {
			profile[j] += w * f
		}
	}

	scores := make(map[int64]float64, m.NumItems())
	for itemIdx := 0; itemIdx < m.NumItems(); itemIdx++ {
		var dot float64
		for j, f := range l.factors[itemIdx] {
			dot += profile[j] * f
		}
		scores[m.ItemID(itemIdx)] = dot
	}
	return scores
}

type sparseRow struct {
	idxs []int
	vals []float64
}

// sortedSparseRows materializes the matrix rows with deterministic
// column order, so float accumulation order is stable across runs.
func sortedSparseRows(m *Matrix) []sparseRow {
	rows := make([]sparseRow, m.NumUsers())
	for u := 0; u < m.NumUsers(); u++ {
		src := m.Row(u)
		idxs := make([]int, 0, len(src))
		for i := range src {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		vals := make([]float64, len(idxs))
		for k, i := range idxs {
			vals[k] = src[i]
		}
		rows[u] = sparseRow{idxs: idxs, vals: vals}
	}
	return rows
}

// multiplyTranspose computes A^T * Q (items x rank).
func multiplyTranspose(rows []sparseRow, q [][]float64, numItems, rank int) [][]float64 {
	out := make([][]float64, numItems)
	for i := range out {
		out[i] = make([]float64, rank)
	}
	for u, row := range rows {
		for k, itemIdx := range row.idxs {
			v := row.vals[k]
			for j := 0; j < rank; j++ {
				out[itemIdx][j] += v * q[u][j]
			}
		}
	}
	return out
}

// multiply computes A * P (users x rank).
func multiply(rows []sparseRow, p [][]float64, numUsers, rank int) [][]float64 {
	out := make([][]float64, numUsers)
	for u := range out {
		out[u] = make([]float64, rank)
		row := rows[u]
		for k, itemIdx := range row.idxs {
			v := row.vals[k]
			for j := 0; j < rank; j++ {
				out[u][j] += v * p[itemIdx][j]
			}
		}
	}
	return out
}

// orthonormalize applies modified Gram-Schmidt to the columns of q in
// place. Columns that collapse to (near) zero are re-zeroed rather than
// normalized, keeping the result finite.
func orthonormalize(q [][]float64, rank int) {
	n := len(q)
	for j := 0; j < rank; j++ {
		for prev := 0; prev < j; prev++ {
			var dot float64
			for u := 0; u < n; u++ {
				dot += q[u][j] * q[u][prev]
			}
			for u := 0; u < n; u++ {
				q[u][j] -= dot * q[u][prev]
			}
		}
		var norm float64
		for u := 0; u < n; u++ {
			norm += q[u][j] * q[u][j]
		}
		norm = math.Sqrt(norm)
		if norm < profileWeightEpsilon {
			for u := 0; u < n; u++ {
				q[u][j] = 0
			}
			continue
		}
		for u := 0; u < n; u++ {
			q[u][j] /= norm
		}
	}
}
