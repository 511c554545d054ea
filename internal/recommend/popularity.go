// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

// buildPopularity sums normalized scores per item across all users.
// Recency decay is already folded in upstream, so stale hits fade on
// their own as the catalog ages.
func buildPopularity(m *Matrix) map[int64]float64 {
	if m == nil {
		return nil
	}
	pop := make(map[int64]float64, m.NumItems())
	for itemIdx := 0; itemIdx < m.NumItems(); itemIdx++ {
		var sum float64
		for _, v := range m.Col(itemIdx) {
			sum += v
		}
		pop[m.ItemID(itemIdx)] = sum
	}
	return pop
}
