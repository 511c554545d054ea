// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import "sort"

// buildFollowGraph converts follow edges into follower -> followee
// adjacency. Self-edges and non-positive ids are dropped.
func buildFollowGraph(edges []FollowEdge) map[int64]map[int64]struct{} {
	graph := make(map[int64]map[int64]struct{})
	for _, e := range edges {
		if e.FollowerID <= 0 || e.FolloweeID <= 0 || e.FollowerID == e.FolloweeID {
			continue
		}
		set, ok := graph[e.FollowerID]
		if !ok {
			set = make(map[int64]struct{})
			graph[e.FollowerID] = set
		}
		set[e.FolloweeID] = struct{}{}
	}
	return graph
}

// followees returns the user's followees in ascending id order, so the
// float accumulation below is deterministic.
func followees(graph map[int64]map[int64]struct{}, userID int64) []int64 {
	set := graph[userID]
	if len(set) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// scoreFollowTaste propagates followee interactions to the user, weighting
// each followee by taste alignment: weight = 0.9 + 1.3*cosine, so even a
// dissimilar followee contributes a little and a twin contributes 2.2x.
// Users with no followees yield an empty signal.
func scoreFollowTaste(m *Matrix, graph map[int64]map[int64]struct{}, userID int64) map[int64]float64 {
	if m == nil {
		return nil
	}
	ids := followees(graph, userID)
	if len(ids) == 0 {
		return nil
	}

	userIdx, hasRow := m.UserIdx(userID)
	scores := make(map[int64]float64)
	for _, followeeID := range ids {
		followeeIdx, ok := m.UserIdx(followeeID)
		if !ok {
			continue
		}
		var sim float64
		if hasRow {
			sim = cosineSparse(m.Row(userIdx), m.Row(followeeIdx),
				m.RowNorm(userIdx), m.RowNorm(followeeIdx))
		}
		sim = clip(sim, 0, 1)
		weight := 0.9 + 1.3*sim
		for itemIdx, val := range m.Row(followeeIdx) {
			scores[m.ItemID(itemIdx)] += weight * val
		}
	}
	if len(scores) == 0 {
		return nil
	}
	return scores
}
