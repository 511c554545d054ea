// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"math"
	"sort"
)

// popularityBreakout lets a heavily popular title through the personal
// signal floor.
const popularityBreakout = 0.82

// blendWeights are the per-signal blend weights for one user.
type blendWeights struct {
	UserKNN    float64
	ItemKNN    float64
	SVD        float64
	Follow     float64
	Popularity float64
}

func (w blendWeights) sum() float64 {
	return w.UserKNN + w.ItemKNN + w.SVD + w.Follow + w.Popularity
}

// tierWeights picks base blend weights by how much history the user has.
// Cold users lean almost entirely on popularity; engaged users lean on
// collaborative signals.
func tierWeights(seenCount int) blendWeights {
	switch {
	case seenCount >= 18:
		return blendWeights{UserKNN: 0.37, ItemKNN: 0.33, SVD: 0.20, Follow: 0.08, Popularity: 0.02}
	case seenCount >= 8:
		return blendWeights{UserKNN: 0.35, ItemKNN: 0.31, SVD: 0.20, Follow: 0.10, Popularity: 0.04}
	case seenCount >= 1:
		return blendWeights{UserKNN: 0.28, ItemKNN: 0.24, SVD: 0.18, Follow: 0.10, Popularity: 0.20}
	default:
		return blendWeights{UserKNN: 0.08, ItemKNN: 0.06, SVD: 0.06, Follow: 0.05, Popularity: 0.75}
	}
}

// adjustForFollowGraph reshapes the base weights by follow-graph density
// and renormalizes to sum 1.
func adjustForFollowGraph(w blendWeights, followeeCount int) blendWeights {
	if followeeCount == 0 {
		slice := w.Follow
		w.Follow = 0
		w.ItemKNN += 0.50 * slice
		w.SVD += 0.30 * slice
		w.Popularity += 0.20 * slice
	} else if followeeCount >= 5 {
		w.Follow = math.Min(0.22, w.Follow+0.03)
		w.Popularity = math.Max(0.01, w.Popularity-0.02)
	}
	total := w.sum()
	if total <= 0 {
		return w
	}
	w.UserKNN /= total
	w.ItemKNN /= total
	w.SVD /= total
	w.Follow /= total
	w.Popularity /= total
	return w
}

// minMaxNormalize rescales a signal map to [0,1]. A constant map collapses
// to all 1.0 when the common value is positive, all 0.0 otherwise.
func minMaxNormalize(raw map[int64]float64) map[int64]float64 {
	if len(raw) == 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range raw {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make(map[int64]float64, len(raw))
	if hi == lo {
		fill := 0.0
		if hi > 0 {
			fill = 1.0
		}
		for id := range raw {
			out[id] = fill
		}
		return out
	}
	span := hi - lo
	for id, v := range raw {
		out[id] = (v - lo) / span
	}
	return out
}

// logCompress applies ln(1+x) to tame popularity skew before min-max.
func logCompress(raw map[int64]float64) map[int64]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[int64]float64, len(raw))
	for id, v := range raw {
		if v < 0 {
			v = 0
		}
		out[id] = math.Log1p(v)
	}
	return out
}

// signalSet holds one user's raw and normalized sub-model scores. The raw
// maps drive reason attribution; the normalized maps drive scoring.
type signalSet struct {
	rawUserKNN map[int64]float64
	rawItemKNN map[int64]float64
	rawProfile map[int64]float64
	rawSVD     map[int64]float64
	rawFollow  map[int64]float64

	userKNN    map[int64]float64
	itemKNN    map[int64]float64
	profile    map[int64]float64
	svd        map[int64]float64
	follow     map[int64]float64
	popularity map[int64]float64

	// mergedItem blends the normalized item-similarity and profile passes
	// and fills the item slot of the weighted sum.
	mergedItem map[int64]float64

	seen          map[int64]struct{}
	seenCount     int
	followeeCount int
	weights       blendWeights
}

// computeSignals evaluates every sub-model for one user and normalizes
// the outputs onto a comparable scale.
func (b *Bundle) computeSignals(cfg Config, userID int64) *signalSet {
	s := &signalSet{
		rawUserKNN: scoreUserKNN(b.Matrix, b.UserKNN, userID, cfg.UserNeighbors),
		rawItemKNN: scoreItemKNN(b.Matrix, b.ItemKNN, userID, cfg.ItemNeighbors),
		rawProfile: scoreProfileSimilar(b.Matrix, b.ItemKNN, userID, cfg.ItemNeighbors, cfg.ProfileSeeds),
		rawSVD:     scoreLatent(b.Matrix, b.Latent, userID),
		rawFollow:  scoreFollowTaste(b.Matrix, b.Follows, userID),
		seen:       b.Matrix.SeenItems(userID),
	}
	s.seenCount = len(s.seen)
	s.followeeCount = len(b.Follows[userID])

	s.userKNN = minMaxNormalize(s.rawUserKNN)
	s.itemKNN = minMaxNormalize(s.rawItemKNN)
	s.profile = minMaxNormalize(s.rawProfile)
	s.svd = minMaxNormalize(s.rawSVD)
	s.follow = minMaxNormalize(s.rawFollow)
	s.popularity = minMaxNormalize(logCompress(b.Popularity))
	s.mergedItem = mergeItemSignals(s.itemKNN, s.profile)

	s.weights = adjustForFollowGraph(tierWeights(s.seenCount), s.followeeCount)
	return s
}

// personalFloor is the minimum personal signal required before a
// candidate with low popularity is kept.
func personalFloor(seenCount int) float64 {
	switch {
	case seenCount >= 12:
		return 0.05
	case seenCount >= 6:
		return 0.03
	default:
		return 0
	}
}

// scoreParts computes the weighted per-signal breakdown for one item.
func (s *signalSet) scoreParts(itemID int64) ScoreParts {
	return ScoreParts{
		UserKNN:     s.weights.UserKNN * s.userKNN[itemID],
		ItemKNN:     s.weights.ItemKNN * s.mergedItem[itemID],
		SVD:         s.weights.SVD * s.svd[itemID],
		FollowTaste: s.weights.Follow * s.follow[itemID],
		Popularity:  s.weights.Popularity * s.popularity[itemID],
	}
}

// passesFloor reports whether a candidate clears the personal-signal
// floor for users with enough history to trust personalization.
func (s *signalSet) passesFloor(itemID int64) bool {
	if s.seenCount == 0 {
		return true
	}
	floor := personalFloor(s.seenCount)
	if floor == 0 {
		return true
	}
	personal := math.Max(
		math.Max(s.userKNN[itemID], s.profile[itemID]),
		math.Max(s.svd[itemID], s.follow[itemID]),
	)
	return personal >= floor || s.popularity[itemID] >= popularityBreakout
}

// candidates returns the union of all unseen items touched by any signal,
// in ascending id order.
func (s *signalSet) candidates() []int64 {
	set := make(map[int64]struct{})
	add := func(m map[int64]float64) {
		for id := range m {
			if _, seen := s.seen[id]; !seen {
				set[id] = struct{}{}
			}
		}
	}
	add(s.userKNN)
	add(s.mergedItem)
	add(s.svd)
	add(s.follow)
	add(s.popularity)

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// reason maps raw signal presence to a human-readable attribution,
// most specific combination first.
func (s *signalSet) reason(itemID int64) string {
	hasProfile := s.rawProfile[itemID] > 0
	hasUser := s.rawUserKNN[itemID] > 0
	hasItem := s.rawItemKNN[itemID] > 0
	hasSVD := s.rawSVD[itemID] > 0
	hasFollow := s.rawFollow[itemID] > 0

	switch {
	case hasProfile && (hasUser || hasItem || hasSVD || hasFollow):
		return "profile+hybrid"
	case hasProfile:
		return "profile_similar"
	case hasFollow && hasUser && hasItem && hasSVD:
		return "follow+knn+item+svd"
	case hasFollow && hasUser && hasItem:
		return "follow+knn+item"
	case hasFollow && hasUser && hasSVD:
		return "follow+knn+svd"
	case hasFollow && hasItem && hasSVD:
		return "follow+item+svd"
	case hasUser && hasItem && hasSVD:
		return "knn+item+svd"
	case hasUser && hasItem:
		return "knn+item"
	case hasUser && hasSVD:
		return "knn+svd"
	case hasItem && hasSVD:
		return "item+svd"
	case hasUser:
		return "knn"
	case hasItem:
		return "item_knn"
	case hasSVD:
		return "svd"
	case hasFollow:
		return "follow_taste"
	default:
		return "popularity"
	}
}

// rank blends, filters and ranks recommendations for one user.
func (b *Bundle) rank(cfg Config, userID int64, topN int) []Recommendation {
	if b.Empty() {
		return nil
	}
	s := b.computeSignals(cfg, userID)

	recs := make([]Recommendation, 0, topN)
	for _, itemID := range s.candidates() {
		if !s.passesFloor(itemID) {
			continue
		}
		score := s.scoreParts(itemID).Sum()
		if score <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			ItemID: itemID,
			Score:  score,
			Reason: s.reason(itemID),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ItemID < recs[j].ItemID
	})
	if len(recs) > topN {
		recs = recs[:topN]
	}
	return recs
}
