// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import "sort"

const (
	// explainNeighborK is the neighbor pool queried for explanation
	// evidence, before target-item filtering.
	explainNeighborK = 15

	// explainLimit caps each evidence list.
	explainLimit = 5
)

// explain decomposes the blended score of one (user, item) pair using the
// same normalized signals and tier weights the ranker uses, so the parts
// sum to exactly what rank would have scored for the pair.
func (b *Bundle) explain(cfg Config, userID, itemID int64) Explanation {
	ex := Explanation{UserID: userID, ItemID: itemID}
	if b.Empty() {
		return ex
	}

	s := b.computeSignals(cfg, userID)
	_, ex.AlreadySeen = s.seen[itemID]
	ex.ScoreParts = s.scoreParts(itemID)
	ex.FinalScore = ex.ScoreParts.Sum()
	ex.TopNeighborUsers = b.neighborEvidence(cfg, userID, itemID)
	ex.SimilarSeenItems = b.seenItemEvidence(cfg, userID, itemID)
	return ex
}

// neighborEvidence surfaces similar users whose own interaction with the
// target item supports the score, ranked by similarity * interaction.
func (b *Bundle) neighborEvidence(cfg Config, userID, itemID int64) []NeighborUser {
	if b.UserKNN == nil {
		return nil
	}
	userIdx, ok := b.Matrix.UserIdx(userID)
	if !ok {
		return nil
	}
	itemIdx, ok := b.Matrix.ItemIdx(itemID)
	if !ok {
		return nil
	}

	k := clampK(explainNeighborK, b.Matrix.NumUsers())
	evidence := make([]NeighborUser, 0, explainLimit)
	for _, nb := range b.UserKNN.Query(userIdx, k) {
		if nb.Idx == userIdx || nb.Similarity <= 0 {
			continue
		}
		val := b.Matrix.Value(nb.Idx, itemIdx)
		if val <= 0 {
			continue
		}
		evidence = append(evidence, NeighborUser{
			UserID:           b.Matrix.UserID(nb.Idx),
			Similarity:       nb.Similarity,
			InteractionScore: val,
		})
	}

	sort.Slice(evidence, func(i, j int) bool {
		si := evidence[i].Similarity * evidence[i].InteractionScore
		sj := evidence[j].Similarity * evidence[j].InteractionScore
		if si != sj {
			return si > sj
		}
		return evidence[i].UserID < evidence[j].UserID
	})
	if len(evidence) > explainLimit {
		evidence = evidence[:explainLimit]
	}
	return evidence
}

// seenItemEvidence surfaces items from the user's own history that
// resemble the target, using plain item-column cosine rather than the
// neighbor index. Seeds come from the profile-seed set, falling back to
// the full seen set when no profile exists.
func (b *Bundle) seenItemEvidence(cfg Config, userID, itemID int64) []SimilarSeenItem {
	if b.Matrix == nil {
		return nil
	}
	userIdx, ok := b.Matrix.UserIdx(userID)
	if !ok {
		return nil
	}
	targetIdx, ok := b.Matrix.ItemIdx(itemID)
	if !ok {
		return nil
	}

	seeds := profileSeeds(b.Matrix, userID, cfg.ProfileSeeds)
	if len(seeds) == 0 {
		row := b.Matrix.Row(userIdx)
		for seedIdx := range row {
			seeds = append(seeds, seedIdx)
		}
		sort.Ints(seeds)
	}

	row := b.Matrix.Row(userIdx)
	targetCol := b.Matrix.Col(targetIdx)
	targetNorm := b.Matrix.ColNorm(targetIdx)
	evidence := make([]SimilarSeenItem, 0, len(seeds))
	for _, seedIdx := range seeds {
		if seedIdx == targetIdx {
			continue
		}
		sim := cosineSparse(b.Matrix.Col(seedIdx), targetCol, b.Matrix.ColNorm(seedIdx), targetNorm)
		if sim <= 0 {
			continue
		}
		evidence = append(evidence, SimilarSeenItem{
			ItemID:       b.Matrix.ItemID(seedIdx),
			Similarity:   sim,
			UserStrength: row[seedIdx],
		})
	}

	sort.Slice(evidence, func(i, j int) bool {
		si := evidence[i].Similarity * evidence[i].UserStrength
		sj := evidence[j].Similarity * evidence[j].UserStrength
		if si != sj {
			return si > sj
		}
		return evidence[i].ItemID < evidence[j].ItemID
	})
	if len(evidence) > explainLimit {
		evidence = evidence[:explainLimit]
	}
	return evidence
}
