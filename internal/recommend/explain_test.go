// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import "testing"

func TestExplainAgreesWithRank(t *testing.T) {
	b := blendFixture(t)
	cfg := DefaultConfig()

	recs := b.rank(cfg, 1, 20)
	if len(recs) == 0 {
		t.Fatal("no recommendations to cross-check")
	}
	for _, rec := range recs {
		ex := b.explain(cfg, 1, rec.ItemID)
		if !floatNear(ex.FinalScore, rec.Score) {
			t.Errorf("explain(%d) = %v, rank scored %v", rec.ItemID, ex.FinalScore, rec.Score)
		}
		if !floatNear(ex.ScoreParts.Sum(), ex.FinalScore) {
			t.Errorf("parts sum %v != final score %v", ex.ScoreParts.Sum(), ex.FinalScore)
		}
		if ex.AlreadySeen {
			t.Errorf("ranked item %d reported as already seen", rec.ItemID)
		}
	}
}

func TestExplainAlreadySeen(t *testing.T) {
	b := blendFixture(t)
	ex := b.explain(DefaultConfig(), 1, 10)
	if !ex.AlreadySeen {
		t.Error("item 10 should be already seen for user 1")
	}
}

func TestExplainNeighborEvidence(t *testing.T) {
	b := blendFixture(t)
	ex := b.explain(DefaultConfig(), 1, 30)
	if len(ex.TopNeighborUsers) == 0 {
		t.Fatal("no neighbor evidence for item 30")
	}
	top := ex.TopNeighborUsers[0]
	if top.UserID != 2 {
		t.Errorf("top neighbor = %d, want 2", top.UserID)
	}
	if top.Similarity <= 0 {
		t.Errorf("neighbor similarity = %v, want positive", top.Similarity)
	}
	if top.InteractionScore <= 0 {
		t.Errorf("neighbor interaction = %v, want positive", top.InteractionScore)
	}
	// User 3 never touched item 30 and must not appear.
	for _, nb := range ex.TopNeighborUsers {
		if nb.UserID == 3 {
			t.Error("user 3 has no interaction with item 30")
		}
	}
}

func TestExplainSimilarSeenItems(t *testing.T) {
	b := blendFixture(t)
	ex := b.explain(DefaultConfig(), 1, 30)
	if len(ex.SimilarSeenItems) != 2 {
		t.Fatalf("similar seen items = %v, want both profile seeds", ex.SimilarSeenItems)
	}
	for _, item := range ex.SimilarSeenItems {
		if item.ItemID != 10 && item.ItemID != 20 {
			t.Errorf("unexpected evidence item %d", item.ItemID)
		}
		if item.Similarity <= 0 || item.UserStrength <= 0 {
			t.Errorf("bad evidence entry %+v", item)
		}
	}
}

func TestExplainUnknownItem(t *testing.T) {
	b := blendFixture(t)
	ex := b.explain(DefaultConfig(), 1, 777)
	if ex.FinalScore != 0 {
		t.Errorf("final score = %v, want 0 for unknown item", ex.FinalScore)
	}
	if ex.ScoreParts != (ScoreParts{}) {
		t.Errorf("score parts = %+v, want zero", ex.ScoreParts)
	}
	if len(ex.TopNeighborUsers) != 0 || len(ex.SimilarSeenItems) != 0 {
		t.Error("unknown item should carry no evidence")
	}
}

func TestExplainUnknownUser(t *testing.T) {
	b := blendFixture(t)
	ex := b.explain(DefaultConfig(), 999, 10)
	if ex.AlreadySeen {
		t.Error("unknown user cannot have seen anything")
	}
	if len(ex.TopNeighborUsers) != 0 || len(ex.SimilarSeenItems) != 0 {
		t.Error("unknown user should carry no evidence")
	}
	// Popularity still contributes through the cold-start weights.
	if ex.ScoreParts.Popularity <= 0 {
		t.Errorf("popularity part = %v, want positive", ex.ScoreParts.Popularity)
	}
}

func TestExplainEmptyBundle(t *testing.T) {
	b := TrainBundle(DefaultConfig(), nil, nil, testNow)
	ex := b.explain(DefaultConfig(), 1, 10)
	if ex.FinalScore != 0 || ex.AlreadySeen {
		t.Errorf("empty bundle explanation = %+v", ex)
	}
}
