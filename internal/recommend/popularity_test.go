// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import "testing"

func TestBuildPopularity(t *testing.T) {
	m := threeUserMatrix(t)
	pop := buildPopularity(m)
	if len(pop) != m.NumItems() {
		t.Fatalf("popularity covers %d items, want %d", len(pop), m.NumItems())
	}
	if !floatNear(pop[10], 4) {
		t.Errorf("pop(10) = %v, want 4", pop[10])
	}
	if !floatNear(pop[20], 2) {
		t.Errorf("pop(20) = %v, want 2", pop[20])
	}
	if !floatNear(pop[40], 1) {
		t.Errorf("pop(40) = %v, want 1", pop[40])
	}
	if buildPopularity(nil) != nil {
		t.Error("nil matrix should yield nil popularity")
	}
}
