// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package recommend

import (
	"fmt"
	"time"
)

// Config holds the tunable parameters of the scoring engine.
type Config struct {
	// ScoreCeiling caps the per-(user,item) normalized score.
	ScoreCeiling float64 `koanf:"score_ceiling"`

	// DecayBase and DecayScale shape the recency multiplier
	// base + scale*exp(-age/halflife).
	DecayBase     float64       `koanf:"decay_base"`
	DecayScale    float64       `koanf:"decay_scale"`
	DecayHalflife time.Duration `koanf:"decay_halflife"`

	// UserNeighbors is the requested k for user-similarity queries.
	UserNeighbors int `koanf:"user_neighbors"`

	// ItemNeighbors is the requested k for item-similarity queries.
	ItemNeighbors int `koanf:"item_neighbors"`

	// ProfileSeeds is the number of strongest interactions used for the
	// profile-seeded item pass and the explanation anchor set.
	ProfileSeeds int `koanf:"profile_seeds"`

	// MaxLatentRank caps the truncated-factorization rank.
	MaxLatentRank int `koanf:"max_latent_rank"`

	// LatentIterations is the subspace-iteration count.
	LatentIterations int `koanf:"latent_iterations"`

	// Seed makes factorization deterministic across retrains.
	Seed int64 `koanf:"seed"`

	// DefaultTopN and MaxTopN bound recommendation list sizes.
	DefaultTopN int `koanf:"default_top_n"`
	MaxTopN     int `koanf:"max_top_n"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ScoreCeiling:     6.0,
		DecayBase:        0.72,
		DecayScale:       0.36,
		DecayHalflife:    240 * 24 * time.Hour,
		UserNeighbors:    20,
		ItemNeighbors:    30,
		ProfileSeeds:     5,
		MaxLatentRank:    32,
		LatentIterations: 6,
		Seed:             42,
		DefaultTopN:      20,
		MaxTopN:          100,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.ScoreCeiling <= 0 {
		return fmt.Errorf("score_ceiling must be positive, got %v", c.ScoreCeiling)
	}
	if c.DecayBase <= 0 || c.DecayScale < 0 {
		return fmt.Errorf("invalid decay parameters: base=%v scale=%v", c.DecayBase, c.DecayScale)
	}
	if c.DecayHalflife <= 0 {
		return fmt.Errorf("decay_halflife must be positive, got %v", c.DecayHalflife)
	}
	if c.UserNeighbors < 2 {
		return fmt.Errorf("user_neighbors must be >= 2, got %d", c.UserNeighbors)
	}
	if c.ItemNeighbors < 2 {
		return fmt.Errorf("item_neighbors must be >= 2, got %d", c.ItemNeighbors)
	}
	if c.ProfileSeeds < 1 {
		return fmt.Errorf("profile_seeds must be >= 1, got %d", c.ProfileSeeds)
	}
	if c.MaxLatentRank < 2 {
		return fmt.Errorf("max_latent_rank must be >= 2, got %d", c.MaxLatentRank)
	}
	if c.LatentIterations < 1 {
		return fmt.Errorf("latent_iterations must be >= 1, got %d", c.LatentIterations)
	}
	if c.DefaultTopN < 1 || c.MaxTopN < c.DefaultTopN {
		return fmt.Errorf("invalid top_n bounds: default=%d max=%d", c.DefaultTopN, c.MaxTopN)
	}
	return nil
}
