// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package recommend implements the CineGraph scoring engine: interaction
// normalization with recency decay, a sparse user-item matrix, cosine
// nearest-neighbor models over users and items, truncated-factorization
// latent scores, follow-graph propagation, popularity, and a tier-weighted
// blend with reason attribution and score explanations.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service caches one trained bundle per catalog partition and serves
// recommendations and explanations from it.
//
// Each partition has its own slot with its own mutex, so training the
// movie partition never blocks requests for the tv partition. Within one
// partition, load-or-build holds the slot lock for the full duration of
// loading and training; the first caller after an invalidation pays the
// cold-start cost.
type Service struct {
	cfg    Config
	store  DataStore
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	slots map[string]*partitionSlot
}

type partitionSlot struct {
	mu     sync.Mutex
	bundle *Bundle
}

// NewService creates a recommendation service backed by the given store.
func NewService(cfg Config, store DataStore, logger zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("data store is required")
	}
	return &Service{
		cfg:    cfg,
		store:  store,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
		slots:  make(map[string]*partitionSlot),
	}, nil
}

func (s *Service) slot(partition string) *partitionSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[partition]
	if !ok {
		sl = &partitionSlot{}
		s.slots[partition] = sl
	}
	return sl
}

// ensure returns the cached bundle for a partition, training one first if
// none is cached. The slot lock covers load and train.
func (s *Service) ensure(ctx context.Context, partition string) (*Bundle, error) {
	sl := s.slot(partition)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.bundle != nil {
		return sl.bundle, nil
	}
	return s.trainLocked(ctx, partition, sl)
}

// trainLocked loads data and fits a fresh bundle. Caller holds sl.mu.
func (s *Service) trainLocked(ctx context.Context, partition string, sl *partitionSlot) (*Bundle, error) {
	start := s.now()

	raw, err := s.store.LoadInteractions(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	edges, err := s.store.LoadFollows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load follows: %w", err)
	}

	bundle := TrainBundle(s.cfg, raw, edges, s.now())
	sl.bundle = bundle

	evt := s.logger.Info().
		Str("partition", partition).
		Int("rows", bundle.RowCount).
		Dur("duration", s.now().Sub(start))
	if bundle.Empty() {
		evt.Msg("Trained empty bundle")
	} else {
		evt.Int("users", bundle.Matrix.NumUsers()).
			Int("items", bundle.Matrix.NumItems()).
			Msg("Trained recommendation bundle")
	}
	return bundle, nil
}

// Train forces a retrain of one partition and returns the number of raw
// interaction rows the new bundle was built from.
func (s *Service) Train(ctx context.Context, partition string) (int, error) {
	sl := s.slot(partition)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	bundle, err := s.trainLocked(ctx, partition, sl)
	if err != nil {
		return 0, err
	}
	return bundle.RowCount, nil
}

// Recommend returns up to topN ranked items for a user. topN values
// outside (0, MaxTopN] are clamped to the configured defaults.
func (s *Service) Recommend(ctx context.Context, partition string, userID int64, topN int) ([]Recommendation, error) {
	if topN <= 0 {
		topN = s.cfg.DefaultTopN
	}
	if topN > s.cfg.MaxTopN {
		topN = s.cfg.MaxTopN
	}
	bundle, err := s.ensure(ctx, partition)
	if err != nil {
		return nil, err
	}
	return bundle.rank(s.cfg, userID, topN), nil
}

// Explain decomposes the blended score of one (user, item) pair.
func (s *Service) Explain(ctx context.Context, partition string, userID, itemID int64) (Explanation, error) {
	bundle, err := s.ensure(ctx, partition)
	if err != nil {
		return Explanation{}, err
	}
	return bundle.explain(s.cfg, userID, itemID), nil
}

// Invalidate drops the cached bundle for one partition. The next request
// for it retrains synchronously.
func (s *Service) Invalidate(partition string) {
	sl := s.slot(partition)
	sl.mu.Lock()
	sl.bundle = nil
	sl.mu.Unlock()
	s.logger.Debug().Str("partition", partition).Msg("Invalidated partition bundle")
}

// InvalidateAll drops every cached bundle.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	slots := make([]*partitionSlot, 0, len(s.slots))
	for _, sl := range s.slots {
		slots = append(slots, sl)
	}
	s.mu.Unlock()

	for _, sl := range slots {
		sl.mu.Lock()
		sl.bundle = nil
		sl.mu.Unlock()
	}
	s.logger.Debug().Msg("Invalidated all partition bundles")
}

// PartitionStatus describes one cached bundle for health reporting.
type PartitionStatus struct {
	Partition  string    `json:"partition"`
	RowsLoaded int       `json:"rows_loaded"`
	TrainedAt  time.Time `json:"trained_at"`
}

// CachedPartitions lists the partitions with a trained bundle, sorted by
// partition name.
func (s *Service) CachedPartitions() []PartitionStatus {
	s.mu.Lock()
	names := make([]string, 0, len(s.slots))
	slots := make(map[string]*partitionSlot, len(s.slots))
	for name, sl := range s.slots {
		names = append(names, name)
		slots[name] = sl
	}
	s.mu.Unlock()
	sort.Strings(names)

	out := make([]PartitionStatus, 0, len(names))
	for _, name := range names {
		sl := slots[name]
		sl.mu.Lock()
		if sl.bundle != nil {
			out = append(out, PartitionStatus{
				Partition:  name,
				RowsLoaded: sl.bundle.RowCount,
				TrainedAt:  sl.bundle.TrainedAt,
			})
		}
		sl.mu.Unlock()
	}
	return out
}
