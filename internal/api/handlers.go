// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/database"
	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/metrics"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

// Recommender is the slice of the recommendation service the handlers
// need. Narrow on purpose so tests can mock it.
type Recommender interface {
	Train(ctx context.Context, partition string) (int, error)
	Recommend(ctx context.Context, partition string, userID int64, topN int) ([]recommend.Recommendation, error)
	Explain(ctx context.Context, partition string, userID, itemID int64) (recommend.Explanation, error)
	Invalidate(partition string)
	InvalidateAll()
	CachedPartitions() []recommend.PartitionStatus
}

// Store is the slice of the database layer the handlers need.
type Store interface {
	InsertInteractions(ctx context.Context, rows []database.Interaction) error
	ReplaceUserInteractions(ctx context.Context, userID int64, rows []database.Interaction) error
	SyncFollows(ctx context.Context, followerID int64, followeeIDs []int64) error
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	cfg       *config.Config
	store     Store
	rec       Recommender
	startTime time.Time
}

// NewHandler creates the API handler set.
func NewHandler(cfg *config.Config, store Store, rec Recommender) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     store,
		rec:       rec,
		startTime: time.Now(),
	}
}

// Health reports liveness, storage reachability and cached model state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check database ping failed")
		status = "degraded"
	}

	rw.Success(map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"partitions":     h.rec.CachedPartitions(),
	})
}

// CreateInteraction ingests one interaction event and invalidates the
// touched partition.
func (h *Handler) CreateInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		rw.ValidationError("invalid interaction", validationDetails(err))
		return
	}
	if !h.cfg.PartitionAllowed(req.MediaKind) {
		rw.BadRequest("unknown media_kind: " + req.MediaKind)
		return
	}

	row := database.Interaction{
		UserID:     req.UserID,
		ItemID:     req.ItemID,
		MediaKind:  req.MediaKind,
		EventKind:  req.EventKind,
		EventValue: req.EventValue,
		OccurredAt: req.OccurredAt,
	}
	if err := h.store.InsertInteractions(r.Context(), []database.Interaction{row}); err != nil {
		rw.DatabaseError(err)
		return
	}

	metrics.InteractionsIngested.WithLabelValues(req.MediaKind).Inc()
	h.rec.Invalidate(req.MediaKind)
	metrics.ModelInvalidations.WithLabelValues("ingest").Inc()

	rw.Created(map[string]interface{}{"ingested": 1})
}

// CreateInteractionBatch ingests multiple events and invalidates every
// touched partition.
func (h *Handler) CreateInteractionBatch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BatchInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		rw.ValidationError("invalid batch", validationDetails(err))
		return
	}
	if len(req.Events) > h.cfg.API.MaxBatchSize {
		rw.BadRequest("batch exceeds max size " + strconv.Itoa(h.cfg.API.MaxBatchSize))
		return
	}

	rows := make([]database.Interaction, 0, len(req.Events))
	touched := make(map[string]struct{})
	for _, ev := range req.Events {
		if !h.cfg.PartitionAllowed(ev.MediaKind) {
			rw.BadRequest("unknown media_kind: " + ev.MediaKind)
			return
		}
		touched[ev.MediaKind] = struct{}{}
		rows = append(rows, database.Interaction{
			UserID:     ev.UserID,
			ItemID:     ev.ItemID,
			MediaKind:  ev.MediaKind,
			EventKind:  ev.EventKind,
			EventValue: ev.EventValue,
			OccurredAt: ev.OccurredAt,
		})
	}
	if err := h.store.InsertInteractions(r.Context(), rows); err != nil {
		rw.DatabaseError(err)
		return
	}

	for _, row := range rows {
		metrics.InteractionsIngested.WithLabelValues(row.MediaKind).Inc()
	}
	for partition := range touched {
		h.rec.Invalidate(partition)
	}
	metrics.ModelInvalidations.WithLabelValues("ingest_batch").Inc()

	rw.Created(map[string]interface{}{"ingested": len(rows)})
}

// ReplaceUserInteractions replaces one user's full history and drops
// every cached model.
func (h *Handler) ReplaceUserInteractions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ReplaceUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		rw.ValidationError("invalid replace-user payload", validationDetails(err))
		return
	}

	rows := make([]database.Interaction, 0, len(req.Events))
	for _, ev := range req.Events {
		if !h.cfg.PartitionAllowed(ev.MediaKind) {
			rw.BadRequest("unknown media_kind: " + ev.MediaKind)
			return
		}
		rows = append(rows, database.Interaction{
			UserID:     req.UserID,
			ItemID:     ev.ItemID,
			MediaKind:  ev.MediaKind,
			EventKind:  ev.EventKind,
			EventValue: ev.EventValue,
			OccurredAt: ev.OccurredAt,
		})
	}
	if err := h.store.ReplaceUserInteractions(r.Context(), req.UserID, rows); err != nil {
		rw.DatabaseError(err)
		return
	}

	h.rec.InvalidateAll()
	metrics.ModelInvalidations.WithLabelValues("replace_user").Inc()

	rw.Success(map[string]interface{}{
		"user_id":  req.UserID,
		"replaced": len(rows),
	})
}

// SyncFollows replaces a follower's followee set and drops every cached
// model, since the follow graph spans partitions.
func (h *Handler) SyncFollows(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req FollowsSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		rw.ValidationError("invalid follows payload", validationDetails(err))
		return
	}

	if err := h.store.SyncFollows(r.Context(), req.FollowerID, req.FolloweeIDs); err != nil {
		rw.DatabaseError(err)
		return
	}

	h.rec.InvalidateAll()
	metrics.ModelInvalidations.WithLabelValues("follows_sync").Inc()

	rw.Success(map[string]interface{}{
		"follower_id": req.FollowerID,
		"followees":   len(req.FolloweeIDs),
	})
}

// Train forces a synchronous retrain of one partition.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	partition, ok := h.partitionParam(rw, r)
	if !ok {
		return
	}

	start := time.Now()
	rows, err := h.rec.Train(r.Context(), partition)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("partition", partition).Msg("Training failed")
		rw.InternalError("training failed")
		return
	}
	metrics.TrainDuration.WithLabelValues(partition).Observe(time.Since(start).Seconds())
	metrics.TrainRowsLoaded.WithLabelValues(partition).Set(float64(rows))

	rw.Success(map[string]interface{}{
		"partition":   partition,
		"rows_loaded": rows,
	})
}

// Recommendations returns ranked items for a user.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := pathID(rw, r, "userID")
	if !ok {
		return
	}
	partition, ok := h.partitionParam(rw, r)
	if !ok {
		return
	}

	topN := 0
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			rw.BadRequest("top_n must be a positive integer")
			return
		}
		topN = n
	}

	start := time.Now()
	recs, err := h.rec.Recommend(r.Context(), partition, userID, topN)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("partition", partition).Msg("Recommendation failed")
		rw.InternalError("recommendation failed")
		return
	}
	metrics.RecommendDuration.WithLabelValues("recommend", partition).Observe(time.Since(start).Seconds())

	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	rw.Success(map[string]interface{}{
		"user_id":         userID,
		"partition":       partition,
		"count":           len(recs),
		"recommendations": recs,
	})
}

// Explain decomposes the blended score of one (user, item) pair.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := pathID(rw, r, "userID")
	if !ok {
		return
	}
	itemID, ok := pathID(rw, r, "itemID")
	if !ok {
		return
	}
	partition, ok := h.partitionParam(rw, r)
	if !ok {
		return
	}

	start := time.Now()
	ex, err := h.rec.Explain(r.Context(), partition, userID, itemID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("partition", partition).Msg("Explain failed")
		rw.InternalError("explain failed")
		return
	}
	metrics.RecommendDuration.WithLabelValues("explain", partition).Observe(time.Since(start).Seconds())

	rw.Success(ex)
}

// Invalidate drops cached models for one partition or all of them.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}

	if req.Partition == "" || req.Partition == "all" {
		h.rec.InvalidateAll()
		metrics.ModelInvalidations.WithLabelValues("manual_all").Inc()
		rw.Success(map[string]interface{}{"invalidated": "all"})
		return
	}
	if !h.cfg.PartitionAllowed(req.Partition) {
		rw.BadRequest("unknown partition: " + req.Partition)
		return
	}
	h.rec.Invalidate(req.Partition)
	metrics.ModelInvalidations.WithLabelValues("manual").Inc()
	rw.Success(map[string]interface{}{"invalidated": req.Partition})
}

// partitionParam resolves the partition query parameter, falling back to
// the configured default. Writes a 400 and returns false when unknown.
func (h *Handler) partitionParam(rw *ResponseWriter, r *http.Request) (string, bool) {
	partition := r.URL.Query().Get("partition")
	if partition == "" {
		partition = h.cfg.API.DefaultPartition
	}
	if !h.cfg.PartitionAllowed(partition) {
		rw.BadRequest("unknown partition: " + partition)
		return "", false
	}
	return partition, true
}

// pathID parses a positive int64 path parameter.
func pathID(rw *ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		rw.BadRequest(name + " must be a positive integer")
		return 0, false
	}
	return id, true
}
