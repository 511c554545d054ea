// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/database"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

type mockStore struct {
	inserted    []database.Interaction
	replacedFor int64
	replaced    []database.Interaction
	follower    int64
	followees   []int64
	pingErr     error
	insertErr   error
}

func (m *mockStore) InsertInteractions(_ context.Context, rows []database.Interaction) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, rows...)
	return nil
}

func (m *mockStore) ReplaceUserInteractions(_ context.Context, userID int64, rows []database.Interaction) error {
	m.replacedFor = userID
	m.replaced = rows
	return nil
}

func (m *mockStore) SyncFollows(_ context.Context, followerID int64, followeeIDs []int64) error {
	m.follower = followerID
	m.followees = followeeIDs
	return nil
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

type mockRecommender struct {
	trainRows       int
	trainErr        error
	trainedFor      []string
	recs            []recommend.Recommendation
	recommendErr    error
	lastTopN        int
	lastPartition   string
	explanation     recommend.Explanation
	invalidated     []string
	invalidatedAll  int
	cachedPartition []recommend.PartitionStatus
}

func (m *mockRecommender) Train(_ context.Context, partition string) (int, error) {
	m.trainedFor = append(m.trainedFor, partition)
	return m.trainRows, m.trainErr
}

func (m *mockRecommender) Recommend(_ context.Context, partition string, _ int64, topN int) ([]recommend.Recommendation, error) {
	m.lastPartition = partition
	m.lastTopN = topN
	return m.recs, m.recommendErr
}

func (m *mockRecommender) Explain(_ context.Context, partition string, userID, itemID int64) (recommend.Explanation, error) {
	m.lastPartition = partition
	ex := m.explanation
	ex.UserID = userID
	ex.ItemID = itemID
	return ex, nil
}

func (m *mockRecommender) Invalidate(partition string) {
	m.invalidated = append(m.invalidated, partition)
}

func (m *mockRecommender) InvalidateAll() { m.invalidatedAll++ }

func (m *mockRecommender) CachedPartitions() []recommend.PartitionStatus {
	return m.cachedPartition
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8475,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Path:         ":memory:",
			QueryTimeout: 10 * time.Second,
		},
		API: config.APIConfig{
			Partitions:       []string{"movie", "tv"},
			DefaultPartition: "movie",
			MaxBatchSize:     3,
		},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
}

func testServer(t *testing.T) (*httptest.Server, *mockStore, *mockRecommender) {
	t.Helper()
	store := &mockStore{}
	rec := &mockRecommender{}
	srv := httptest.NewServer(NewRouter(NewHandler(testConfig(), store, rec)))
	t.Cleanup(srv.Close)
	return srv, store, rec
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, envelope
}

func dataMap(t *testing.T, envelope APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("response data is %T, want object", envelope.Data)
	}
	return m
}

func TestHealth(t *testing.T) {
	srv, _, rec := testServer(t)
	rec.cachedPartition = []recommend.PartitionStatus{
		{Partition: "movie", RowsLoaded: 5},
	}

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := dataMap(t, envelope)
	if data["status"] != "ok" {
		t.Errorf("status = %v, want ok", data["status"])
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestHealthDegradedOnPingFailure(t *testing.T) {
	srv, store, _ := testServer(t)
	store.pingErr = errors.New("connection lost")

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if data := dataMap(t, envelope); data["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", data["status"])
	}
}

func TestCreateInteraction(t *testing.T) {
	srv, store, rec := testServer(t)

	body := map[string]interface{}{
		"user_id":     1,
		"item_id":     10,
		"media_kind":  "movie",
		"event_kind":  "rating",
		"event_value": 8.5,
		"occurred_at": "2026-05-01T10:00:00Z",
	}
	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/interactions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %+v", resp.StatusCode, envelope)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(store.inserted))
	}
	row := store.inserted[0]
	if row.UserID != 1 || row.ItemID != 10 || row.EventKind != "rating" {
		t.Errorf("row = %+v", row)
	}
	if row.EventValue == nil || *row.EventValue != 8.5 {
		t.Errorf("event value = %v, want 8.5", row.EventValue)
	}
	if len(rec.invalidated) != 1 || rec.invalidated[0] != "movie" {
		t.Errorf("invalidated = %v, want [movie]", rec.invalidated)
	}
}

func TestCreateInteractionValidation(t *testing.T) {
	srv, store, _ := testServer(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing user", map[string]interface{}{"item_id": 10, "media_kind": "movie", "event_kind": "watched"}},
		{"bad event kind", map[string]interface{}{"user_id": 1, "item_id": 10, "media_kind": "movie", "event_kind": "liked"}},
		{"unknown partition", map[string]interface{}{"user_id": 1, "item_id": 10, "media_kind": "podcast", "event_kind": "watched"}},
		{"negative item", map[string]interface{}{"user_id": 1, "item_id": -5, "media_kind": "movie", "event_kind": "watched"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/interactions", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %+v", resp.StatusCode, envelope)
			}
			if envelope.Success {
				t.Error("success = true on invalid payload")
			}
		})
	}
	if len(store.inserted) != 0 {
		t.Errorf("invalid payloads reached the store: %+v", store.inserted)
	}
}

func TestCreateInteractionBatch(t *testing.T) {
	srv, store, rec := testServer(t)

	body := map[string]interface{}{
		"events": []map[string]interface{}{
			{"user_id": 1, "item_id": 10, "media_kind": "movie", "event_kind": "watched"},
			{"user_id": 1, "item_id": 20, "media_kind": "tv", "event_kind": "favorite"},
		},
	}
	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/interactions/batch", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %+v", resp.StatusCode, envelope)
	}
	if got := dataMap(t, envelope)["ingested"]; got != float64(2) {
		t.Errorf("ingested = %v, want 2", got)
	}
	if len(store.inserted) != 2 {
		t.Errorf("inserted %d rows, want 2", len(store.inserted))
	}
	// Both touched partitions invalidated.
	if len(rec.invalidated) != 2 {
		t.Errorf("invalidated = %v, want both partitions", rec.invalidated)
	}
}

func TestCreateInteractionBatchTooLarge(t *testing.T) {
	srv, store, _ := testServer(t)

	events := make([]map[string]interface{}, 4) // cap is 3 in testConfig
	for i := range events {
		events[i] = map[string]interface{}{
			"user_id": 1, "item_id": i + 1, "media_kind": "movie", "event_kind": "watched",
		}
	}
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/interactions/batch",
		map[string]interface{}{"events": events})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if len(store.inserted) != 0 {
		t.Error("oversized batch reached the store")
	}
}

func TestReplaceUserInteractions(t *testing.T) {
	srv, store, rec := testServer(t)

	body := map[string]interface{}{
		"user_id": 7,
		"events": []map[string]interface{}{
			{"item_id": 30, "media_kind": "movie", "event_kind": "favorite"},
		},
	}
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/interactions/replace-user", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if store.replacedFor != 7 {
		t.Errorf("replaced user %d, want 7", store.replacedFor)
	}
	if len(store.replaced) != 1 || store.replaced[0].UserID != 7 {
		t.Errorf("replacement rows = %+v, want user id stamped from top level", store.replaced)
	}
	if rec.invalidatedAll != 1 {
		t.Errorf("invalidatedAll = %d, want 1", rec.invalidatedAll)
	}
}

func TestSyncFollows(t *testing.T) {
	srv, store, rec := testServer(t)

	body := map[string]interface{}{
		"follower_id":  1,
		"followee_ids": []int64{2, 3},
	}
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/follows/sync", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if store.follower != 1 || len(store.followees) != 2 {
		t.Errorf("sync = follower %d followees %v", store.follower, store.followees)
	}
	if rec.invalidatedAll != 1 {
		t.Errorf("invalidatedAll = %d, want 1", rec.invalidatedAll)
	}
}

func TestTrain(t *testing.T) {
	srv, _, rec := testServer(t)
	rec.trainRows = 42

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/train?partition=tv", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := dataMap(t, envelope)
	if data["partition"] != "tv" || data["rows_loaded"] != float64(42) {
		t.Errorf("data = %v", data)
	}
	if len(rec.trainedFor) != 1 || rec.trainedFor[0] != "tv" {
		t.Errorf("trainedFor = %v", rec.trainedFor)
	}
}

func TestTrainDefaultPartition(t *testing.T) {
	srv, _, rec := testServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/train", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(rec.trainedFor) != 1 || rec.trainedFor[0] != "movie" {
		t.Errorf("trainedFor = %v, want default partition", rec.trainedFor)
	}
}

func TestTrainUnknownPartition(t *testing.T) {
	srv, _, rec := testServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/train?partition=books", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if len(rec.trainedFor) != 0 {
		t.Errorf("unexpected training calls: %v", rec.trainedFor)
	}
}

func TestTrainFailure(t *testing.T) {
	srv, _, rec := testServer(t)
	rec.trainErr = errors.New("load interactions: disk error")

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/train", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeInternalError {
		t.Errorf("error = %+v", envelope.Error)
	}
}

func TestRecommendations(t *testing.T) {
	srv, _, rec := testServer(t)
	rec.recs = []recommend.Recommendation{
		{ItemID: 30, Score: 0.91, Reason: "knn+item"},
		{ItemID: 40, Score: 0.40, Reason: "popularity"},
	}

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/1?partition=movie&top_n=5", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := dataMap(t, envelope)
	if data["count"] != float64(2) || data["user_id"] != float64(1) {
		t.Errorf("data = %v", data)
	}
	if rec.lastTopN != 5 || rec.lastPartition != "movie" {
		t.Errorf("topN=%d partition=%q", rec.lastTopN, rec.lastPartition)
	}
}

func TestRecommendationsEmptyList(t *testing.T) {
	srv, _, _ := testServer(t)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/recommendations/99", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := dataMap(t, envelope)
	if _, ok := data["recommendations"].([]interface{}); !ok {
		t.Errorf("recommendations = %T, want JSON array (not null)", data["recommendations"])
	}
}

func TestRecommendationsBadParams(t *testing.T) {
	srv, _, _ := testServer(t)

	for _, url := range []string{
		"/api/v1/recommendations/0",
		"/api/v1/recommendations/abc",
		"/api/v1/recommendations/1?top_n=-3",
		"/api/v1/recommendations/1?top_n=nope",
		"/api/v1/recommendations/1?partition=books",
	} {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+url, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, resp.StatusCode)
		}
	}
}

func TestExplain(t *testing.T) {
	srv, _, rec := testServer(t)
	rec.explanation = recommend.Explanation{
		FinalScore: 0.73,
		ScoreParts: recommend.ScoreParts{UserKNN: 0.5, Popularity: 0.23},
	}

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/explain/1/30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := dataMap(t, envelope)
	if data["user_id"] != float64(1) || data["item_id"] != float64(30) {
		t.Errorf("ids = %v/%v", data["user_id"], data["item_id"])
	}
	if data["final_score"] != 0.73 {
		t.Errorf("final_score = %v", data["final_score"])
	}
}

func TestInvalidate(t *testing.T) {
	srv, _, rec := testServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/invalidate",
		map[string]interface{}{"partition": "movie"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(rec.invalidated) != 1 || rec.invalidated[0] != "movie" {
		t.Errorf("invalidated = %v", rec.invalidated)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/invalidate",
		map[string]interface{}{"partition": "all"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if rec.invalidatedAll != 1 {
		t.Errorf("invalidatedAll = %d, want 1", rec.invalidatedAll)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/invalidate",
		map[string]interface{}{"partition": "books"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
