// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pshanbhag/codetrack/internal/catalog"
	"github.com/pshanbhag/codetrack/internal/codeforces"
	"github.com/pshanbhag/codetrack/internal/config"
	"github.com/pshanbhag/codetrack/internal/models"
	"github.com/pshanbhag/codetrack/internal/notify"
	"github.com/pshanbhag/codetrack/internal/recommend"
	"github.com/pshanbhag/codetrack/internal/store"
	syncer "github.com/pshanbhag/codetrack/internal/sync"
)

type mockClient struct {
	userInfo func(ctx context.Context, handle string) (*codeforces.UserInfo, error)
	problems func(ctx context.Context) ([]models.Problem, error)
}

func (m *mockClient) FetchUserInfo(ctx context.Context, handle string) (*codeforces.UserInfo, error) {
	if m.userInfo != nil {
		return m.userInfo(ctx, handle)
	}
	return &codeforces.UserInfo{Handle: handle, Rating: 1400, MaxRating: 1520}, nil
}

func (m *mockClient) FetchRatingHistory(ctx context.Context, handle string) ([]codeforces.RatingChange, error) {
	return []codeforces.RatingChange{}, nil
}

func (m *mockClient) FetchSubmissions(ctx context.Context, handle string, count int) ([]codeforces.Submission, error) {
	return []codeforces.Submission{}, nil
}

func (m *mockClient) FetchProblems(ctx context.Context) ([]models.Problem, error) {
	if m.problems != nil {
		return m.problems(ctx)
	}
	return []models.Problem{}, nil
}

type testServer struct {
	router    http.Handler
	store     *store.MemoryStore
	client    *mockClient
	scheduler *syncer.Scheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	client := &mockClient{}
	syncCfg := &config.SyncConfig{
		Interval:            24 * time.Hour,
		InitialDelay:        time.Minute,
		Workers:             2,
		BatchTimeout:        time.Minute,
		RecentWindow:        10,
		InactivityThreshold: 7 * 24 * time.Hour,
	}
	cfCfg := &config.CodeforcesConfig{SubmissionCount: 50}

	manager := syncer.NewManager(st, client, notify.Noop{}, syncCfg, cfCfg)
	scheduler := syncer.NewScheduler(manager, syncCfg)

	recommendCache := catalog.New("recommend", 24*time.Hour, client.FetchProblems)
	passthroughCache := catalog.New("problemset", time.Hour, client.FetchProblems)
	engine := recommend.NewEngine(recommendCache)

	handler := NewHandler(st, manager, scheduler, engine, passthroughCache, func() string { return "closed" }, "test")

	return &testServer{
		router:    NewRouter(handler, &config.APIConfig{}),
		store:     st,
		client:    client,
		scheduler: scheduler,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response envelope: %v (body: %s)", err, rec.Body.String())
	}
	return &resp
}

func dataAsMap(t *testing.T, resp *models.APIResponse) map[string]interface{} {
	t.Helper()

	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected object data, got %T", resp.Data)
	}
	return m
}

func seedProfile(t *testing.T, ts *testServer, profile *models.Profile) {
	t.Helper()

	if profile.ID == "" {
		profile.ID = "seed-" + profile.Handle
	}
	if err := ts.store.Create(context.Background(), profile); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Errorf("expected success status, got %q", resp.Status)
	}
	data := dataAsMap(t, resp)
	if data["status"] != "ok" {
		t.Errorf("expected ok health status, got %v", data["status"])
	}
	if data["upstream"] != "closed" {
		t.Errorf("expected closed upstream state, got %v", data["upstream"])
	}
}

func TestCreateProfileValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"email": "a@b.com", "handle": "tourist"}},
		{"bad email", map[string]interface{}{"name": "A", "email": "not-an-email", "handle": "tourist"}},
		{"handle too short", map[string]interface{}{"name": "A", "email": "a@b.com", "handle": "ab"}},
		{"handle bad characters", map[string]interface{}{"name": "A", "email": "a@b.com", "handle": "bad handle!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/profiles", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec)
			if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %+v", resp.Error)
			}
		})
	}
}

func TestCreateProfileRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/profiles", map[string]interface{}{
		"name":   "Alice",
		"email":  "alice@example.com",
		"handle": "alice_cf",
		"bogus":  true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestProfileLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/profiles", map[string]interface{}{
		"name":   "Alice",
		"email":  "alice@example.com",
		"handle": "alice_cf",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	created := dataAsMap(t, decodeEnvelope(t, rec))
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("expected a generated profile ID")
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/profiles/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := dataAsMap(t, decodeEnvelope(t, rec))
	if got["handle"] != "alice_cf" {
		t.Errorf("expected handle alice_cf, got %v", got["handle"])
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/profiles/"+id, map[string]interface{}{
		"name":   "Alice B",
		"email":  "alice@example.com",
		"handle": "alice_cf",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := dataAsMap(t, decodeEnvelope(t, rec))
	if updated["name"] != "Alice B" {
		t.Errorf("expected renamed profile, got %v", updated["name"])
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/profiles/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/profiles/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateProfileDuplicateHandle(t *testing.T) {
	ts := newTestServer(t)
	seedProfile(t, ts, &models.Profile{Name: "Bob", Email: "bob@example.com", Handle: "bob_cf"})

	rec := ts.do(t, http.MethodPost, "/api/v1/profiles", map[string]interface{}{
		"name":   "Other Bob",
		"email":  "other@example.com",
		"handle": "bob_cf",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "CONFLICT" {
		t.Errorf("expected CONFLICT code, got %+v", resp.Error)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/profiles/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND code, got %+v", resp.Error)
	}
}

func TestListProfilesCarriesSyncWarning(t *testing.T) {
	ts := newTestServer(t)
	ts.client.userInfo = func(ctx context.Context, handle string) (*codeforces.UserInfo, error) {
		return nil, codeforces.ErrUnavailable
	}
	seedProfile(t, ts, &models.Profile{Name: "Carol", Email: "carol@example.com", Handle: "carol_cf"})

	rec := ts.do(t, http.MethodPost, "/api/v1/sync/carol_cf", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 from failed sync, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/profiles", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	list, ok := resp.Data.([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("expected one summary, got %v", resp.Data)
	}
	summary := list[0].(map[string]interface{})
	warning, _ := summary["sync_warning"].(string)
	if warning == "" {
		t.Error("expected sync warning on summary after failed sync")
	}
}

func TestGetContestsDaysFilter(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now().UTC()
	seedProfile(t, ts, &models.Profile{
		ID:     "p1",
		Name:   "Dan",
		Email:  "dan@example.com",
		Handle: "dan_cf",
		ContestHistory: []models.ContestResult{
			{ContestID: 1, ContestName: "Old Round", At: now.AddDate(0, 0, -120)},
			{ContestID: 2, ContestName: "Recent Round", At: now.AddDate(0, 0, -5)},
		},
	})

	rec := ts.do(t, http.MethodGet, "/api/v1/profiles/p1/contests", nil)
	resp := decodeEnvelope(t, rec)
	all, _ := resp.Data.([]interface{})
	if len(all) != 2 {
		t.Fatalf("expected full history, got %d entries", len(all))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/profiles/p1/contests?days=30", nil)
	resp = decodeEnvelope(t, rec)
	filtered, _ := resp.Data.([]interface{})
	if len(filtered) != 1 {
		t.Fatalf("expected one recent contest, got %d", len(filtered))
	}
	entry := filtered[0].(map[string]interface{})
	if entry["contest_name"] != "Recent Round" {
		t.Errorf("expected the recent contest, got %v", entry["contest_name"])
	}
}

func TestSyncProfileByHandle(t *testing.T) {
	ts := newTestServer(t)
	seedProfile(t, ts, &models.Profile{ID: "p1", Name: "Eve", Email: "eve@example.com", Handle: "eve_cf"})

	rec := ts.do(t, http.MethodPost, "/api/v1/sync/eve_cf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := dataAsMap(t, decodeEnvelope(t, rec))
	if rating, _ := data["current_rating"].(float64); int(rating) != 1400 {
		t.Errorf("expected synced rating 1400, got %v", data["current_rating"])
	}
}

func TestSyncProfileUnknownHandle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/sync/ghost_cf", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSyncProfileInvalidHandleUpstream(t *testing.T) {
	ts := newTestServer(t)
	ts.client.userInfo = func(ctx context.Context, handle string) (*codeforces.UserInfo, error) {
		return nil, codeforces.ErrInvalidHandle
	}
	seedProfile(t, ts, &models.Profile{ID: "p1", Name: "Fay", Email: "fay@example.com", Handle: "fay_cf"})

	rec := ts.do(t, http.MethodPost, "/api/v1/sync/fay_cf", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "INVALID_HANDLE" {
		t.Errorf("expected INVALID_HANDLE code, got %+v", resp.Error)
	}
}

func TestSyncAllReturnsAccepted(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/sync", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestUpdateSchedule(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/sync/schedule", map[string]interface{}{"interval": "12h"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := ts.scheduler.Interval(); got != 12*time.Hour {
		t.Errorf("expected scheduler interval 12h, got %v", got)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/sync/schedule", map[string]interface{}{"interval": "soon"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed duration, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/sync/schedule", map[string]interface{}{"interval": "-1h"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative duration, got %d", rec.Code)
	}
}

func TestGetRecommendations(t *testing.T) {
	ts := newTestServer(t)
	rating := func(v int) *int { return &v }
	ts.client.problems = func(ctx context.Context) ([]models.Problem, error) {
		return []models.Problem{
			{ContestID: 100, Index: "A", Name: "Warmup", Rating: rating(1300), Tags: []string{"math"}},
			{ContestID: 101, Index: "B", Name: "Stretch", Rating: rating(1600), Tags: []string{"dp"}},
			{ContestID: 102, Index: "C", Name: "Steady", Rating: rating(1450), Tags: []string{"greedy"}},
		}, nil
	}
	seedProfile(t, ts, &models.Profile{
		ID:            "p1",
		Name:          "Gus",
		Email:         "gus@example.com",
		Handle:        "gus_cf",
		CurrentRating: 1400,
	})

	rec := ts.do(t, http.MethodGet, "/api/v1/profiles/p1/recommendations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	buckets, _ := resp.Data.([]interface{})
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	first := buckets[0].(map[string]interface{})
	if title, _ := first["title"].(string); title == "" {
		t.Error("expected a bucket title")
	}
}

func TestGetRecommendationsColdCatalog(t *testing.T) {
	ts := newTestServer(t)
	ts.client.problems = func(ctx context.Context) ([]models.Problem, error) {
		return nil, codeforces.ErrUnavailable
	}
	seedProfile(t, ts, &models.Profile{ID: "p1", Name: "Hal", Email: "hal@example.com", Handle: "hal_cf", CurrentRating: 1400})

	rec := ts.do(t, http.MethodGet, "/api/v1/profiles/p1/recommendations", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for cold catalog, got %d", rec.Code)
	}
}

func TestGetProblemset(t *testing.T) {
	ts := newTestServer(t)
	rating := func(v int) *int { return &v }
	ts.client.problems = func(ctx context.Context) ([]models.Problem, error) {
		return []models.Problem{
			{ContestID: 1, Index: "A", Name: "One", Rating: rating(800), Tags: []string{"implementation"}},
			{ContestID: 2, Index: "B", Name: "Two", Rating: rating(900), Tags: []string{"math"}},
		}, nil
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/problemset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := dataAsMap(t, decodeEnvelope(t, rec))
	if count, _ := data["count"].(float64); int(count) != 2 {
		t.Errorf("expected count 2, got %v", data["count"])
	}
}

func TestResponsesCarryETag(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/health", nil)
	if etag := rec.Header().Get("ETag"); etag == "" {
		t.Error("expected an ETag header on envelope responses")
	}
}
