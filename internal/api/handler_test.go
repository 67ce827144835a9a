package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/binpacker/binpack"
	"github.com/eugenenazirov/binpacker/internal/storage"
	"github.com/eugenenazirov/binpacker/internal/workload"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingRecorder struct {
	mu       sync.Mutex
	packs    []string
	failures []string
}

func (r *recordingRecorder) RecordPack(strategy string, _, _ int, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packs = append(r.packs, strategy)
}

func (r *recordingRecorder) RecordFailure(strategy, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, strategy+":"+reason)
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	logger := zaptest.NewLogger(t)

	opts = append([]HandlerOption{WithClock(clock.Now), WithLogger(logger)}, opts...)
	handler := NewHandler(store, opts...)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type packBody struct {
	Strategy    string  `json:"strategy"`
	Capacity    uint64  `json:"capacity"`
	TotalBins   int     `json:"totalBins"`
	TotalItems  int     `json:"totalItems"`
	UsedSpace   uint64  `json:"usedSpace"`
	WastedSpace uint64  `json:"wastedSpace"`
	FillRatio   float64 `json:"fillRatio"`
	Bins        []struct {
		Items     []workload.Item `json:"items"`
		Used      uint64          `json:"used"`
		Remaining uint64          `json:"remaining"`
	} `json:"bins"`
}

func decodePack(t *testing.T, rec *httptest.ResponseRecorder) packBody {
	t.Helper()
	var body packBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetSettingsReturnsDefaults(t *testing.T) {
	router, clock := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Capacity  uint64    `json:"capacity"`
		Strategy  string    `json:"strategy"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := storage.DefaultSettings()
	if body.Capacity != want.Capacity || body.Strategy != want.Strategy.String() {
		t.Fatalf("expected %+v, got %+v", want, body)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutSettingsUpdatesStorage(t *testing.T) {
	router, clock := setupTestRouter(t)

	clock.Advance(time.Hour)

	rec := doJSON(t, router, http.MethodPut, "/api/settings", map[string]any{
		"capacity": 250,
		"strategy": "First-Fit-Decreasing",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Capacity  uint64    `json:"capacity"`
		Strategy  string    `json:"strategy"`
		UpdatedAt time.Time `json:"updatedAt"`
		Message   string    `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Message == "" {
		t.Fatalf("expected success message, got empty string")
	}
	if body.Capacity != 250 || body.Strategy != "ffd" {
		t.Fatalf("unexpected settings: %+v", body)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutSettingsPartialUpdate(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/settings", map[string]any{"capacity": 40})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Capacity uint64 `json:"capacity"`
		Strategy string `json:"strategy"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Capacity != 40 || body.Strategy != storage.DefaultSettings().Strategy.String() {
		t.Fatalf("expected strategy to be kept, got %+v", body)
	}
}

func TestPutSettingsValidatesInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, payload := range []map[string]any{
		{"capacity": 0},
		{"strategy": "best-fit"},
	} {
		rec := doJSON(t, router, http.MethodPut, "/api/settings", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %v, got %d", payload, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestPackEndpointSuccess(t *testing.T) {
	recorder := &recordingRecorder{}
	router, _ := setupTestRouter(t, WithMetrics(recorder))

	rec := doJSON(t, router, http.MethodPost, "/api/pack", map[string]any{
		"strategy": "ffd",
		"items": []map[string]any{
			{"id": "db", "size": 60},
			{"size": 50},
		},
		"sizes": []int{30, 20},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodePack(t, rec)
	if body.Strategy != "ffd" || body.Capacity != 100 {
		t.Fatalf("unexpected strategy/capacity: %s/%d", body.Strategy, body.Capacity)
	}
	if body.TotalBins != 2 || body.TotalItems != 4 {
		t.Fatalf("expected 2 bins and 4 items, got %d/%d", body.TotalBins, body.TotalItems)
	}
	if body.UsedSpace != 160 || body.WastedSpace != 40 {
		t.Fatalf("unexpected space accounting: used=%d wasted=%d", body.UsedSpace, body.WastedSpace)
	}

	first := body.Bins[0]
	if len(first.Items) != 2 || first.Items[0].ID != "db" || first.Items[1].ID != "item-3" {
		t.Fatalf("unexpected first bin: %+v", first.Items)
	}
	if first.Used != 90 || first.Remaining != 10 {
		t.Fatalf("unexpected first bin accounting: %d/%d", first.Used, first.Remaining)
	}
	if body.Bins[1].Items[0].ID != "item-2" {
		t.Fatalf("expected generated ID for unnamed item, got %q", body.Bins[1].Items[0].ID)
	}

	if len(recorder.packs) != 1 || recorder.packs[0] != "ffd" {
		t.Fatalf("expected one recorded pack, got %v", recorder.packs)
	}
}

func TestPackEndpointUsesStoredSettings(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/settings", map[string]any{"capacity": 10, "strategy": "next-fit"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/pack", map[string]any{"sizes": []int{6, 6, 4}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodePack(t, rec)
	if body.Strategy != string(binpack.StrategyNextFit) || body.Capacity != 10 {
		t.Fatalf("expected stored settings, got %s/%d", body.Strategy, body.Capacity)
	}
	if body.TotalBins != 2 {
		t.Fatalf("expected 2 bins, got %d", body.TotalBins)
	}
}

func TestPackEndpointRejectsOversizedItem(t *testing.T) {
	recorder := &recordingRecorder{}
	router, _ := setupTestRouter(t, WithMetrics(recorder))

	rec := doJSON(t, router, http.MethodPost, "/api/pack", map[string]any{
		"strategy": "mffd",
		"capacity": 100,
		"sizes":    []int{10, 150},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body struct {
		Error      string `json:"error"`
		Details    string `json:"details"`
		Suggestion string `json:"suggestion"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Details != "Object too big! 150 can't fit in 100" {
		t.Fatalf("unexpected details: %q", body.Details)
	}
	if body.Suggestion == "" {
		t.Fatalf("expected suggestion to be populated")
	}
	if len(recorder.failures) != 1 || recorder.failures[0] != "mffd:item_too_big" {
		t.Fatalf("expected recorded failure, got %v", recorder.failures)
	}
}

func TestPackEndpointRejectsOversizedBody(t *testing.T) {
	router, _ := setupTestRouter(t, WithMaxItems(2))

	sizes := make([]int, 5000)
	for i := range sizes {
		sizes[i] = 1000 + i
	}
	rec := doJSON(t, router, http.MethodPost, "/api/pack", map[string]any{"sizes": sizes})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/pack", map[string]any{"sizes": []int{10, 20}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for a body within the limit, got %d", rec.Code)
	}
}

func TestPackEndpointValidatesInput(t *testing.T) {
	router, _ := setupTestRouter(t, WithMaxItems(3))

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{name: "no items", payload: map[string]any{}},
		{name: "unknown strategy", payload: map[string]any{"strategy": "best-fit", "sizes": []int{1}}},
		{name: "zero capacity", payload: map[string]any{"capacity": 0, "sizes": []int{1}}},
		{name: "too many items", payload: map[string]any{"sizes": []int{1, 2, 3, 4}}},
		{name: "negative size", payload: map[string]any{"sizes": []int{-1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/pack", tc.payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestPackEndpointAllStrategiesConserveItems(t *testing.T) {
	router, _ := setupTestRouter(t)

	items, err := workload.NewGenerator(17).Generate(300, 1, 100)
	if err != nil {
		t.Fatalf("generate items: %v", err)
	}

	for _, strategy := range binpack.Strategies() {
		rec := doJSON(t, router, http.MethodPost, "/api/pack", map[string]any{
			"strategy": strategy,
			"items":    items,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", strategy, rec.Code)
		}

		body := decodePack(t, rec)
		count := 0
		for _, bin := range body.Bins {
			var used uint64
			for _, item := range bin.Items {
				used += item.Units
			}
			if used+bin.Remaining != body.Capacity {
				t.Fatalf("%s: bin space not conserved: used=%d remaining=%d", strategy, used, bin.Remaining)
			}
			count += len(bin.Items)
		}
		if count != len(items) {
			t.Fatalf("%s: expected %d items, got %d", strategy, len(items), count)
		}
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/pack", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}
}
