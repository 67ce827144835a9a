package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/binpacker/binpack"
	"github.com/eugenenazirov/binpacker/internal/metrics"
	"github.com/eugenenazirov/binpacker/internal/storage"
	"github.com/eugenenazirov/binpacker/internal/workload"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const defaultMaxItems = 100_000

// Pack request bodies may use up to maxItemBytes per item plus packBodyOverhead
// for the envelope.
const (
	maxItemBytes     = 256
	packBodyOverhead = 4 << 10
)

// Handler wires storage and metrics dependencies into HTTP handlers.
type Handler struct {
	storage  storage.Storage
	recorder metrics.Recorder
	logger   *zap.Logger
	maxItems int

	clock func() time.Time

	mu                sync.RWMutex
	settingsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMetrics sets the recorder notified about every pack request.
func WithMetrics(recorder metrics.Recorder) HandlerOption {
	return func(h *Handler) {
		if recorder != nil {
			h.recorder = recorder
		}
	}
}

// WithMaxItems caps the number of items accepted in a single pack request.
func WithMaxItems(limit int) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxItems = limit
		}
	}
}

// WithLogger sets the logger used for packing diagnostics.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage:  store,
		recorder: metrics.Nop{},
		logger:   zap.NewNop(),
		maxItems: defaultMaxItems,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.settingsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	settings, err := h.storage.GetSettings()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := settingsResponse{
		Capacity:  settings.Capacity,
		Strategy:  settings.Strategy,
		UpdatedAt: h.currentSettingsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	current, err := h.storage.GetSettings()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if req.Capacity != nil {
		current.Capacity = *req.Capacity
	}
	if req.Strategy != nil {
		current.Strategy = binpack.Strategy(*req.Strategy)
	}

	if err := h.storage.SetSettings(current); err != nil {
		if errors.Is(err, storage.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, "Invalid settings", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markSettingsUpdated()

	settings, err := h.storage.GetSettings()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := settingsResponse{
		Capacity:  settings.Capacity,
		Strategy:  settings.Strategy,
		UpdatedAt: h.currentSettingsUpdatedAt(),
		Message:   "Settings updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) maxPackBodyBytes() int64 {
	return int64(h.maxItems)*maxItemBytes + packBodyOverhead
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	body := http.MaxBytesReader(w, r.Body, h.maxPackBodyBytes())
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large",
				fmt.Sprintf("pack requests are limited to %d bytes", tooLarge.Limit),
				fmt.Sprintf("Send at most %d items per request", h.maxItems))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	settings, err := h.storage.GetSettings()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	strategy := settings.Strategy
	if req.Strategy != "" {
		strategy, err = binpack.ParseStrategy(req.Strategy)
		if err != nil {
			h.recorder.RecordFailure("unknown", "unknown_strategy")
			writeError(w, http.StatusBadRequest, "Invalid strategy", err.Error(),
				fmt.Sprintf("Use one of %v", binpack.Strategies()))
			return
		}
	}

	capacity := settings.Capacity
	if req.Capacity != nil {
		if *req.Capacity == 0 || *req.Capacity > storage.MaxCapacity {
			writeError(w, http.StatusBadRequest, "Invalid request",
				fmt.Sprintf("capacity must be between 1 and %d", storage.MaxCapacity))
			return
		}
		capacity = *req.Capacity
	}

	items := make([]workload.Item, 0, len(req.Items)+len(req.Sizes))
	for i, item := range req.Items {
		if item.ID == "" {
			item.ID = fmt.Sprintf("item-%d", i+1)
		}
		items = append(items, item)
	}
	items = append(items, workload.FromSizes(req.Sizes, len(req.Items))...)

	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "items or sizes must contain at least one entry")
		return
	}
	if len(items) > h.maxItems {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("at most %d items can be packed per request, got %d", h.maxItems, len(items)))
		return
	}

	start := time.Now()
	bins, packErr := binpack.Pack(strategy, items, capacity)
	elapsed := time.Since(start)

	if packErr != nil {
		var tooBig *binpack.ItemTooBigError
		switch {
		case errors.As(packErr, &tooBig):
			h.recorder.RecordFailure(strategy.String(), "item_too_big")
			suggestion := fmt.Sprintf("Use a capacity of at least %d or split items larger than %d", tooBig.Size, tooBig.Capacity)
			writeError(w, http.StatusUnprocessableEntity, "Item exceeds capacity", packErr.Error(), suggestion)
		case errors.Is(packErr, binpack.ErrUnknownStrategy):
			writeError(w, http.StatusBadRequest, "Invalid strategy", packErr.Error())
		default:
			writeInternalError(w, packErr)
		}
		return
	}

	summary := binpack.Summarize(bins)
	h.recorder.RecordPack(strategy.String(), summary.Items, summary.Bins, elapsed.Seconds())
	h.logger.Debug("packed items",
		zap.String("strategy", strategy.String()),
		zap.Uint64("capacity", capacity),
		zap.Int("items", summary.Items),
		zap.Int("bins", summary.Bins),
		zap.Duration("duration", elapsed),
		zap.String("request_id", requestIDFromContext(r.Context())),
	)

	resp := packResponse{
		Strategy:          strategy,
		Capacity:          capacity,
		Bins:              make([]binResponse, len(bins)),
		TotalBins:         summary.Bins,
		TotalItems:        summary.Items,
		UsedSpace:         summary.UsedSpace,
		WastedSpace:       summary.WastedSpace,
		FillRatio:         summary.FillRatio,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	for i, bin := range bins {
		resp.Bins[i] = binResponse{
			Items:     bin.Items(),
			Used:      bin.Used(),
			Remaining: bin.Remaining(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentSettingsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settingsUpdatedAt
}

func (h *Handler) markSettingsUpdated() {
	h.mu.Lock()
	h.settingsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type settingsRequest struct {
	Capacity *uint64 `json:"capacity"`
	Strategy *string `json:"strategy"`
}

type packRequest struct {
	Strategy string          `json:"strategy"`
	Capacity *uint64         `json:"capacity"`
	Items    []workload.Item `json:"items"`
	Sizes    []uint64        `json:"sizes"`
}

type binResponse struct {
	Items     []workload.Item `json:"items"`
	Used      uint64          `json:"used"`
	Remaining uint64          `json:"remaining"`
}

type packResponse struct {
	Strategy          binpack.Strategy `json:"strategy"`
	Capacity          uint64           `json:"capacity"`
	Bins              []binResponse    `json:"bins"`
	TotalBins         int              `json:"totalBins"`
	TotalItems        int              `json:"totalItems"`
	UsedSpace         uint64           `json:"usedSpace"`
	WastedSpace       uint64           `json:"wastedSpace"`
	FillRatio         float64          `json:"fillRatio"`
	CalculationTimeMs int64            `json:"calculationTimeMs"`
}

type settingsResponse struct {
	Capacity  uint64           `json:"capacity"`
	Strategy  binpack.Strategy `json:"strategy"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Message   string           `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
