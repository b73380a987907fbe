package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/sidesplit/internal/allocator"
	"github.com/eugenenazirov/sidesplit/internal/planner"
	"github.com/eugenenazirov/sidesplit/internal/report"
	"github.com/eugenenazirov/sidesplit/internal/storage"
	"github.com/eugenenazirov/sidesplit/internal/track"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Planner produces allocation plans.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (planner.Plan, error)
}

// Handler wires planner and storage dependencies into HTTP handlers.
type Handler struct {
	planner Planner
	storage storage.Storage

	clock       func() time.Time
	maxDeadline int

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

// WithMaxDeadlineSeconds rejects allocation requests asking for a longer
// search budget. Zero leaves the budget unbounded.
func WithMaxDeadlineSeconds(seconds int) HandlerOption {
	return func(h *Handler) {
		if seconds > 0 {
			h.maxDeadline = seconds
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(p Planner, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner: p,
		storage: store,
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
	defaults, err := h.storage.GetDefaults()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		Defaults:  defaults,
		UpdatedAt: h.currentSettingsUpdatedAt(),
	})
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("unable to parse JSON payload: %v", err))
		return
	}

	err := h.storage.SetDefaults(storage.Defaults{
		Capacity:        req.Capacity.seconds,
		Sides:           req.Sides,
		Even:            req.Even,
		DeadlineSeconds: req.DeadlineSeconds,
		Threshold:       req.Threshold,
		Strategy:        planner.Strategy(req.Strategy),
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidDefaults) {
			writeError(w, http.StatusBadRequest, "Invalid settings", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markSettingsUpdated()

	defaults, err := h.storage.GetDefaults()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		Defaults:  defaults,
		UpdatedAt: h.currentSettingsUpdatedAt(),
		Message:   "Settings updated successfully",
	})
}

func (h *Handler) handleCreateAllocation(w http.ResponseWriter, r *http.Request) {
	var body allocationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("unable to parse JSON payload: %v", err))
		return
	}

	defaults, err := h.storage.GetDefaults()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	req, err := body.toRequest(defaults, h.maxDeadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	if cached, ok := h.storage.LookupFingerprint(req.Fingerprint()); ok {
		h.writePlan(w, cached, true)
		return
	}

	plan, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		if isPreconditionError(err) {
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	id, err := h.storage.SavePlan(plan)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	plan.ID = id

	h.writePlan(w, plan, false)
}

func (h *Handler) writePlan(w http.ResponseWriter, plan planner.Plan, cached bool) {
	if err := plan.Err(); err != nil {
		suggestion := "Increase the side capacity or the number of sides"
		if errors.Is(err, planner.ErrNoSolutionInTime) {
			suggestion = "Increase deadlineSeconds or try the sequential strategy"
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      "No allocation",
			Details:    err.Error(),
			Suggestion: suggestion,
			PlanID:     plan.ID,
		})
		return
	}
	writeJSON(w, http.StatusOK, allocationResponse{Plan: plan, Cached: cached})
}

func (h *Handler) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	plan, err := h.storage.GetPlan(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			writeError(w, http.StatusNotFound, "Not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, allocationResponse{Plan: plan})
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", plan.ID+".csv"))
		_ = report.CSV(w, plan)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = report.Summary(w, plan)
		_ = report.Text(w, plan, false)
	default:
		writeError(w, http.StatusBadRequest, "Invalid format", "format must be one of: json, csv, text")
	}
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

func isPreconditionError(err error) bool {
	for _, target := range []error{
		allocator.ErrNoItems,
		allocator.ErrInvalidCapacity,
		allocator.ErrInvalidSides,
		allocator.ErrInvalidDuration,
		allocator.ErrInvalidThreshold,
		planner.ErrInvalidStrategy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// durationField accepts whole seconds or a "HH:MM:SS" / "MM:SS" string.
type durationField struct {
	seconds int
	set     bool
}

func (d *durationField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var seconds int
	if err := json.Unmarshal(data, &seconds); err == nil {
		d.seconds, d.set = seconds, true
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("duration must be a number of seconds or a HH:MM:SS string")
	}
	seconds, err := track.ParseTime(raw)
	if err != nil {
		return err
	}
	d.seconds, d.set = seconds, true
	return nil
}

type trackPayload struct {
	Title    string        `json:"title"`
	Duration durationField `json:"duration"`
}

type allocationRequest struct {
	Tracks          []trackPayload `json:"tracks"`
	TrackList       string         `json:"trackList"`
	Capacity        durationField  `json:"capacity"`
	Sides           *int           `json:"sides"`
	Even            *bool          `json:"even"`
	DeadlineSeconds *int           `json:"deadlineSeconds"`
	Threshold       *float64       `json:"threshold"`
	Strategy        string         `json:"strategy"`
}

func (b allocationRequest) toRequest(defaults storage.Defaults, maxDeadline int) (planner.Request, error) {
	tracks := make([]track.Track, 0, len(b.Tracks))
	for i, t := range b.Tracks {
		if !t.Duration.set {
			return planner.Request{}, fmt.Errorf("tracks[%d]: duration is required", i)
		}
		tracks = append(tracks, track.Track{Title: t.Title, Seconds: t.Duration.seconds})
	}
	if strings.TrimSpace(b.TrackList) != "" {
		parsed, err := track.Parse(strings.NewReader(b.TrackList))
		if err != nil {
			return planner.Request{}, fmt.Errorf("trackList: %w", err)
		}
		tracks = append(tracks, parsed...)
	}

	req := planner.Request{
		Tracks:        tracks,
		Capacity:      defaults.Capacity,
		Sides:         defaults.Sides,
		Even:          defaults.Even,
		BudgetSeconds: defaults.DeadlineSeconds,
		Threshold:     defaults.Threshold,
		Strategy:      defaults.Strategy,
	}
	if b.Capacity.set {
		req.Capacity = b.Capacity.seconds
	}
	if b.Sides != nil {
		req.Sides = *b.Sides
	}
	if b.Even != nil {
		req.Even = *b.Even
	}
	if b.DeadlineSeconds != nil {
		req.BudgetSeconds = *b.DeadlineSeconds
	}
	if req.BudgetSeconds < 0 {
		return planner.Request{}, errors.New("deadlineSeconds must be >= 0")
	}
	if maxDeadline > 0 && req.BudgetSeconds > maxDeadline {
		return planner.Request{}, fmt.Errorf("deadlineSeconds must be <= %d", maxDeadline)
	}
	if b.Threshold != nil {
		req.Threshold = *b.Threshold
	}
	if b.Strategy != "" {
		req.Strategy = planner.Strategy(b.Strategy)
	}

	strategy, err := planner.ParseStrategy(string(req.Strategy))
	if err != nil {
		return planner.Request{}, err
	}
	req.Strategy = strategy
	return req, nil
}

type settingsRequest struct {
	Capacity        durationField `json:"capacity"`
	Sides           int           `json:"sides"`
	Even            bool          `json:"even"`
	DeadlineSeconds int           `json:"deadlineSeconds"`
	Threshold       float64       `json:"threshold"`
	Strategy        string        `json:"strategy"`
}

type settingsResponse struct {
	storage.Defaults
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type allocationResponse struct {
	planner.Plan
	Cached bool `json:"cached"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	PlanID     string `json:"planId,omitempty"`
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
