package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/sidesplit/internal/application"
	"github.com/eugenenazirov/sidesplit/internal/config"
	"github.com/eugenenazirov/sidesplit/internal/planner"
	"github.com/eugenenazirov/sidesplit/internal/storage"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		Port:               ":0",
		WriteTimeout:       time.Minute,
		MaxStoredPlans:     8,
		MaxDeadlineSeconds: 30,
		Allocation: storage.Defaults{
			Capacity:        22 * 60,
			DeadlineSeconds: 5,
			Strategy:        planner.StrategySearch,
		},
	}
	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("application.New returned error: %v", err)
	}
	return app.Handler()
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler := newHandler(t)
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	settings, _ := json.Marshal(map[string]any{"capacity": "19:40", "even": true, "deadlineSeconds": 5})
	rec = performRequest(t, handler, http.MethodPut, "/api/settings", settings, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from settings update, got %d", rec.Code)
	}

	trackList := strings.Join([]string{
		"4:12 Lights Out",
		"3:58 Harbour",
		"5:40 Slow Tide",
		"2:47 Static",
		"6:05 Long Way Home",
		"3:33 Paper Moon",
		"4:49 Undertow",
		"3:10 Afterglow",
	}, "\n")
	body, _ := json.Marshal(map[string]any{"trackList": trackList})
	rec = performRequest(t, handler, http.MethodPost, "/api/allocations", body, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from allocation, got %d: %s", rec.Code, rec.Body.String())
	}

	var plan struct {
		ID          string `json:"id"`
		Capacity    int    `json:"capacity"`
		Total       int    `json:"total"`
		HasSnapshot bool   `json:"hasSnapshot"`
		Sides       []struct {
			Seconds int `json:"seconds"`
			Items   []struct {
				Title string `json:"title"`
			} `json:"items"`
		} `json:"sides"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if plan.Capacity != 1180 || !plan.HasSnapshot {
		t.Fatalf("unexpected plan header: %+v", plan)
	}
	// 34:14 total over 19:40 sides needs 2 sides; even keeps it at 2.
	if len(plan.Sides) != 2 {
		t.Fatalf("expected 2 sides, got %d", len(plan.Sides))
	}
	placed, total := 0, 0
	for _, side := range plan.Sides {
		if side.Seconds > plan.Capacity {
			t.Fatalf("side over capacity: %d", side.Seconds)
		}
		placed += len(side.Items)
		total += side.Seconds
	}
	if placed != 8 || total != plan.Total {
		t.Fatalf("expected all 8 tracks placed once, got %d tracks totalling %d", placed, total)
	}

	rec = performRequest(t, handler, http.MethodGet, "/api/allocations/"+plan.ID+"?format=csv", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from csv export, got %d", rec.Code)
	}
	if rows := strings.Count(rec.Body.String(), "\n"); rows != 9 {
		t.Fatalf("expected header plus 8 csv rows, got %d", rows)
	}

	rec = performRequest(t, handler, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sidesplit_allocator_searches_total") {
		t.Fatalf("expected allocator metrics to be exported")
	}
}
