package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iotcore/bus"
	"iotcore/scheduler"
	"iotcore/wpool"
)

func TestHandleTopicsListsRegisteredTopics(t *testing.T) {
	b := bus.New(nil, nil, 0, nil)
	b.NewTopic("sensors/temp", nil, false)
	b.NewTopic("sensors/humidity", nil, false)

	srv := New(b, nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/topics", nil)
	w := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp topicsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d (%v)", len(resp.Topics), resp.Topics)
	}
}

func TestHandleTopicsWithNilBusReturnsEmptyList(t *testing.T) {
	srv := New(nil, nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/topics", nil)
	w := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(w, r)

	var resp topicsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Topics) != 0 {
		t.Fatalf("expected no topics, got %v", resp.Topics)
	}
}

func TestHandleSchedulesReportsQueueAndIdleCounts(t *testing.T) {
	pool := wpool.New(1, 1)
	defer pool.Shutdown()
	sch := scheduler.New(pool, nil)
	defer sch.Shutdown()

	sc := sch.Create(func() {}, nil, nil, time.Hour, time.Hour, 0, 0, true)
	sch.Add(sc)

	srv := New(nil, sch, nil)
	r := httptest.NewRequest(http.MethodGet, "/schedules", nil)
	w := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(w, r)

	var resp schedulesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.QueueDepth != 1 {
		t.Fatalf("expected queue depth 1, got %d", resp.QueueDepth)
	}
	if resp.IdleCount != 0 {
		t.Fatalf("expected idle count 0, got %d", resp.IdleCount)
	}
}

func TestHandleMetricsServesPrometheusExposition(t *testing.T) {
	srv := New(nil, nil, nil)
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
