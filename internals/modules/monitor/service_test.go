package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	middle "endpoint-monitor/internals/middleware"
	"endpoint-monitor/internals/modules/endpoint"
	"endpoint-monitor/pkg/apperror"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"
)

type ownedLoader struct {
	store *memStore
}

func (l ownedLoader) LoadEndpoint(_ context.Context, userID, id uuid.UUID) (endpoint.Endpoint, error) {
	ep := l.store.get(id)
	if ep.ID == uuid.Nil || ep.UserID != userID {
		return endpoint.Endpoint{}, &apperror.Error{Kind: apperror.NotFound, Message: "resource not found"}
	}
	return ep, nil
}

type statLogs struct {
	stats []endpoint.CheckStats
	since time.Time
}

func (s *statLogs) Recent(context.Context, []uuid.UUID, int) (map[uuid.UUID][]endpoint.MonitorLog, error) {
	return map[uuid.UUID][]endpoint.MonitorLog{}, nil
}

func (s *statLogs) Stats(_ context.Context, _, _ uuid.UUID, since time.Time) ([]endpoint.CheckStats, error) {
	s.since = since
	return s.stats, nil
}

func newTestService(h *harness, logs *statLogs) *Service {
	log := zerolog.Nop()
	svc := NewService(ownedLoader{h.store}, h.coord, logs, h.cache, &log)
	svc.now = func() time.Time { return t0 }
	return svc
}

func TestService_Stats(t *testing.T) {
	h := newHarness(defaultOptions(), newScriptedProber(okOutcome(10)))
	ep := h.store.add(endpoint.Endpoint{})
	logs := &statLogs{stats: []endpoint.CheckStats{
		{Success: true, Count: 9, AvgResponseTimeMs: 120},
		{Success: false, Count: 1, AvgResponseTimeMs: 5000},
	}}
	svc := newTestService(h, logs)

	resp, err := svc.Stats(context.Background(), ep.UserID, ep.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if resp.Total != 10 || resp.Successful != 9 || resp.UptimePercent != 90 {
		t.Errorf("unexpected stats: %+v", resp)
	}
	if !logs.since.Equal(t0.Add(-24 * time.Hour)) {
		t.Errorf("window starts at %v", logs.since)
	}

	if _, err := svc.Stats(context.Background(), uuid.New(), ep.ID); !apperror.IsKind(err, apperror.NotFound) {
		t.Errorf("foreign user should get not_found, got %v", err)
	}
}

func TestService_StatusFallsBackToEndpointRow(t *testing.T) {
	h := newHarness(defaultOptions(), newScriptedProber(okOutcome(10)))
	ep := h.store.add(endpoint.Endpoint{
		Status:         endpoint.StatusDown,
		LastChecked:    null.TimeFrom(t0),
		ResponseTimeMs: null.IntFrom(77),
	})
	svc := newTestService(h, &statLogs{})

	snap, err := svc.Status(context.Background(), ep.UserID, ep.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if snap.Status != endpoint.StatusDown || snap.ResponseTimeMs != 77 || snap.Success {
		t.Errorf("unexpected fallback snapshot: %+v", snap)
	}

	h.cache.StoreStatus(context.Background(), endpoint.StatusSnapshot{EndpointID: ep.ID, Status: endpoint.StatusWarning})
	snap, _ = svc.Status(context.Background(), ep.UserID, ep.ID)
	if snap.Status != endpoint.StatusWarning {
		t.Errorf("cached snapshot should win, got %s", snap.Status)
	}
}

func TestHandler_CheckNow(t *testing.T) {
	h := newHarness(defaultOptions(), newScriptedProber(downOutcome()))
	ep := h.store.add(endpoint.Endpoint{Name: "api"})
	handler := NewHandler(newTestService(h, &statLogs{}))

	passthrough := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	r.Mount("/monitor", Routes(handler, passthrough))

	do := func(userID uuid.UUID, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req = req.WithContext(middle.WithUser(req.Context(), &middle.AuthenticatedUser{UserID: userID, Email: "a@b.c"}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(ep.UserID, "/monitor/check/"+ep.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var body struct {
		Data CheckResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Status != endpoint.StatusDown || body.Data.Observation.EndpointID != ep.ID {
		t.Errorf("unexpected response: %+v", body.Data)
	}

	if rec := do(uuid.New(), "/monitor/check/"+ep.ID.String()); rec.Code != http.StatusNotFound {
		t.Errorf("foreign endpoint: status = %d, want 404", rec.Code)
	}
	if rec := do(ep.UserID, "/monitor/check/not-a-uuid"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}
