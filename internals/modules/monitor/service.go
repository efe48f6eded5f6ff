package monitor

import (
	"context"
	"time"

	"endpoint-monitor/internals/modules/endpoint"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	statsWindow     = 24 * time.Hour
	defaultLogLimit = 20
	maxLogLimit     = 100
)

type EndpointLoader interface {
	LoadEndpoint(ctx context.Context, userID, endpointID uuid.UUID) (endpoint.Endpoint, error)
}

type LogQuery interface {
	Recent(ctx context.Context, endpointIDs []uuid.UUID, perEndpoint int) (map[uuid.UUID][]endpoint.MonitorLog, error)
	Stats(ctx context.Context, userID, endpointID uuid.UUID, since time.Time) ([]endpoint.CheckStats, error)
}

// Service backs the user-facing monitor routes. Every call is scoped to
// endpoints the caller owns.
type Service struct {
	endpoints   EndpointLoader
	coordinator *Coordinator
	logs        LogQuery
	cache       endpoint.StatusCache
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewService(endpoints EndpointLoader, coordinator *Coordinator, logs LogQuery, cache endpoint.StatusCache, logger *zerolog.Logger) *Service {
	return &Service{
		endpoints:   endpoints,
		coordinator: coordinator,
		logs:        logs,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) CheckNow(ctx context.Context, userID, endpointID uuid.UUID) (CheckResult, error) {
	ep, err := s.endpoints.LoadEndpoint(ctx, userID, endpointID)
	if err != nil {
		return CheckResult{}, err
	}
	return s.coordinator.CheckEndpointNow(ctx, ep)
}

func (s *Service) Stats(ctx context.Context, userID, endpointID uuid.UUID) (StatsResponse, error) {
	if _, err := s.endpoints.LoadEndpoint(ctx, userID, endpointID); err != nil {
		return StatsResponse{}, err
	}

	since := s.now().Add(-statsWindow)
	rows, err := s.logs.Stats(ctx, userID, endpointID, since)
	if err != nil {
		return StatsResponse{}, err
	}

	resp := StatsResponse{EndpointID: endpointID, Since: since, Stats: rows}
	for _, r := range rows {
		resp.Total += r.Count
		if r.Success {
			resp.Successful += r.Count
		}
	}
	if resp.Total > 0 {
		resp.UptimePercent = float64(resp.Successful) * 100 / float64(resp.Total)
	}
	return resp, nil
}

// Status prefers the cached snapshot and falls back to the endpoint row.
func (s *Service) Status(ctx context.Context, userID, endpointID uuid.UUID) (endpoint.StatusSnapshot, error) {
	ep, err := s.endpoints.LoadEndpoint(ctx, userID, endpointID)
	if err != nil {
		return endpoint.StatusSnapshot{}, err
	}

	if s.cache != nil {
		snap, ok, err := s.cache.GetStatus(ctx, endpointID)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("endpoint_id", endpointID.String()).Msg("status cache read failed")
		case ok:
			return snap, nil
		}
	}

	return endpoint.StatusSnapshot{
		EndpointID:     ep.ID,
		Status:         ep.Status,
		Success:        ep.Status != endpoint.StatusDown,
		ResponseTimeMs: ep.ResponseTimeMs.Int64,
		CheckedAt:      ep.LastChecked.Time,
	}, nil
}

func (s *Service) Logs(ctx context.Context, userID, endpointID uuid.UUID, limit int) ([]endpoint.MonitorLog, error) {
	if _, err := s.endpoints.LoadEndpoint(ctx, userID, endpointID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	logs, err := s.logs.Recent(ctx, []uuid.UUID{endpointID}, limit)
	if err != nil {
		return nil, err
	}
	if l := logs[endpointID]; l != nil {
		return l, nil
	}
	return []endpoint.MonitorLog{}, nil
}
