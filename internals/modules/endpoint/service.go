package endpoint

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"endpoint-monitor/config"
	"endpoint-monitor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	listLogLimit   = 10
	detailLogLimit = 100
	maxNameLength  = 100
)

type Store interface {
	Create(ctx context.Context, cmd CreateEndpointCmd) (Endpoint, error)
	Get(ctx context.Context, userID, endpointID uuid.UUID) (Endpoint, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Endpoint, error)
	URLTaken(ctx context.Context, userID uuid.UUID, url string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, cmd UpdateEndpointCmd) (Endpoint, error)
	Delete(ctx context.Context, userID, endpointID uuid.UUID) (Endpoint, error)
}

type LogReader interface {
	Recent(ctx context.Context, endpointIDs []uuid.UUID, perEndpoint int) (map[uuid.UUID][]MonitorLog, error)
}

type Service struct {
	repo   Store
	logs   LogReader
	cache  StatusCache
	bounds config.EndpointConfig
	logger *zerolog.Logger
}

// NewService wires the CRUD service. cache may be nil.
func NewService(repo Store, logs LogReader, cache StatusCache, bounds config.EndpointConfig, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logs:   logs,
		cache:  cache,
		bounds: bounds,
		logger: logger,
	}
}

func (s *Service) CreateEndpoint(ctx context.Context, cmd CreateEndpointCmd) (Endpoint, error) {
	const op = "service.endpoint.create"

	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Url = strings.TrimSpace(cmd.Url)
	if cmd.CheckIntervalMs == 0 {
		cmd.CheckIntervalMs = s.bounds.DefaultCheckIntervalMs
	}
	if cmd.TimeoutMs == 0 {
		cmd.TimeoutMs = s.bounds.DefaultTimeoutMs
	}
	if cmd.Headers == nil {
		cmd.Headers = map[string]string{}
	}
	if err := checkName(op, cmd.Name); err != nil {
		return Endpoint{}, err
	}
	if err := s.checkBounds(op, cmd.CheckIntervalMs, cmd.TimeoutMs); err != nil {
		return Endpoint{}, err
	}

	taken, err := s.repo.URLTaken(ctx, cmd.UserID, cmd.Url, uuid.Nil)
	if err != nil {
		return Endpoint{}, err
	}
	if taken {
		return Endpoint{}, &apperror.Error{
			Kind:    apperror.AlreadyExists,
			Op:      op,
			Message: "endpoint with this url already exists",
		}
	}

	ep, err := s.repo.Create(ctx, cmd)
	if err != nil {
		return Endpoint{}, err
	}

	s.logger.Info().
		Str("endpoint_id", ep.ID.String()).
		Str("user_id", ep.UserID.String()).
		Msg("endpoint created")
	return ep, nil
}

// ListEndpoints returns the user's endpoints newest first with their latest observations.
func (s *Service) ListEndpoints(ctx context.Context, userID uuid.UUID) ([]EndpointDetail, error) {
	eps, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(eps))
	for _, ep := range eps {
		ids = append(ids, ep.ID)
	}
	logs, err := s.logs.Recent(ctx, ids, listLogLimit)
	if err != nil {
		return nil, err
	}

	out := make([]EndpointDetail, 0, len(eps))
	for _, ep := range eps {
		out = append(out, EndpointDetail{Endpoint: ep, Logs: nonNilLogs(logs[ep.ID])})
	}
	return out, nil
}

func (s *Service) GetEndpoint(ctx context.Context, userID, endpointID uuid.UUID) (EndpointDetail, error) {
	ep, err := s.repo.Get(ctx, userID, endpointID)
	if err != nil {
		return EndpointDetail{}, err
	}

	logs, err := s.logs.Recent(ctx, []uuid.UUID{ep.ID}, detailLogLimit)
	if err != nil {
		return EndpointDetail{}, err
	}
	return EndpointDetail{Endpoint: ep, Logs: nonNilLogs(logs[ep.ID])}, nil
}

// LoadEndpoint returns the endpoint only if userID owns it.
func (s *Service) LoadEndpoint(ctx context.Context, userID, endpointID uuid.UUID) (Endpoint, error) {
	return s.repo.Get(ctx, userID, endpointID)
}

func (s *Service) UpdateEndpoint(ctx context.Context, userID, endpointID uuid.UUID, patch EndpointPatch) (Endpoint, error) {
	const op = "service.endpoint.update"

	current, err := s.repo.Get(ctx, userID, endpointID)
	if err != nil {
		return Endpoint{}, err
	}

	cmd := UpdateEndpointCmd{
		ID:              current.ID,
		UserID:          current.UserID,
		Name:            current.Name,
		Url:             current.Url,
		CheckIntervalMs: current.CheckIntervalMs,
		TimeoutMs:       current.TimeoutMs,
		Headers:         current.Headers,
	}
	if patch.Name != nil {
		cmd.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Url != nil {
		cmd.Url = strings.TrimSpace(*patch.Url)
	}
	if patch.CheckIntervalMs != nil {
		cmd.CheckIntervalMs = *patch.CheckIntervalMs
	}
	if patch.TimeoutMs != nil {
		cmd.TimeoutMs = *patch.TimeoutMs
	}
	if patch.Headers != nil {
		cmd.Headers = patch.Headers
	}
	if err := checkName(op, cmd.Name); err != nil {
		return Endpoint{}, err
	}
	if err := s.checkBounds(op, cmd.CheckIntervalMs, cmd.TimeoutMs); err != nil {
		return Endpoint{}, err
	}

	if cmd.Url != current.Url {
		taken, err := s.repo.URLTaken(ctx, userID, cmd.Url, current.ID)
		if err != nil {
			return Endpoint{}, err
		}
		if taken {
			return Endpoint{}, &apperror.Error{
				Kind:    apperror.AlreadyExists,
				Op:      op,
				Message: "endpoint with this url already exists",
			}
		}
	}

	return s.repo.Update(ctx, cmd)
}

// DeleteEndpoint removes the endpoint; observations and notifications go with it.
func (s *Service) DeleteEndpoint(ctx context.Context, userID, endpointID uuid.UUID) (Endpoint, error) {
	ep, err := s.repo.Delete(ctx, userID, endpointID)
	if err != nil {
		return Endpoint{}, err
	}

	if s.cache != nil {
		if err := s.cache.DelStatus(ctx, ep.ID); err != nil {
			s.logger.Warn().Err(err).Str("endpoint_id", ep.ID.String()).Msg("failed to clear status snapshot")
		}
	}
	return ep, nil
}

// checkName runs after trimming, so whitespace-only names are rejected.
func checkName(op, name string) error {
	if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLength {
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: fmt.Sprintf("name must be between 1 and %d characters", maxNameLength),
		}
	}
	return nil
}

func (s *Service) checkBounds(op string, intervalMs, timeoutMs int32) error {
	b := s.bounds
	if intervalMs < b.MinCheckIntervalMs || intervalMs > b.MaxCheckIntervalMs {
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: fmt.Sprintf("check_interval_ms must be between %d and %d", b.MinCheckIntervalMs, b.MaxCheckIntervalMs),
		}
	}
	if timeoutMs < b.MinTimeoutMs || timeoutMs > b.MaxTimeoutMs {
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: fmt.Sprintf("timeout_ms must be between %d and %d", b.MinTimeoutMs, b.MaxTimeoutMs),
		}
	}
	return nil
}

func nonNilLogs(l []MonitorLog) []MonitorLog {
	if l == nil {
		return []MonitorLog{}
	}
	return l
}
