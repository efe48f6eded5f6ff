package endpoint

import (
	"context"
	"time"

	"endpoint-monitor/pkg/db"
	"endpoint-monitor/pkg/utils"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"
)

type Repository struct {
	querier *db.Queries
	logger  *zerolog.Logger
}

func NewRepository(dbExecutor db.DBTX, logger *zerolog.Logger) *Repository {
	return &Repository{
		querier: db.New(dbExecutor),
		logger:  logger,
	}
}

func (r *Repository) Create(ctx context.Context, cmd CreateEndpointCmd) (Endpoint, error) {
	const op = "repo.endpoint.create"

	row, err := r.querier.CreateEndpoint(ctx, db.CreateEndpointParams{
		UserID:          utils.ToPgUUID(cmd.UserID),
		Name:            cmd.Name,
		Url:             cmd.Url,
		CheckIntervalMs: cmd.CheckIntervalMs,
		TimeoutMs:       cmd.TimeoutMs,
		Headers:         cmd.Headers,
	})
	if err != nil {
		return Endpoint{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return toEndpoint(row), nil
}

func (r *Repository) Get(ctx context.Context, userID, endpointID uuid.UUID) (Endpoint, error) {
	const op = "repo.endpoint.get"

	row, err := r.querier.GetEndpoint(ctx, db.GetEndpointParams{
		ID:     utils.ToPgUUID(endpointID),
		UserID: utils.ToPgUUID(userID),
	})
	if err != nil {
		return Endpoint{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toEndpoint(row), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Endpoint, error) {
	const op = "repo.endpoint.list_by_user"

	rows, err := r.querier.ListEndpointsByUser(ctx, utils.ToPgUUID(userID))
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return toEndpoints(rows), nil
}

// URLTaken reports whether the user already monitors url. excludeID may be
// uuid.Nil when creating.
func (r *Repository) URLTaken(ctx context.Context, userID uuid.UUID, url string, excludeID uuid.UUID) (bool, error) {
	const op = "repo.endpoint.url_taken"

	exclude := utils.ToPgUUID(excludeID)
	if excludeID == uuid.Nil {
		exclude.Valid = false
	}

	taken, err := r.querier.EndpointURLTaken(ctx, db.EndpointURLTakenParams{
		UserID:    utils.ToPgUUID(userID),
		Url:       url,
		ExcludeID: exclude,
	})
	if err != nil {
		return false, utils.WrapRepoError(op, err, false, r.logger)
	}
	return taken, nil
}

func (r *Repository) Update(ctx context.Context, cmd UpdateEndpointCmd) (Endpoint, error) {
	const op = "repo.endpoint.update"

	row, err := r.querier.UpdateEndpoint(ctx, db.UpdateEndpointParams{
		ID:              utils.ToPgUUID(cmd.ID),
		UserID:          utils.ToPgUUID(cmd.UserID),
		Name:            cmd.Name,
		Url:             cmd.Url,
		CheckIntervalMs: cmd.CheckIntervalMs,
		TimeoutMs:       cmd.TimeoutMs,
		Headers:         cmd.Headers,
	})
	if err != nil {
		return Endpoint{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toEndpoint(row), nil
}

func (r *Repository) Delete(ctx context.Context, userID, endpointID uuid.UUID) (Endpoint, error) {
	const op = "repo.endpoint.delete"

	row, err := r.querier.DeleteEndpoint(ctx, db.DeleteEndpointParams{
		ID:     utils.ToPgUUID(endpointID),
		UserID: utils.ToPgUUID(userID),
	})
	if err != nil {
		return Endpoint{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toEndpoint(row), nil
}

// ListDue returns endpoints whose last check is at or before now-staleness,
// never-checked endpoints first and then oldest first, capped at limit.
func (r *Repository) ListDue(ctx context.Context, q DueQuery) ([]Endpoint, error) {
	const op = "repo.endpoint.list_due"

	rows, err := r.querier.ListDueEndpoints(ctx, db.ListDueEndpointsParams{
		Cutoff:             utils.ToPgTimestamptz(q.Now.Add(-q.Staleness)),
		Limit:              int32(q.Limit),
		HonorCheckInterval: q.HonorCheckInterval,
		Now:                utils.ToPgTimestamptz(q.Now),
	})
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return toEndpoints(rows), nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, checkedAt time.Time, responseTimeMs int64) (Endpoint, error) {
	const op = "repo.endpoint.update_status"

	row, err := r.querier.UpdateEndpointStatus(ctx, db.UpdateEndpointStatusParams{
		ID:             utils.ToPgUUID(id),
		Status:         string(status),
		LastChecked:    utils.ToPgTimestamptz(checkedAt),
		ResponseTimeMs: utils.NullIntToPg(null.IntFrom(responseTimeMs)),
	})
	if err != nil {
		return Endpoint{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toEndpoint(row), nil
}

func toEndpoint(row db.Endpoint) Endpoint {
	headers := row.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return Endpoint{
		ID:              utils.FromPgUUID(row.ID),
		UserID:          utils.FromPgUUID(row.UserID),
		Name:            row.Name,
		Url:             row.Url,
		CheckIntervalMs: row.CheckIntervalMs,
		TimeoutMs:       row.TimeoutMs,
		Headers:         headers,
		Status:          Status(row.Status),
		LastChecked:     utils.NullTimeFromPg(row.LastChecked),
		ResponseTimeMs:  utils.NullIntFromPg(row.ResponseTimeMs),
		CreatedAt:       utils.FromPgTimestamptz(row.CreatedAt),
		UpdatedAt:       utils.FromPgTimestamptz(row.UpdatedAt),
	}
}

func toEndpoints(rows []db.Endpoint) []Endpoint {
	out := make([]Endpoint, 0, len(rows))
	for i := range rows {
		out = append(out, toEndpoint(rows[i]))
	}
	return out
}
