package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const endpointColumns = `id, user_id, name, url, check_interval_ms, timeout_ms, headers, status,
       last_checked, response_time_ms, created_at, updated_at`

func scanEndpoint(row pgx.Row) (Endpoint, error) {
	var i Endpoint
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Url,
		&i.CheckIntervalMs,
		&i.TimeoutMs,
		&i.Headers,
		&i.Status,
		&i.LastChecked,
		&i.ResponseTimeMs,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectEndpoints(rows pgx.Rows) ([]Endpoint, error) {
	defer rows.Close()
	var items []Endpoint
	for rows.Next() {
		i, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createEndpoint = `-- name: CreateEndpoint :one
INSERT INTO endpoints (user_id, name, url, check_interval_ms, timeout_ms, headers)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + endpointColumns

type CreateEndpointParams struct {
	UserID          pgtype.UUID
	Name            string
	Url             string
	CheckIntervalMs int32
	TimeoutMs       int32
	Headers         map[string]string
}

func (q *Queries) CreateEndpoint(ctx context.Context, arg CreateEndpointParams) (Endpoint, error) {
	row := q.db.QueryRow(ctx, createEndpoint,
		arg.UserID,
		arg.Name,
		arg.Url,
		arg.CheckIntervalMs,
		arg.TimeoutMs,
		arg.Headers,
	)
	return scanEndpoint(row)
}

const getEndpoint = `-- name: GetEndpoint :one
SELECT ` + endpointColumns + `
FROM endpoints
WHERE id = $1 AND user_id = $2
`

type GetEndpointParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) GetEndpoint(ctx context.Context, arg GetEndpointParams) (Endpoint, error) {
	return scanEndpoint(q.db.QueryRow(ctx, getEndpoint, arg.ID, arg.UserID))
}

const listEndpointsByUser = `-- name: ListEndpointsByUser :many
SELECT ` + endpointColumns + `
FROM endpoints
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListEndpointsByUser(ctx context.Context, userID pgtype.UUID) ([]Endpoint, error) {
	rows, err := q.db.Query(ctx, listEndpointsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collectEndpoints(rows)
}

const endpointURLTaken = `-- name: EndpointURLTaken :one
SELECT EXISTS (
    SELECT 1 FROM endpoints
    WHERE user_id = $1 AND url = $2 AND ($3::uuid IS NULL OR id <> $3)
)
`

type EndpointURLTakenParams struct {
	UserID    pgtype.UUID
	Url       string
	ExcludeID pgtype.UUID
}

func (q *Queries) EndpointURLTaken(ctx context.Context, arg EndpointURLTakenParams) (bool, error) {
	var taken bool
	err := q.db.QueryRow(ctx, endpointURLTaken, arg.UserID, arg.Url, arg.ExcludeID).Scan(&taken)
	return taken, err
}

const updateEndpoint = `-- name: UpdateEndpoint :one
UPDATE endpoints
SET name = $3,
    url = $4,
    check_interval_ms = $5,
    timeout_ms = $6,
    headers = $7,
    updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + endpointColumns

type UpdateEndpointParams struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	Name            string
	Url             string
	CheckIntervalMs int32
	TimeoutMs       int32
	Headers         map[string]string
}

func (q *Queries) UpdateEndpoint(ctx context.Context, arg UpdateEndpointParams) (Endpoint, error) {
	row := q.db.QueryRow(ctx, updateEndpoint,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Url,
		arg.CheckIntervalMs,
		arg.TimeoutMs,
		arg.Headers,
	)
	return scanEndpoint(row)
}

const deleteEndpoint = `-- name: DeleteEndpoint :one
DELETE FROM endpoints
WHERE id = $1 AND user_id = $2
RETURNING ` + endpointColumns

type DeleteEndpointParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) DeleteEndpoint(ctx context.Context, arg DeleteEndpointParams) (Endpoint, error) {
	return scanEndpoint(q.db.QueryRow(ctx, deleteEndpoint, arg.ID, arg.UserID))
}

// Never-checked endpoints sort first; the cutoff is computed by the caller so
// the query itself stays independent of the database clock.
const listDueEndpoints = `-- name: ListDueEndpoints :many
SELECT ` + endpointColumns + `
FROM endpoints
WHERE (last_checked IS NULL OR last_checked <= $1)
  AND (NOT $3::boolean
       OR last_checked IS NULL
       OR last_checked <= $4::timestamptz - make_interval(secs => check_interval_ms / 1000.0))
ORDER BY last_checked ASC NULLS FIRST, id ASC
LIMIT $2
`

type ListDueEndpointsParams struct {
	Cutoff             pgtype.Timestamptz
	Limit              int32
	HonorCheckInterval bool
	Now                pgtype.Timestamptz
}

func (q *Queries) ListDueEndpoints(ctx context.Context, arg ListDueEndpointsParams) ([]Endpoint, error) {
	rows, err := q.db.Query(ctx, listDueEndpoints, arg.Cutoff, arg.Limit, arg.HonorCheckInterval, arg.Now)
	if err != nil {
		return nil, err
	}
	return collectEndpoints(rows)
}

const updateEndpointStatus = `-- name: UpdateEndpointStatus :one
UPDATE endpoints
SET status = $2,
    last_checked = $3,
    response_time_ms = $4
WHERE id = $1
RETURNING ` + endpointColumns

type UpdateEndpointStatusParams struct {
	ID             pgtype.UUID
	Status         string
	LastChecked    pgtype.Timestamptz
	ResponseTimeMs pgtype.Int4
}

func (q *Queries) UpdateEndpointStatus(ctx context.Context, arg UpdateEndpointStatusParams) (Endpoint, error) {
	row := q.db.QueryRow(ctx, updateEndpointStatus, arg.ID, arg.Status, arg.LastChecked, arg.ResponseTimeMs)
	return scanEndpoint(row)
}
