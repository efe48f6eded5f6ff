package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const monitorLogColumns = `id, endpoint_id, timestamp, success, status_code, response_time_ms, error_message, error_type`

func scanMonitorLog(row pgx.Row) (MonitorLog, error) {
	var i MonitorLog
	err := row.Scan(
		&i.ID,
		&i.EndpointID,
		&i.Timestamp,
		&i.Success,
		&i.StatusCode,
		&i.ResponseTimeMs,
		&i.ErrorMessage,
		&i.ErrorType,
	)
	return i, err
}

const createMonitorLog = `-- name: CreateMonitorLog :one
INSERT INTO monitor_logs (endpoint_id, timestamp, success, status_code, response_time_ms, error_message, error_type)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + monitorLogColumns

type CreateMonitorLogParams struct {
	EndpointID     pgtype.UUID
	Timestamp      pgtype.Timestamptz
	Success        bool
	StatusCode     pgtype.Int4
	ResponseTimeMs int32
	ErrorMessage   pgtype.Text
	ErrorType      pgtype.Text
}

func (q *Queries) CreateMonitorLog(ctx context.Context, arg CreateMonitorLogParams) (MonitorLog, error) {
	row := q.db.QueryRow(ctx, createMonitorLog,
		arg.EndpointID,
		arg.Timestamp,
		arg.Success,
		arg.StatusCode,
		arg.ResponseTimeMs,
		arg.ErrorMessage,
		arg.ErrorType,
	)
	return scanMonitorLog(row)
}

const listRecentMonitorLogs = `-- name: ListRecentMonitorLogs :many
SELECT ` + monitorLogColumns + `
FROM (
    SELECT ` + monitorLogColumns + `,
           ROW_NUMBER() OVER (PARTITION BY endpoint_id ORDER BY timestamp DESC) AS rn
    FROM monitor_logs
    WHERE endpoint_id = ANY($1::uuid[])
) ranked
WHERE rn <= $2
ORDER BY endpoint_id, timestamp DESC
`

type ListRecentMonitorLogsParams struct {
	EndpointIDs []pgtype.UUID
	PerEndpoint int32
}

// ListRecentMonitorLogs returns at most PerEndpoint logs for each endpoint, newest first.
func (q *Queries) ListRecentMonitorLogs(ctx context.Context, arg ListRecentMonitorLogsParams) ([]MonitorLog, error) {
	rows, err := q.db.Query(ctx, listRecentMonitorLogs, arg.EndpointIDs, arg.PerEndpoint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MonitorLog
	for rows.Next() {
		i, err := scanMonitorLog(rows)
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

const getMonitorStats = `-- name: GetMonitorStats :many
SELECT l.success,
       COUNT(*)::bigint                              AS checks,
       COALESCE(AVG(l.response_time_ms), 0)::float8 AS avg_response_time_ms
FROM monitor_logs l
JOIN endpoints e ON e.id = l.endpoint_id
WHERE l.endpoint_id = $1
  AND e.user_id = $2
  AND l.timestamp >= $3
GROUP BY l.success
ORDER BY l.success DESC
`

type GetMonitorStatsParams struct {
	EndpointID pgtype.UUID
	UserID     pgtype.UUID
	Since      pgtype.Timestamptz
}

type GetMonitorStatsRow struct {
	Success           bool
	Checks            int64
	AvgResponseTimeMs float64
}

func (q *Queries) GetMonitorStats(ctx context.Context, arg GetMonitorStatsParams) ([]GetMonitorStatsRow, error) {
	rows, err := q.db.Query(ctx, getMonitorStats, arg.EndpointID, arg.UserID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetMonitorStatsRow
	for rows.Next() {
		var i GetMonitorStatsRow
		if err := rows.Scan(&i.Success, &i.Checks, &i.AvgResponseTimeMs); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
