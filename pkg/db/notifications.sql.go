package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const notificationColumns = `id, user_id, endpoint_id, type, message, read, timestamp`

func scanNotification(row pgx.Row) (Notification, error) {
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.EndpointID,
		&i.Type,
		&i.Message,
		&i.Read,
		&i.Timestamp,
	)
	return i, err
}

const createNotification = `-- name: CreateNotification :one
INSERT INTO notifications (user_id, endpoint_id, type, message)
VALUES ($1, $2, $3, $4)
RETURNING ` + notificationColumns

type CreateNotificationParams struct {
	UserID     pgtype.UUID
	EndpointID pgtype.UUID
	Type       string
	Message    string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, createNotification, arg.UserID, arg.EndpointID, arg.Type, arg.Message)
	return scanNotification(row)
}

const listNotificationsByUser = `-- name: ListNotificationsByUser :many
SELECT n.id, n.user_id, n.endpoint_id, n.type, n.message, n.read, n.timestamp,
       e.name AS endpoint_name, e.url AS endpoint_url
FROM notifications n
JOIN endpoints e ON e.id = n.endpoint_id
WHERE n.user_id = $1
ORDER BY n.timestamp DESC
LIMIT $2
`

type ListNotificationsByUserParams struct {
	UserID pgtype.UUID
	Limit  int32
}

type ListNotificationsByUserRow struct {
	Notification
	EndpointName string
	EndpointUrl  string
}

func (q *Queries) ListNotificationsByUser(ctx context.Context, arg ListNotificationsByUserParams) ([]ListNotificationsByUserRow, error) {
	rows, err := q.db.Query(ctx, listNotificationsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListNotificationsByUserRow
	for rows.Next() {
		var i ListNotificationsByUserRow
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.EndpointID,
			&i.Type,
			&i.Message,
			&i.Read,
			&i.Timestamp,
			&i.EndpointName,
			&i.EndpointUrl,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markNotificationRead = `-- name: MarkNotificationRead :one
UPDATE notifications
SET read = true
WHERE id = $1 AND user_id = $2
RETURNING ` + notificationColumns

type MarkNotificationReadParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) MarkNotificationRead(ctx context.Context, arg MarkNotificationReadParams) (Notification, error) {
	return scanNotification(q.db.QueryRow(ctx, markNotificationRead, arg.ID, arg.UserID))
}

const deleteReadNotifications = `-- name: DeleteReadNotifications :execrows
DELETE FROM notifications
WHERE user_id = $1 AND read = true
`

func (q *Queries) DeleteReadNotifications(ctx context.Context, userID pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteReadNotifications, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
