package notification

import (
	"context"

	"endpoint-monitor/pkg/db"
	"endpoint-monitor/pkg/utils"

	"github.com/google/uuid"
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

func (r *Repository) Create(ctx context.Context, cmd CreateNotificationCmd) (Notification, error) {
	const op = "repo.notification.create"

	row, err := r.querier.CreateNotification(ctx, db.CreateNotificationParams{
		UserID:     utils.ToPgUUID(cmd.UserID),
		EndpointID: utils.ToPgUUID(cmd.EndpointID),
		Type:       string(cmd.Type),
		Message:    cmd.Message,
	})
	if err != nil {
		return Notification{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return toNotification(row), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]View, error) {
	const op = "repo.notification.list_by_user"

	rows, err := r.querier.ListNotificationsByUser(ctx, db.ListNotificationsByUserParams{
		UserID: utils.ToPgUUID(userID),
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, View{
			Notification: toNotification(rows[i].Notification),
			EndpointName: rows[i].EndpointName,
			EndpointUrl:  rows[i].EndpointUrl,
		})
	}
	return out, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (Notification, error) {
	const op = "repo.notification.mark_read"

	row, err := r.querier.MarkNotificationRead(ctx, db.MarkNotificationReadParams{
		ID:     utils.ToPgUUID(notificationID),
		UserID: utils.ToPgUUID(userID),
	})
	if err != nil {
		return Notification{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return toNotification(row), nil
}

func (r *Repository) DeleteRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "repo.notification.delete_read"

	n, err := r.querier.DeleteReadNotifications(ctx, utils.ToPgUUID(userID))
	if err != nil {
		return 0, utils.WrapRepoError(op, err, false, r.logger)
	}
	return n, nil
}

func toNotification(row db.Notification) Notification {
	return Notification{
		ID:         utils.FromPgUUID(row.ID),
		UserID:     utils.FromPgUUID(row.UserID),
		EndpointID: utils.FromPgUUID(row.EndpointID),
		Type:       Type(row.Type),
		Message:    row.Message,
		Read:       row.Read,
		Timestamp:  utils.FromPgTimestamptz(row.Timestamp),
	}
}
