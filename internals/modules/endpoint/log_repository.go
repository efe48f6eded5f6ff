package endpoint

import (
	"context"
	"time"

	"endpoint-monitor/pkg/db"
	"endpoint-monitor/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogRepository is the append-only observation log.
type LogRepository struct {
	querier *db.Queries
	logger  *zerolog.Logger
}

func NewLogRepository(dbExecutor db.DBTX, logger *zerolog.Logger) *LogRepository {
	return &LogRepository{
		querier: db.New(dbExecutor),
		logger:  logger,
	}
}

func (r *LogRepository) Append(ctx context.Context, cmd AppendLogCmd) (MonitorLog, error) {
	const op = "repo.monitor_log.append"

	row, err := r.querier.CreateMonitorLog(ctx, db.CreateMonitorLogParams{
		EndpointID:     utils.ToPgUUID(cmd.EndpointID),
		Timestamp:      utils.ToPgTimestamptz(cmd.Timestamp),
		Success:        cmd.Success,
		StatusCode:     utils.NullIntToPg(cmd.StatusCode),
		ResponseTimeMs: int32(cmd.ResponseTimeMs),
		ErrorMessage:   utils.NullStringToPg(cmd.ErrorMessage),
		ErrorType:      utils.NullStringToPg(cmd.ErrorType),
	})
	if err != nil {
		// 23503 here means the endpoint was deleted mid-check
		return MonitorLog{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return toMonitorLog(row), nil
}

// Recent returns up to perEndpoint newest observations for each id.
func (r *LogRepository) Recent(ctx context.Context, endpointIDs []uuid.UUID, perEndpoint int) (map[uuid.UUID][]MonitorLog, error) {
	const op = "repo.monitor_log.recent"

	out := make(map[uuid.UUID][]MonitorLog, len(endpointIDs))
	if len(endpointIDs) == 0 {
		return out, nil
	}

	rows, err := r.querier.ListRecentMonitorLogs(ctx, db.ListRecentMonitorLogsParams{
		EndpointIDs: utils.ToPgUUIDs(endpointIDs),
		PerEndpoint: int32(perEndpoint),
	})
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	for i := range rows {
		l := toMonitorLog(rows[i])
		out[l.EndpointID] = append(out[l.EndpointID], l)
	}
	return out, nil
}

// Stats groups the user's observations for an endpoint since the given time by success.
func (r *LogRepository) Stats(ctx context.Context, userID, endpointID uuid.UUID, since time.Time) ([]CheckStats, error) {
	const op = "repo.monitor_log.stats"

	rows, err := r.querier.GetMonitorStats(ctx, db.GetMonitorStatsParams{
		EndpointID: utils.ToPgUUID(endpointID),
		UserID:     utils.ToPgUUID(userID),
		Since:      utils.ToPgTimestamptz(since),
	})
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	stats := make([]CheckStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, CheckStats{
			Success:           row.Success,
			Count:             row.Checks,
			AvgResponseTimeMs: row.AvgResponseTimeMs,
		})
	}
	return stats, nil
}

func toMonitorLog(row db.MonitorLog) MonitorLog {
	return MonitorLog{
		ID:             utils.FromPgUUID(row.ID),
		EndpointID:     utils.FromPgUUID(row.EndpointID),
		Timestamp:      utils.FromPgTimestamptz(row.Timestamp),
		Success:        row.Success,
		StatusCode:     utils.NullIntFromPg(row.StatusCode),
		ResponseTimeMs: int64(row.ResponseTimeMs),
		ErrorMessage:   utils.NullStringFromPg(row.ErrorMessage),
		ErrorType:      utils.NullStringFromPg(row.ErrorType),
	}
}
