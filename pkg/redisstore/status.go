package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"endpoint-monitor/internals/modules/endpoint"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

func statusKey(endpointID uuid.UUID) string {
	return fmt.Sprintf("endpoint:status:%v", endpointID)
}

// StoreStatus writes the latest check snapshot for an endpoint. It is a read
// model for the API only; status transitions are always decided from the database.
func (c *Client) StoreStatus(ctx context.Context, s endpoint.StatusSnapshot) error {
	key := statusKey(s.EndpointID)

	fields := map[string]any{
		"status":           string(s.Status),
		"success":          s.Success,
		"response_time_ms": s.ResponseTimeMs,
		"checked_at":       s.CheckedAt.UnixMilli(),
		"status_code":      "",
		"error_type":       "",
	}
	if s.StatusCode.Valid {
		fields["status_code"] = s.StatusCode.Int64
	}
	if s.ErrorType.Valid {
		fields["error_type"] = s.ErrorType.String
	}

	return retry(ctx, 2, func() error {
		pipe := c.rdb.TxPipeline()
		pipe.HSet(ctx, key, fields)
		if c.statusTTL > 0 {
			pipe.Expire(ctx, key, c.statusTTL)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
}

// GetStatus returns the stored snapshot; ok is false when nothing is cached.
func (c *Client) GetStatus(ctx context.Context, endpointID uuid.UUID) (endpoint.StatusSnapshot, bool, error) {
	res, err := c.rdb.HGetAll(ctx, statusKey(endpointID)).Result()
	if err != nil {
		return endpoint.StatusSnapshot{}, false, err
	}
	if len(res) == 0 {
		return endpoint.StatusSnapshot{}, false, nil
	}

	snap := endpoint.StatusSnapshot{
		EndpointID: endpointID,
		Status:     endpoint.Status(res["status"]),
		Success:    res["success"] == "1" || res["success"] == "true",
	}
	if v, err := strconv.ParseInt(res["response_time_ms"], 10, 64); err == nil {
		snap.ResponseTimeMs = v
	}
	if v, err := strconv.ParseInt(res["checked_at"], 10, 64); err == nil {
		snap.CheckedAt = time.UnixMilli(v).UTC()
	}
	if v, err := strconv.ParseInt(res["status_code"], 10, 64); err == nil {
		snap.StatusCode = null.IntFrom(v)
	}
	if v := res["error_type"]; v != "" {
		snap.ErrorType = null.StringFrom(v)
	}

	return snap, true, nil
}

func (c *Client) DelStatus(ctx context.Context, endpointID uuid.UUID) error {
	return c.rdb.Del(ctx, statusKey(endpointID)).Err()
}
