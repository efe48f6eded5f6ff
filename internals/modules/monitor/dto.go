package monitor

import (
	"time"

	"endpoint-monitor/internals/modules/endpoint"

	"github.com/google/uuid"
)

type StatsResponse struct {
	EndpointID    uuid.UUID             `json:"endpoint_id"`
	Since         time.Time             `json:"since"`
	Total         int64                 `json:"total"`
	Successful    int64                 `json:"successful"`
	UptimePercent float64               `json:"uptime_percent"`
	Stats         []endpoint.CheckStats `json:"stats"`
}
