package endpoint

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

// Status is the classified health of an endpoint.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusWarning Status = "WARNING"
	StatusDown    Status = "DOWN"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusWarning, StatusDown:
		return true
	}
	return false
}

type Endpoint struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	Name            string            `json:"name"`
	Url             string            `json:"url"`
	CheckIntervalMs int32             `json:"check_interval_ms"`
	TimeoutMs       int32             `json:"timeout_ms"`
	Headers         map[string]string `json:"headers,omitempty"`
	Status          Status            `json:"status"`
	LastChecked     null.Time         `json:"last_checked"`
	ResponseTimeMs  null.Int          `json:"response_time_ms"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (e Endpoint) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// MonitorLog is one immutable observation of a check attempt.
type MonitorLog struct {
	ID             uuid.UUID   `json:"id"`
	EndpointID     uuid.UUID   `json:"endpoint_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Success        bool        `json:"success"`
	StatusCode     null.Int    `json:"status_code"`
	ResponseTimeMs int64       `json:"response_time_ms"`
	ErrorMessage   null.String `json:"error_message"`
	ErrorType      null.String `json:"error_type"`
}

// StatusSnapshot is the latest check result kept in the cache for fast reads.
type StatusSnapshot struct {
	EndpointID     uuid.UUID   `json:"endpoint_id"`
	Status         Status      `json:"status"`
	Success        bool        `json:"success"`
	StatusCode     null.Int    `json:"status_code"`
	ResponseTimeMs int64       `json:"response_time_ms"`
	ErrorType      null.String `json:"error_type"`
	CheckedAt      time.Time   `json:"checked_at"`
}

type EndpointDetail struct {
	Endpoint
	Logs []MonitorLog `json:"monitor_logs"`
}

type CheckStats struct {
	Success           bool    `json:"success"`
	Count             int64   `json:"count"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

type CreateEndpointCmd struct {
	UserID          uuid.UUID
	Name            string
	Url             string
	CheckIntervalMs int32
	TimeoutMs       int32
	Headers         map[string]string
}

type UpdateEndpointCmd struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Name            string
	Url             string
	CheckIntervalMs int32
	TimeoutMs       int32
	Headers         map[string]string
}

type AppendLogCmd struct {
	EndpointID     uuid.UUID
	Timestamp      time.Time
	Success        bool
	StatusCode     null.Int
	ResponseTimeMs int64
	ErrorMessage   null.String
	ErrorType      null.String
}

// DueQuery selects endpoints for one scheduler tick.
type DueQuery struct {
	Now                time.Time
	Staleness          time.Duration
	Limit              int
	HonorCheckInterval bool
}

// EndpointPatch carries a partial update; nil fields keep their stored value.
type EndpointPatch struct {
	Name            *string
	Url             *string
	CheckIntervalMs *int32
	TimeoutMs       *int32
	Headers         map[string]string
}
