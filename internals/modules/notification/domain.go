package notification

import (
	"time"

	"endpoint-monitor/internals/modules/endpoint"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDown         Type = "DOWN"
	TypeSlowResponse Type = "SLOW_RESPONSE"
	TypeRecovered    Type = "RECOVERED"
)

// TypeFor maps the status an endpoint entered to the notification raised for it.
func TypeFor(s endpoint.Status) (Type, bool) {
	switch s {
	case endpoint.StatusDown:
		return TypeDown, true
	case endpoint.StatusWarning:
		return TypeSlowResponse, true
	case endpoint.StatusActive:
		return TypeRecovered, true
	}
	return "", false
}

type Notification struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	EndpointID uuid.UUID `json:"endpoint_id"`
	Type       Type      `json:"type"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	Timestamp  time.Time `json:"timestamp"`
}

// View is a notification joined with the endpoint it refers to.
type View struct {
	Notification
	EndpointName string `json:"endpoint_name"`
	EndpointUrl  string `json:"endpoint_url"`
}

type CreateNotificationCmd struct {
	UserID     uuid.UUID
	EndpointID uuid.UUID
	Type       Type
	Message    string
}

// CreatedEvent is the payload published for every stored notification.
type CreatedEvent struct {
	NotificationID uuid.UUID       `json:"notification_id"`
	UserID         uuid.UUID       `json:"user_id"`
	EndpointID     uuid.UUID       `json:"endpoint_id"`
	EndpointName   string          `json:"endpoint_name"`
	EndpointUrl    string          `json:"endpoint_url"`
	Type           Type            `json:"type"`
	Status         endpoint.Status `json:"status"`
	Message        string          `json:"message"`
	Timestamp      time.Time       `json:"timestamp"`
}

const EventCreated = "notification.created"
