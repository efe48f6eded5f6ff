package notification

import (
	"context"
	"fmt"
	"strings"

	"endpoint-monitor/internals/modules/endpoint"
	"endpoint-monitor/pkg/apperror"

	"github.com/rs/zerolog"
)

type Appender interface {
	Create(ctx context.Context, cmd CreateNotificationCmd) (Notification, error)
}

// EventSink receives a copy of every stored notification. Implementations
// must not block.
type EventSink interface {
	Enqueue(evt CreatedEvent)
}

type Recorder interface {
	NotificationCreated(kind string)
}

type Dispatcher struct {
	store   Appender
	events  EventSink
	metrics Recorder
	logger  *zerolog.Logger
}

// NewDispatcher builds the dispatcher. events and metrics may be nil.
func NewDispatcher(store Appender, events EventSink, metrics Recorder, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:   store,
		events:  events,
		metrics: metrics,
		logger:  logger,
	}
}

// Message renders the text stored with a notification.
func Message(endpointName string, s endpoint.Status) string {
	return fmt.Sprintf("Endpoint %s is now %s", endpointName, strings.ToLower(string(s)))
}

// OnStatusChange records one notification for ep entering newStatus. The
// caller decides whether a transition happened. Store errors are returned
// unchanged and are not retried.
func (d *Dispatcher) OnStatusChange(ctx context.Context, ep endpoint.Endpoint, newStatus endpoint.Status) (Notification, error) {
	const op = "service.notification.on_status_change"

	kind, ok := TypeFor(newStatus)
	if !ok {
		return Notification{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: fmt.Sprintf("unknown status %q", newStatus),
		}
	}

	n, err := d.store.Create(ctx, CreateNotificationCmd{
		UserID:     ep.UserID,
		EndpointID: ep.ID,
		Type:       kind,
		Message:    Message(ep.Name, newStatus),
	})
	if err != nil {
		return Notification{}, err
	}

	if d.metrics != nil {
		d.metrics.NotificationCreated(string(kind))
	}
	d.logger.Info().
		Str("endpoint_id", ep.ID.String()).
		Str("notification_id", n.ID.String()).
		Str("type", string(kind)).
		Msg("notification created")

	if d.events != nil {
		d.events.Enqueue(CreatedEvent{
			NotificationID: n.ID,
			UserID:         n.UserID,
			EndpointID:     n.EndpointID,
			EndpointName:   ep.Name,
			EndpointUrl:    ep.Url,
			Type:           n.Type,
			Status:         newStatus,
			Message:        n.Message,
			Timestamp:      n.Timestamp,
		})
	}
	return n, nil
}
