package notification

import (
	"context"
	"sync"
	"time"

	"endpoint-monitor/pkg/rabbitmq"

	"github.com/rs/zerolog"
)

const publishTimeout = 10 * time.Second

type Publisher interface {
	Publish(ctx context.Context, event rabbitmq.Event) error
}

type PublishRecorder interface {
	EventPublished(err error)
}

// EventWorker fans events out to the broker from a bounded buffer. It
// carries notification events and any other envelope handed to Submit.
// Submit never blocks: when the buffer is full the event is dropped and
// logged, whatever was stored in postgres stays authoritative.
type EventWorker struct {
	// lifecycle
	workerCount int
	workerWG    sync.WaitGroup
	mu          sync.RWMutex
	closed      bool

	// channels
	eventChan chan rabbitmq.Event

	publisher Publisher
	metrics   PublishRecorder
	logger    *zerolog.Logger
}

func NewEventWorker(workerCount, bufferSize int, publisher Publisher, metrics PublishRecorder, logger *zerolog.Logger) *EventWorker {
	return &EventWorker{
		workerCount: workerCount,
		eventChan:   make(chan rabbitmq.Event, bufferSize),
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
	}
}

// Start launches the publishing workers.
func (w *EventWorker) Start() {
	w.workerWG.Add(w.workerCount)

	for range w.workerCount {
		go w.handleEvents()
	}
}

// Enqueue wraps a stored notification in a notification.created envelope.
func (w *EventWorker) Enqueue(evt CreatedEvent) {
	msg, err := rabbitmq.NewEvent(EventCreated, evt)
	if err != nil {
		w.observe(err)
		w.logger.Error().Err(err).Str("notification_id", evt.NotificationID.String()).Msg("failed to encode notification event")
		return
	}
	w.Submit(msg)
}

func (w *EventWorker) Submit(msg rabbitmq.Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.logger.Warn().Str("event_id", msg.ID.String()).Str("event_type", msg.Type).Msg("event worker stopped, event dropped")
		return
	}
	select {
	case w.eventChan <- msg:
	default:
		w.logger.Warn().Str("event_id", msg.ID.String()).Str("event_type", msg.Type).Msg("event buffer full, event dropped")
	}
}

func (w *EventWorker) handleEvents() {
	defer w.workerWG.Done()

	for msg := range w.eventChan {
		w.publish(msg)
	}
}

func (w *EventWorker) publish(msg rabbitmq.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	err := w.publisher.Publish(ctx, msg)
	cancel()

	w.observe(err)
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("event_id", msg.ID.String()).
			Str("event_type", msg.Type).
			Msg("failed to publish event")
	}
}

func (w *EventWorker) observe(err error) {
	if w.metrics != nil {
		w.metrics.EventPublished(err)
	}
}

// Stop closes the buffer and waits for queued events to be published.
func (w *EventWorker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.eventChan)
	}
	w.mu.Unlock()

	w.workerWG.Wait()
}
