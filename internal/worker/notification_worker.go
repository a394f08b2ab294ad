package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/facilityops/visit-booking/internal/events"
	"github.com/facilityops/visit-booking/internal/observability"
)

// ErrQueueFull is returned when an event is dropped because every slot in the queue is taken.
var ErrQueueFull = errors.New("notification queue full")

// ErrStopped is returned when enqueueing after Stop.
var ErrStopped = errors.New("notification worker stopped")

// Handler processes one queued event.
type Handler interface {
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker drains status-change events on a fixed pool of goroutines.
type NotificationWorker struct {
	handler Handler
	logger  *zap.Logger
	metrics *observability.Metrics
	workers int
	queue   chan events.Event

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewNotificationWorker creates a worker with the given pool and queue sizes.
func NewNotificationWorker(handler Handler, workers, queueSize int, logger *zap.Logger, metrics *observability.Metrics) *NotificationWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		handler: handler,
		logger:  logger,
		metrics: metrics,
		workers: workers,
		queue:   make(chan events.Event, queueSize),
	}
}

// Register subscribes the worker to status-change events. Enqueue failures are reported to the publisher.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventAppointmentStatusChanged, func(_ context.Context, event events.Event) error {
		return w.Enqueue(event)
	})
}

// Enqueue hands event to the pool without blocking.
func (w *NotificationWorker) Enqueue(event events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.metrics.RecordNotificationDropped()
		w.logger.Warn("notification dropped",
			zap.String("appointment_id", event.AppointmentID),
			zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Start launches the pool. Handlers run with ctx.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop closes the queue and waits for queued events to drain.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *NotificationWorker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	for event := range w.queue {
		if err := w.handler.Handle(ctx, event); err != nil {
			w.metrics.RecordNotificationFailure()
			w.logger.Error("notification delivery failed",
				zap.Int("worker", id),
				zap.String("appointment_id", event.AppointmentID),
				zap.Error(err))
		}
	}
}
