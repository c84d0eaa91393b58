package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/observability"
)

// ErrQueueFull is returned to the dispatcher when an event is dropped.
var ErrQueueFull = errors.New("notification queue full")

// EventHandler processes one queued event.
type EventHandler interface {
	Handle(ctx context.Context, event events.Event)
}

// NotificationWorker decouples request handling from notification delivery
// with a bounded queue drained by a fixed pool of goroutines.
type NotificationWorker struct {
	handler EventHandler
	logger  *zap.Logger
	metrics *observability.Metrics
	queue   chan events.Event
	workers int

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNotificationWorker builds a worker. Non-positive sizes fall back to one.
func NewNotificationWorker(handler EventHandler, queueSize, workers int, logger *zap.Logger, metrics *observability.Metrics) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		handler: handler,
		logger:  logger.Named("notification-worker"),
		metrics: metrics,
		queue:   make(chan events.Event, queueSize),
		workers: workers,
	}
}

// Register subscribes the worker to every event on dispatcher.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe("", w.Enqueue)
}

// Enqueue queues event without blocking. It drops the event when the queue is
// full or the worker has stopped.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		w.drop(event, "stopped")
		return ErrQueueFull
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.drop(event, "full")
		return ErrQueueFull
	}
}

// Start launches the delivery goroutines. Delivery uses ctx, so cancelling it
// aborts in-flight sends.
func (w *NotificationWorker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for event := range w.queue {
				w.handler.Handle(ctx, event)
			}
		}()
	}
	w.logger.Info("notification worker started", zap.Int("workers", w.workers), zap.Int("queue_size", cap(w.queue)))
}

// Stop closes the queue and waits for queued events to be delivered or for ctx
// to expire.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) drop(event events.Event, reason string) {
	w.metrics.RecordNotificationDropped()
	w.logger.Warn("notification dropped",
		zap.String("reason", reason),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID))
}
