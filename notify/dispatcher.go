package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const defaultQueueSize = 1000

// Dispatcher delivers notifications on a fixed pool of workers so callers never
// wait on the underlying sink. When the queue is full the message is dropped.
type Dispatcher struct {
	next   Notifier
	tasks  chan func()
	logger *zap.Logger

	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
}

func NewDispatcher(next Notifier, size int, logger *zap.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	d := &Dispatcher{
		next:   next,
		tasks:  make(chan func(), defaultQueueSize),
		logger: logger,
	}

	d.workers.Add(size)
	for i := 0; i < size; i++ {
		go d.worker()
	}

	return d
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()
	for task := range d.tasks {
		task()
	}
}

// Notify queues message for delivery. The context's values are kept but its
// cancellation is not, since delivery outlives the calling operation.
func (d *Dispatcher) Notify(ctx context.Context, message string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Dispatcher closed, dropping notification", zap.String("message", message))
		return
	}

	task := func() {
		d.next.Notify(context.WithoutCancel(ctx), message)
	}

	select {
	case d.tasks <- task:
	default:
		d.logger.Warn("Notification queue full, dropping notification", zap.String("message", message))
	}
}

// Shutdown stops accepting notifications and waits for queued ones to be delivered.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.workers.Wait()
}
