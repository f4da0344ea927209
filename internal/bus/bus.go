package bus

import (
	"log/slog"
	"sync"
	"time"

	"edobot/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus queues parsed deliveries between the webhook surface and the
// router loop. The webhook acknowledges as soon as a delivery is queued;
// handlers run asynchronously on the consumer side.
type InMemoryBus struct {
	deliveries chan domain.Delivery
	mu         sync.RWMutex
	closed     bool
	logger     *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		deliveries: make(chan domain.Delivery, bufferSize),
		logger:     logger,
	}
}

// Publish enqueues a delivery. Blocks up to 10 seconds if the bus is full
// instead of dropping.
func (b *InMemoryBus) Publish(d domain.Delivery) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.deliveries <- d:
	default:
		// Bus full: wait with timeout instead of dropping
		b.logger.Warn("delivery bus full, waiting...", "transport", d.Transport, "messages", len(d.Messages))
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.deliveries <- d:
			b.logger.Info("delivery queued after wait", "transport", d.Transport)
		case <-timer.C:
			b.logger.Error("delivery dropped: bus full for 10s",
				"transport", d.Transport,
				"messages", len(d.Messages),
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.Delivery {
	return b.deliveries
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.deliveries)
	}
}
