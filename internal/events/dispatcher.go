package events

import (
	"context"
	"sync"
	"time"

	"delivery-tracking/internal/logx"
)

// Publisher delivers an envelope to the outside world.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type counter interface {
	Inc()
}

const publishTimeout = 5 * time.Second

// Dispatcher queues envelopes and publishes them from a single background
// goroutine. Enqueue never blocks the caller: when the queue is full the
// envelope is dropped and counted.
type Dispatcher struct {
	publisher Publisher
	logger    logx.Logger
	dropped   counter

	queue    chan Envelope
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

// NewDispatcher starts a dispatcher with the given queue capacity.
func NewDispatcher(publisher Publisher, logger logx.Logger, dropped counter, capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = 256
	}
	d := &Dispatcher{
		publisher: publisher,
		logger:    logger,
		dropped:   dropped,
		queue:     make(chan Envelope, capacity),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue schedules an envelope for publishing. Returns false when the
// envelope was dropped because the queue is full or the dispatcher closed.
func (d *Dispatcher) Enqueue(env Envelope) bool {
	if d == nil {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.queue <- env:
		return true
	default:
		if d.dropped != nil {
			d.dropped.Inc()
		}
		d.logger.Warn("event dropped, queue full",
			logx.String("event_id", env.ID),
			logx.String("type", env.Type),
		)
		return false
	}
}

// Close stops accepting envelopes, drains the queue and waits for the
// background goroutine to exit.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		close(d.done)
	})
	<-d.finished
}

func (d *Dispatcher) run() {
	defer close(d.finished)
	for {
		select {
		case env := <-d.queue:
			d.publish(env)
		case <-d.done:
			for {
				select {
				case env := <-d.queue:
					d.publish(env)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) publish(env Envelope) {
	if d.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := d.publisher.Publish(ctx, env); err != nil {
		d.logger.Warn("event publish failed",
			logx.String("event_id", env.ID),
			logx.String("type", env.Type),
			logx.Err(err),
		)
	}
}
