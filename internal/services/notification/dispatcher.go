package notification

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultQueueSize      = 256
	DefaultDeliverTimeout = 5 * time.Second
)

// Dispatcher queues events in a bounded channel and delivers them to every
// sink from a single worker. Delivery is at-most-once: a full queue drops the
// event, and a failing sink is logged and skipped.
type Dispatcher struct {
	queue   chan Event
	sinks   []Sink
	timeout time.Duration

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	delivered atomic.Int64
	dropped   atomic.Int64
}

func NewDispatcher(queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		queue:   make(chan Event, queueSize),
		sinks:   sinks,
		timeout: DefaultDeliverTimeout,
		done:    make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

func (d *Dispatcher) Notify(_ context.Context, event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	select {
	case <-d.done:
		d.dropped.Add(1)
		log.Printf("⚠️ Notification %s dropped: dispatcher closed", event.Kind)
		return
	default:
	}

	select {
	case d.queue <- event:
	default:
		d.dropped.Add(1)
		log.Printf("⚠️ Notification %s dropped: queue full", event.Kind)
	}
}

// Close stops accepting events, drains what is queued and waits for the worker.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

// Delivered counts events handed to every sink.
func (d *Dispatcher) Delivered() int64 { return d.delivered.Load() }

// Dropped counts events rejected by Notify.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.done:
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := sink.Deliver(ctx, event); err != nil {
			log.Printf("❌ Notification %s failed on %s sink: %v", event.Kind, sink.Name(), err)
		}
		cancel()
	}
	d.delivered.Add(1)
}
