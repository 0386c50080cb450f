package notify

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Dispatcher decouples business operations from notification delivery. It
// implements Notifier itself: each call enqueues the event on a bounded
// queue and returns nil immediately. A single worker drains the queue and
// hands events to the wrapped Notifier; delivery errors are logged and
// dropped, and when the queue is full the event is dropped and logged
// instead of blocking the caller.
type Dispatcher struct {
	next Notifier
	log  *logrus.Logger

	queue    chan job
	stopOnce sync.Once
	done     chan struct{}
}

type job struct {
	key  string
	send func() error
}

func NewDispatcher(next Notifier, depth int, log *logrus.Logger) *Dispatcher {
	if depth <= 0 {
		depth = 64
	}
	d := &Dispatcher{
		next:  next,
		log:   log,
		queue: make(chan job, depth),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.queue {
		if err := j.send(); err != nil {
			d.log.WithField("notification", j.key).WithError(err).Warn("notification delivery failed")
		}
	}
}

// Close stops accepting events and waits for the worker to drain what was
// already queued.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() { close(d.queue) })
	<-d.done
}

func (d *Dispatcher) enqueue(key string, send func() error) error {
	defer func() {
		// enqueue after Close panics on the closed channel; a straggling
		// notification during shutdown is dropped, not a crash
		if recover() != nil {
			d.log.WithField("notification", key).Warn("dispatcher closed, notification dropped")
		}
	}()
	select {
	case d.queue <- job{key: key, send: send}:
	default:
		d.log.WithField("notification", key).Warn("notification queue full, dropped")
	}
	return nil
}

func (d *Dispatcher) BookingCreated(e BookingCreatedEvent) error {
	return d.enqueue(KeyBookingCreated, func() error { return d.next.BookingCreated(e) })
}

func (d *Dispatcher) BookingCancelled(e BookingCancelledEvent) error {
	return d.enqueue(KeyBookingCancelled, func() error { return d.next.BookingCancelled(e) })
}

func (d *Dispatcher) PaymentCreated(e PaymentCreatedEvent) error {
	return d.enqueue(KeyPaymentCreated, func() error { return d.next.PaymentCreated(e) })
}

func (d *Dispatcher) PaymentConfirmed(e PaymentConfirmedEvent) error {
	return d.enqueue(KeyPaymentConfirmed, func() error { return d.next.PaymentConfirmed(e) })
}
