package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// NotificationError describes a message that could not be delivered after
// all attempts. It is logged and observed, never returned to request callers.
type NotificationError struct {
	Kind string
	To   string
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s to %s failed: %v", e.Kind, e.To, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// ResultFunc observes the outcome of every dispatched message; err is nil on
// success.
type ResultFunc func(kind string, err error)

// Dispatcher sends messages on detached goroutines so callers never wait on
// the mail transport.
type Dispatcher struct {
	sender          Sender
	timeout         time.Duration
	maxTries        uint
	initialInterval time.Duration
	onResult        ResultFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Dispatcher)

// WithTimeout bounds every send attempt sequence for one message.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.timeout = d }
}

// WithMaxTries sets how many delivery attempts a message gets.
func WithMaxTries(n uint) Option {
	return func(dp *Dispatcher) { dp.maxTries = n }
}

// WithRetryInterval sets the first backoff interval between attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.initialInterval = d }
}

// WithResultFunc registers an observer for delivery outcomes.
func WithResultFunc(fn ResultFunc) Option {
	return func(dp *Dispatcher) { dp.onResult = fn }
}

func NewDispatcher(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:          sender,
		timeout:         15 * time.Second,
		maxTries:        3,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxTries == 0 {
		d.maxTries = 1
	}
	return d
}

// Dispatch queues msg for delivery and returns immediately. Messages
// dispatched after Close are dropped.
func (d *Dispatcher) Dispatch(msg Message) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		log.Printf("[Notify] dispatcher closed, dropping %s to %s", msg.Kind, msg.To)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		err := d.deliver(msg)
		if err != nil {
			log.Printf("[Notify] %v", err)
		}
		if d.onResult != nil {
			d.onResult(msg.Kind, err)
		}
	}()
}

func (d *Dispatcher) deliver(msg Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.initialInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, d.sender.Send(ctx, msg)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.maxTries))
	if err != nil {
		return &NotificationError{Kind: msg.Kind, To: msg.To, Err: err}
	}
	return nil
}

// Close stops accepting messages and waits for in-flight deliveries or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
