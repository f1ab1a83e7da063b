// Package trigger holds the in-memory set of scheduled one-shot reminders.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/domain"
)

// ErrClosed is returned by Register after Shutdown.
var ErrClosed = errors.New("trigger registry closed")

// Handler receives fired triggers. retire removes the trigger from the
// registry and is safe to call more than once.
type Handler interface {
	Fire(ctx context.Context, t Trigger, retire func())
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, t Trigger, retire func())

func (f HandlerFunc) Fire(ctx context.Context, t Trigger, retire func()) { f(ctx, t, retire) }

type entry struct {
	t     Trigger
	timer clock.Timer
	fired bool
}

// Registry owns trigger lifetime. All mutation happens under one mutex so a
// key never has two live triggers, even when registrations race.
type Registry struct {
	clock   clock.Clock
	handler Handler
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	entries  map[Key]*entry
	inflight sync.WaitGroup
}

// NewRegistry creates a registry that hands fired triggers to h.
func NewRegistry(clk clock.Clock, h Handler, log *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		clock:   clk,
		handler: h,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[Key]*entry),
	}
}

// Register schedules a trigger for key. It returns false when a trigger for
// the key already exists, and ErrAlreadyPast when at is not in the future.
func (r *Registry) Register(key Key, at time.Time, p Payload) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrClosed
	}
	if _, ok := r.entries[key]; ok {
		return false, nil
	}
	now := r.clock.Now()
	if !at.After(now) {
		return false, fmt.Errorf("%w: %s at %s", domain.ErrAlreadyPast, key, at.Format("15:04"))
	}

	e := &entry{t: Trigger{Key: key, At: at, Payload: p}}
	e.timer = r.clock.AfterFunc(at.Sub(now), func() { r.fire(key) })
	r.entries[key] = e
	return true, nil
}

// fire runs on the timer goroutine. The handler is offloaded so a slow
// delivery never holds up other timers.
func (r *Registry) fire(key Key) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok || e.fired || r.closed {
		r.mu.Unlock()
		return
	}
	e.fired = true
	t := e.t
	r.inflight.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.inflight.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("trigger handler panic", zap.String("key", key.String()), zap.Any("panic", rec))
				r.Retire(key)
			}
		}()
		r.handler.Fire(r.ctx, t, func() { r.Retire(key) })
	}()
}

// Retire removes the trigger for key, stopping its timer if still pending.
func (r *Registry) Retire(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return
	}
	if !e.fired {
		e.timer.Stop()
	}
	delete(r.entries, key)
}

// NextUnfired returns the earliest trigger of a subscriber that has not fired yet.
func (r *Registry) NextUnfired(subscriberID int64) (Trigger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		best  Trigger
		found bool
	)
	for _, e := range r.entries {
		if e.fired || e.t.Payload.SubscriberID != subscriberID {
			continue
		}
		if !found || e.t.At.Before(best.At) ||
			(e.t.At.Equal(best.At) && e.t.Key.Event < best.Key.Event) {
			best, found = e.t, true
		}
	}
	return best, found
}

// Pending returns the number of triggers not yet fired.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if !e.fired {
			n++
		}
	}
	return n
}

// InFlight returns the number of triggers that fired and were not retired yet.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.fired {
			n++
		}
	}
	return n
}

// CancelAll stops every pending timer and forgets all triggers. Fires that
// are already running are not interrupted.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, e := range r.entries {
		if !e.fired && e.timer.Stop() {
			n++
		}
		delete(r.entries, key)
	}
	return n
}

// Wait blocks until in-flight handler calls finish or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown refuses further registrations, cancels everything pending and
// waits for running dispatches up to ctx's deadline.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	n := r.CancelAll()
	r.log.Info("triggers cancelled", zap.Int("count", n))
	err := r.Wait(ctx)
	r.cancel()
	return err
}
