// Package broadcast provides a hot, multi-subscriber publisher whose observers are called
// on a delivery context of their choice.
//
// Emissions are not buffered or replayed: an observer sees only values emitted after it
// subscribed. Each observer receives values in the order Emit was called. Once the
// publisher is closed nothing more is delivered, including callbacks already queued on
// a delivery context.
package broadcast

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kozaktomas/expression-tracker/internal/constants"
)

// DefaultQueueSize is the pending-callback capacity used when a size of 0 is requested.
const DefaultQueueSize = constants.DefaultQueueSize

// Publisher broadcasts values of type T to registered observers.
// The zero value is not usable; create one with New.
type Publisher[T any] struct {
	mu       sync.RWMutex
	subs     []*Subscription[T]
	delivery DeliveryContext
	closed   bool

	emitted atomic.Uint64
}

// New creates an active publisher. Observers registered with Subscribe are called on
// delivery; a nil delivery means Immediate.
func New[T any](delivery DeliveryContext) *Publisher[T] {
	if delivery == nil {
		delivery = Immediate
	}
	return &Publisher[T]{delivery: delivery}
}

// Subscribe registers observer on the publisher's default delivery context.
func (p *Publisher[T]) Subscribe(observer func(T)) *Subscription[T] {
	return p.SubscribeOn(p.delivery, observer)
}

// SubscribeOn registers observer to be called on delivery. Subscribing to a closed
// publisher, or with a nil observer, returns an already closed subscription.
func (p *Publisher[T]) SubscribeOn(delivery DeliveryContext, observer func(T)) *Subscription[T] {
	if delivery == nil {
		delivery = Immediate
	}
	s := &Subscription[T]{
		id:       uuid.NewString(),
		pub:      p,
		delivery: delivery,
		observer: observer,
	}
	if observer == nil {
		return s
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return s
	}
	s.active.Store(true)
	p.subs = append(p.subs, s)
	return s
}

// Emit delivers v to every current observer. With no observers, or after Close, it does nothing.
// Observers share v and must treat it as read-only.
func (p *Publisher[T]) Emit(v T) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return
	}
	subs := slices.Clone(p.subs)
	p.mu.RUnlock()

	p.emitted.Add(1)
	for _, s := range subs {
		s.deliver(v)
	}
}

// Len returns the number of active subscriptions.
func (p *Publisher[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Emitted returns how many values have been emitted while the publisher was active.
func (p *Publisher[T]) Emitted() uint64 { return p.emitted.Load() }

// Closed reports whether Close has been called.
func (p *Publisher[T]) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close releases every subscription and stops all further delivery. Close is idempotent.
func (p *Publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, s := range p.subs {
		s.active.Store(false)
	}
	p.subs = nil
}

func (p *Publisher[T]) remove(s *Subscription[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cur := range p.subs {
		if cur == s {
			p.subs = slices.Delete(p.subs, i, i+1)
			break
		}
	}
}

// Subscription is the handle returned by Subscribe. Closing it unregisters the observer.
type Subscription[T any] struct {
	id       string
	pub      *Publisher[T]
	delivery DeliveryContext
	observer func(T)
	active   atomic.Bool
}

// ID uniquely identifies the subscription, for logging.
func (s *Subscription[T]) ID() string { return s.id }

// Active reports whether the observer still receives values.
func (s *Subscription[T]) Active() bool { return s.active.Load() }

// Close unregisters the observer. Safe to call any number of times, or never.
func (s *Subscription[T]) Close() {
	if s.active.CompareAndSwap(true, false) {
		s.pub.remove(s)
	}
}

func (s *Subscription[T]) deliver(v T) {
	if !s.active.Load() {
		return
	}
	s.delivery.Deliver(func() {
		// the subscription may have been closed while this callback was queued
		if s.active.Load() {
			s.observer(v)
		}
	})
}
