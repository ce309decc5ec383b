package broadcast

import (
	"sync"
	"sync/atomic"
)

// DeliveryContext runs observer callbacks somewhere: inline, on a dedicated goroutine,
// or inside a host event loop. Callbacks handed to one context must run in the order
// they were handed over.
type DeliveryContext interface {
	Deliver(fn func())
}

// DeliveryFunc adapts a plain function to DeliveryContext.
type DeliveryFunc func(fn func())

// Deliver calls f(fn).
func (f DeliveryFunc) Deliver(fn func()) { f(fn) }

// Immediate runs callbacks on the emitting goroutine.
var Immediate DeliveryContext = DeliveryFunc(func(fn func()) { fn() })

// SerialQueue runs callbacks one at a time on its own goroutine, in submission order.
// It plays the role of a UI thread: every observer bound to the same queue can touch
// shared state without further locking.
//
// Deliver blocks while the queue is full, so the producer is slowed down rather than
// callbacks being lost.
type SerialQueue struct {
	tasks     chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSerialQueue starts a queue holding up to size pending callbacks.
func NewSerialQueue(size int) *SerialQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &SerialQueue{
		tasks: make(chan func(), size),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			return
		case fn := <-q.tasks:
			fn()
		}
	}
}

// Deliver enqueues fn. After Close it is a no-op.
func (q *SerialQueue) Deliver(fn func()) {
	select {
	case <-q.quit:
		return
	default:
	}
	select {
	case <-q.quit:
	case q.tasks <- fn:
	}
}

// Flush blocks until every callback enqueued before the call has run,
// or the queue is closed.
func (q *SerialQueue) Flush() {
	marker := make(chan struct{})
	q.Deliver(func() { close(marker) })
	select {
	case <-marker:
	case <-q.done:
	}
}

// Close stops the queue. Pending callbacks are discarded. Close is idempotent.
func (q *SerialQueue) Close() {
	q.closeOnce.Do(func() { close(q.quit) })
	<-q.done
}

// Mailbox hands callbacks to a goroutine the caller owns, such as an HTTP handler
// streaming to one client. The owner drains C and runs each callback it receives.
//
// A full mailbox drops the callback and counts it; a stalled reader never blocks the producer.
type Mailbox struct {
	tasks   chan func()
	quit    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewMailbox creates a mailbox with room for size pending callbacks.
func NewMailbox(size int) *Mailbox {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Mailbox{
		tasks: make(chan func(), size),
		quit:  make(chan struct{}),
	}
}

// Deliver enqueues fn, dropping it if the mailbox is full or closed.
func (m *Mailbox) Deliver(fn func()) {
	select {
	case <-m.quit:
		return
	default:
	}
	select {
	case m.tasks <- fn:
	default:
		m.dropped.Add(1)
	}
}

// C returns the channel the owner reads callbacks from. It is never closed.
func (m *Mailbox) C() <-chan func() { return m.tasks }

// Dropped returns how many callbacks were discarded because the mailbox was full.
func (m *Mailbox) Dropped() uint64 { return m.dropped.Load() }

// Close makes further deliveries no-ops.
func (m *Mailbox) Close() {
	m.once.Do(func() { close(m.quit) })
}
