package ebus

import (
	"fmt"
	"sync/atomic"

	"github.com/saylorsolutions/busx/structures/queue"
	"github.com/saylorsolutions/busx/syncx"
)

type queuedCall struct {
	run func()
	// drop is called with the reason a call will never run, if set.
	drop func(cause error)
}

type eventQueue struct {
	pending *queue.Queue[queuedCall]
	active  atomic.Bool
}

func newEventQueue(locker syncx.RWLocker, active bool) *eventQueue {
	pending, err := queue.New[queuedCall](queue.WithLocker(locker), queue.InitialBuffer(16))
	if err != nil {
		panic(fmt.Sprintf("unexpected error creating event queue: %v", err))
	}
	q := &eventQueue{pending: pending}
	q.active.Store(active)
	return q
}

// clear drops every pending call, returning how many were dropped.
func (q *eventQueue) clear() int {
	dropped := q.pending.Clear()
	for _, call := range dropped {
		if call.drop != nil {
			call.drop(ErrQueueCleared)
		}
	}
	return len(dropped)
}

func (b *Bus[I, ID]) enqueue(op string, call queuedCall) error {
	if !b.traits.EnableEventQueue {
		b.stats.queueRejected.Add(1)
		b.log.Warn("Queued call ignored, the bus has no event queue", "op", op)
		if call.drop != nil {
			call.drop(ErrQueueDisabled)
		}
		return ErrQueueDisabled
	}
	c := b.GetOrCreateContext()
	if !c.queue.active.Load() {
		b.stats.queueRejected.Add(1)
		c.log.Warn("Queued call dropped, function queueing is not active", "op", op)
		if call.drop != nil {
			call.drop(ErrQueueInactive)
		}
		return ErrQueueInactive
	}
	c.queue.pending.Push(call)
	b.stats.queued.Add(1)
	return nil
}

// QueueEvent queues an event for id, to be dispatched like [Bus.Event] by the next call to [Bus.ExecuteQueuedEvents].
//
// If the bus has no event queue or queueing isn't active, then a warning is logged and the event is dropped.
// [ErrQueueDisabled] or [ErrQueueInactive] is returned in that case.
func (b *Bus[I, ID]) QueueEvent(id ID, op func(I)) error {
	return b.enqueue("QueueEvent", queuedCall{run: func() {
		b.dispatch(Route[ID]{ID: id, Queued: true}, nil, op)
	}})
}

// QueueEventReverse queues an event that will be dispatched like [Bus.EventReverse].
func (b *Bus[I, ID]) QueueEventReverse(id ID, op func(I)) error {
	return b.enqueue("QueueEventReverse", queuedCall{run: func() {
		b.dispatch(Route[ID]{ID: id, Reverse: true, Queued: true}, nil, op)
	}})
}

// QueueBroadcast queues an event that will be dispatched like [Bus.Broadcast].
func (b *Bus[I, ID]) QueueBroadcast(op func(I)) error {
	return b.enqueue("QueueBroadcast", queuedCall{run: func() {
		b.dispatch(Route[ID]{Broadcast: true, Queued: true}, nil, op)
	}})
}

// QueueBroadcastReverse queues an event that will be dispatched like [Bus.BroadcastReverse].
func (b *Bus[I, ID]) QueueBroadcastReverse(op func(I)) error {
	return b.enqueue("QueueBroadcastReverse", queuedCall{run: func() {
		b.dispatch(Route[ID]{Broadcast: true, Reverse: true, Queued: true}, nil, op)
	}})
}

// QueueFunction queues an arbitrary function to be called by the next call to [Bus.ExecuteQueuedEvents].
// Queued functions and events run in the order they were queued.
func (b *Bus[I, ID]) QueueFunction(fn func()) error {
	if fn == nil {
		return b.violation("QueueFunction", fmt.Errorf("%w: nil function", ErrInvalidCall))
	}
	return b.enqueue("QueueFunction", queuedCall{run: fn})
}

// QueueEventFuture queues an [EventResult] for id.
// The returned future is resolved with the result when the queue is executed, or with an error if there was no handler or the event never ran.
func QueueEventFuture[I comparable, ID comparable, R any](b *Bus[I, ID], id ID, fn func(I) R) syncx.FutureErr[R] {
	var (
		future = syncx.NewFutureErr[R]()
		zero   R
	)
	_ = b.enqueue("QueueEventFuture", queuedCall{
		run: func() {
			var out R
			if !EventResult(b, &out, id, fn) {
				future.ResolveErr(zero, fmt.Errorf("%w at address %v", ErrNoHandler, id))
				return
			}
			future.Resolve(out)
		},
		drop: func(cause error) {
			future.ResolveErr(zero, cause)
		},
	})
	return future
}

// ExecuteQueuedEvents runs every queued event and function that was queued before the call, in the order they were queued.
// Anything queued while they run waits for the next call.
// The number of queued entries that ran is returned.
//
// If a queued entry panics, then the entries after it are returned to the head of the queue before the panic continues.
func (b *Bus[I, ID]) ExecuteQueuedEvents() int {
	c := b.GetContext(false)
	if c == nil || c.queue == nil {
		return 0
	}
	calls := c.queue.pending.Drain()
	if len(calls) == 0 {
		return 0
	}
	var executed int
	defer func() {
		b.stats.queueExecuted.Add(uint64(executed))
		if executed < len(calls) {
			c.queue.pending.PushHead(calls[executed+1:]...)
		}
	}()
	for _, call := range calls {
		call.run()
		executed++
	}
	return executed
}

// ClearQueuedEvents drops everything in the queue without running it.
// Calling it with an empty queue, or before the bus has a context, does nothing.
func (b *Bus[I, ID]) ClearQueuedEvents() {
	c := b.GetContext(false)
	if c == nil || c.queue == nil {
		return
	}
	if dropped := c.queue.clear(); dropped > 0 {
		b.stats.queueCleared.Add(uint64(dropped))
		c.log.Debug("Queued events cleared", "dropped_events", dropped)
	}
}

// AllowFunctionQueuing activates or deactivates the event queue.
// While it's inactive, queued calls are dropped with a warning.
func (b *Bus[I, ID]) AllowFunctionQueuing(allow bool) {
	if !b.traits.EnableEventQueue {
		b.log.Warn("Function queueing can't be changed, the bus has no event queue", "allow", allow)
		return
	}
	b.GetOrCreateContext().queue.active.Store(allow)
}

// IsFunctionQueuing reports whether queued calls are currently accepted.
func (b *Bus[I, ID]) IsFunctionQueuing() bool {
	if !b.traits.EnableEventQueue {
		return false
	}
	c := b.GetContext(false)
	if c == nil {
		return !b.traits.QueueingInactiveByDefault
	}
	return c.queue.active.Load()
}

// QueuedEventCount returns the number of entries waiting in the queue.
func (b *Bus[I, ID]) QueuedEventCount() int {
	c := b.GetContext(false)
	if c == nil || c.queue == nil {
		return 0
	}
	return c.queue.pending.Len()
}
