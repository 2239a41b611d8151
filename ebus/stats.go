package ebus

import "sync/atomic"

// Stats is a point-in-time copy of a bus's counters.
// Counters accumulate across teardowns until [Bus.ResetStats] is called.
type Stats struct {
	Dispatches    uint64 // Dispatches counts events, broadcasts, and result calls that found a context.
	HandlerCalls  uint64 // HandlerCalls counts individual handler invocations.
	Queued        uint64 // Queued counts calls accepted by the event queue.
	QueueRejected uint64 // QueueRejected counts calls dropped because the queue is disabled or inactive.
	QueueExecuted uint64 // QueueExecuted counts queued calls that ran.
	QueueCleared  uint64 // QueueCleared counts queued calls dropped by clearing or teardown.
	Connects      uint64
	Disconnects   uint64
}

type counters struct {
	dispatches    atomic.Uint64
	handlerCalls  atomic.Uint64
	queued        atomic.Uint64
	queueRejected atomic.Uint64
	queueExecuted atomic.Uint64
	queueCleared  atomic.Uint64
	connects      atomic.Uint64
	disconnects   atomic.Uint64
}

// Stats returns the current bus counters.
func (b *Bus[I, ID]) Stats() Stats {
	return Stats{
		Dispatches:    b.stats.dispatches.Load(),
		HandlerCalls:  b.stats.handlerCalls.Load(),
		Queued:        b.stats.queued.Load(),
		QueueRejected: b.stats.queueRejected.Load(),
		QueueExecuted: b.stats.queueExecuted.Load(),
		QueueCleared:  b.stats.queueCleared.Load(),
		Connects:      b.stats.connects.Load(),
		Disconnects:   b.stats.disconnects.Load(),
	}
}

// ResetStats zeroes every counter.
// Counters exported elsewhere, like the Prometheus collector in ebusprom, drop back to zero as well, which monitoring treats as a counter reset.
func (b *Bus[I, ID]) ResetStats() {
	b.stats.dispatches.Store(0)
	b.stats.handlerCalls.Store(0)
	b.stats.queued.Store(0)
	b.stats.queueRejected.Store(0)
	b.stats.queueExecuted.Store(0)
	b.stats.queueCleared.Store(0)
	b.stats.connects.Store(0)
	b.stats.disconnects.Store(0)
}
