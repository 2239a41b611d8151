package ebus

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Context holds the runtime state of a [Bus]: its connections, routers, and event queue.
// There is at most one live Context per bus, see [Bus.GetOrCreateContext] and [Bus.Teardown].
type Context[I comparable, ID comparable] struct {
	id      uuid.UUID
	created time.Time
	log     *slog.Logger
	closed  atomic.Bool

	reg     *registry[I, ID]
	queue   *eventQueue
	routers atomic.Pointer[[]*routerEntry[I, ID]]
}

func newContext[I comparable, ID comparable](b *Bus[I, ID]) *Context[I, ID] {
	id := uuid.New()
	c := &Context[I, ID]{
		id:      id,
		created: time.Now(),
		log:     b.log.With("context", id.String()),
		reg:     newRegistry(b.traits),
	}
	if b.traits.EnableEventQueue {
		c.queue = newEventQueue(b.traits.queueLock(), !b.traits.QueueingInactiveByDefault)
	}
	return c
}

// ID uniquely identifies this generation of a bus context.
func (c *Context[I, ID]) ID() uuid.UUID {
	return c.id
}

func (c *Context[I, ID]) Created() time.Time {
	return c.created
}

// Closed reports whether the bus has been torn down since this Context was created.
func (c *Context[I, ID]) Closed() bool {
	return c.closed.Load()
}

// close returns the number of queued events that were dropped.
func (c *Context[I, ID]) close() int {
	c.closed.Store(true)
	var dropped int
	if c.queue != nil {
		dropped = c.queue.clear()
	}
	c.reg.clear()
	c.routers.Store(nil)
	c.log.Debug("Bus context released", "dropped_events", dropped)
	return dropped
}
