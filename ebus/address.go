package ebus

import "sync/atomic"

// Address is a bound reference to one address on a [Bus], returned by [Bus.Bind].
// Dispatching through an Address skips the ID lookup, and the address stays registered while the Address is held, even if it has no handlers.
//
// An Address becomes inert once it's released, or once its bus is torn down.
// Operations on an inert Address do nothing.
type Address[I comparable, ID comparable] struct {
	bus      *Bus[I, ID]
	ctx      *Context[I, ID]
	addr     *address[I, ID]
	released atomic.Bool
}

// Bind returns a bound [Address] for id, creating the address if needed.
// The caller should call [Address.Release] when it's no longer needed.
func (b *Bus[I, ID]) Bind(id ID) *Address[I, ID] {
	c := b.GetOrCreateContext()
	return &Address[I, ID]{
		bus:  b,
		ctx:  c,
		addr: c.reg.bind(id),
	}
}

func (a *Address[I, ID]) ID() ID {
	return a.addr.id
}

func (a *Address[I, ID]) live() bool {
	return !a.released.Load() && !a.ctx.Closed()
}

// Event is the same as [Bus.Event] for this address.
func (a *Address[I, ID]) Event(op func(I)) {
	if !a.live() {
		return
	}
	a.bus.dispatch(Route[ID]{ID: a.addr.id}, a.addr, op)
}

// EventReverse is the same as [Bus.EventReverse] for this address.
func (a *Address[I, ID]) EventReverse(op func(I)) {
	if !a.live() {
		return
	}
	a.bus.dispatch(Route[ID]{ID: a.addr.id, Reverse: true}, a.addr, op)
}

// QueueEvent is the same as [Bus.QueueEvent] for this address.
// The event will do nothing if the Address is inert by the time it executes.
func (a *Address[I, ID]) QueueEvent(op func(I)) error {
	return a.bus.enqueue("QueueEvent", queuedCall{run: func() {
		if a.live() {
			a.bus.dispatch(Route[ID]{ID: a.addr.id, Queued: true}, a.addr, op)
		}
	}})
}

// QueueEventReverse is the same as [Bus.QueueEventReverse] for this address.
func (a *Address[I, ID]) QueueEventReverse(op func(I)) error {
	return a.bus.enqueue("QueueEventReverse", queuedCall{run: func() {
		if a.live() {
			a.bus.dispatch(Route[ID]{ID: a.addr.id, Reverse: true, Queued: true}, a.addr, op)
		}
	}})
}

// EnumerateHandlers calls visit with each handler at this address until visit returns false.
func (a *Address[I, ID]) EnumerateHandlers(visit func(I) bool) {
	if !a.live() {
		return
	}
	defer a.bus.enter()()
	visitSlots(a.addr.load(), noLimit, false, func(s *slot[I, ID]) bool {
		return visit(s.handler)
	})
}

// HandlerCount returns the number of handlers connected to this address.
func (a *Address[I, ID]) HandlerCount() int {
	if !a.live() {
		return 0
	}
	return len(a.addr.load())
}

func (a *Address[I, ID]) HasHandlers() bool {
	return a.HandlerCount() > 0
}

// Release gives up this reference to the address.
// If nothing else references the address and it has no handlers, then it's removed from the bus.
// Calling Release more than once has no further effect.
func (a *Address[I, ID]) Release() {
	if a.released.Swap(true) {
		return
	}
	a.ctx.reg.release(a.addr)
}

// AddressResult is the same as [EventResult], dispatched through a bound [Address].
func AddressResult[I comparable, ID comparable, R any](a *Address[I, ID], out *R, fn func(I) R) bool {
	if !a.live() {
		return false
	}
	return a.bus.first(Route[ID]{ID: a.addr.id}, a.addr, func(h I) {
		*out = fn(h)
	})
}

// AddressResultReverse is the same as [EventResultReverse], dispatched through a bound [Address].
func AddressResultReverse[I comparable, ID comparable, R any](a *Address[I, ID], out *R, fn func(I) R) bool {
	if !a.live() {
		return false
	}
	return a.bus.first(Route[ID]{ID: a.addr.id, Reverse: true}, a.addr, func(h I) {
		*out = fn(h)
	})
}
