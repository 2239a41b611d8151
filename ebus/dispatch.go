package ebus

// Event invokes op on every handler connected to the address identified by id, in handler order.
// Nothing happens if the address has no handlers.
//
// The handlers invoked are those connected when the event started.
// Handlers connected during the event aren't invoked, and handlers disconnected during the event are skipped if they haven't been reached yet.
// Handlers may dispatch, connect, and disconnect on the same bus while they're being invoked.
func (b *Bus[I, ID]) Event(id ID, op func(I)) {
	b.dispatch(Route[ID]{ID: id}, nil, op)
}

// EventReverse is the same as [Bus.Event], but handlers are invoked in reverse order.
func (b *Bus[I, ID]) EventReverse(id ID, op func(I)) {
	b.dispatch(Route[ID]{ID: id, Reverse: true}, nil, op)
}

// Broadcast invokes op on every handler at every address.
// Addresses are visited in creation order, or in ID order for [ByIDAndOrdered] buses.
func (b *Bus[I, ID]) Broadcast(op func(I)) {
	b.dispatch(Route[ID]{Broadcast: true}, nil, op)
}

// BroadcastReverse is the same as [Bus.Broadcast], but both addresses and handlers are visited in reverse order.
func (b *Bus[I, ID]) BroadcastReverse(op func(I)) {
	b.dispatch(Route[ID]{Broadcast: true, Reverse: true}, nil, op)
}

// dispatch routes an event and invokes handlers.
// If bound is not nil, then its handlers are used instead of looking up route.ID.
func (b *Bus[I, ID]) dispatch(route Route[ID], bound *address[I, ID], op func(I)) {
	if op == nil {
		return
	}
	c := b.GetContext(false)
	if c == nil {
		return
	}
	defer b.enter()()
	b.stats.dispatches.Add(1)
	if !c.route(route, op) {
		return
	}
	b.each(c, route, bound, func(s *slot[I, ID]) bool {
		b.stats.handlerCalls.Add(1)
		op(s.handler)
		return true
	})
}

// each visits live handlers for the route without running routers.
func (b *Bus[I, ID]) each(c *Context[I, ID], route Route[ID], bound *address[I, ID], fn func(*slot[I, ID]) bool) bool {
	switch {
	case route.Broadcast:
		return c.reg.eachAddress(route.Reverse, fn)
	case bound != nil:
		return visitSlots(bound.load(), noLimit, route.Reverse, fn)
	default:
		return c.reg.eachHandler(route.ID, route.Reverse, fn)
	}
}

// first invokes call on the first live handler for the route, reporting whether there was one.
func (b *Bus[I, ID]) first(route Route[ID], bound *address[I, ID], call func(I)) bool {
	c := b.GetContext(false)
	if c == nil {
		return false
	}
	defer b.enter()()
	b.stats.dispatches.Add(1)
	var found bool
	b.each(c, route, bound, func(s *slot[I, ID]) bool {
		found = true
		b.stats.handlerCalls.Add(1)
		call(s.handler)
		return false
	})
	return found
}

// all invokes call on every live handler for the route, without running routers.
func (b *Bus[I, ID]) all(route Route[ID], call func(I)) {
	c := b.GetContext(false)
	if c == nil {
		return
	}
	defer b.enter()()
	b.stats.dispatches.Add(1)
	b.each(c, route, nil, func(s *slot[I, ID]) bool {
		b.stats.handlerCalls.Add(1)
		call(s.handler)
		return true
	})
}
