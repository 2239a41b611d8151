package ebus

import "iter"

// EnumerateHandlers calls visit with each handler at the address identified by id, in handler order, until visit returns false.
// The same snapshot rules as [Bus.Event] apply.
func (b *Bus[I, ID]) EnumerateHandlers(id ID, visit func(I) bool) {
	c := b.GetContext(false)
	if c == nil {
		return
	}
	defer b.enter()()
	c.reg.eachHandler(id, false, func(s *slot[I, ID]) bool {
		return visit(s.handler)
	})
}

// EnumerateAll calls visit with each handler on the bus and the ID it's connected to, in broadcast order, until visit returns false.
func (b *Bus[I, ID]) EnumerateAll(visit func(ID, I) bool) {
	c := b.GetContext(false)
	if c == nil {
		return
	}
	defer b.enter()()
	c.reg.eachAddress(false, func(s *slot[I, ID]) bool {
		return visit(s.addr.id, s.handler)
	})
}

// Handlers returns an iterator over the handlers at the address identified by id.
func (b *Bus[I, ID]) Handlers(id ID) iter.Seq[I] {
	return func(yield func(I) bool) {
		b.EnumerateHandlers(id, yield)
	}
}

// All returns an iterator over every handler on the bus, and the ID it's connected to.
func (b *Bus[I, ID]) All() iter.Seq2[ID, I] {
	return b.EnumerateAll
}

// FindFirstHandler returns the first handler at the address identified by id.
func (b *Bus[I, ID]) FindFirstHandler(id ID) (I, bool) {
	for h := range b.Handlers(id) {
		return h, true
	}
	var zero I
	return zero, false
}

// HandlerCount returns the number of handlers connected to the address identified by id.
func (b *Bus[I, ID]) HandlerCount(id ID) int {
	c := b.GetContext(false)
	if c == nil {
		return 0
	}
	return c.reg.count(id)
}

// TotalHandlers returns the number of connections across every address.
// A handler connected to two addresses counts twice.
func (b *Bus[I, ID]) TotalHandlers() int {
	c := b.GetContext(false)
	if c == nil {
		return 0
	}
	return c.reg.total()
}

// HasHandlers reports whether any handler is connected to the bus.
func (b *Bus[I, ID]) HasHandlers() bool {
	c := b.GetContext(false)
	if c == nil {
		return false
	}
	return c.reg.conns.KeyLen() > 0
}

// HasHandlersID reports whether any handler is connected to the address identified by id.
func (b *Bus[I, ID]) HasHandlersID(id ID) bool {
	return b.HandlerCount(id) > 0
}
