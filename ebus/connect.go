package ebus

// Connect connects a handler to the address identified by id, creating the address if needed.
// Buses with the [Single] address policy use NullID{} as the id.
//
// Handlers are identified by equality, so the dynamic type of a handler must be comparable.
// Pointer receivers are the usual way to satisfy this.
// A handler may be connected to any number of addresses, but only once to each.
//
// Connecting the same handler to the same address twice, or connecting a second handler to an address of a [SingleHandler] bus, is a contract violation.
// Connections are left unchanged in that case, and [ErrAlreadyConnected] or [ErrAddressOccupied] is returned if assertions are disabled.
//
// A Connect that overlaps a [Bus.Teardown] connects to the fresh context that follows it.
func (b *Bus[I, ID]) Connect(handler I, id ID) error {
	if err := checkHandler(handler); err != nil {
		return b.violation("connect", err)
	}
	var (
		c   *Context[I, ID]
		err error
	)
	for {
		c = b.GetOrCreateContext()
		err = c.reg.connect(handler, id)
		// Teardown detaches the context before clearing it, so a context that's still current wasn't released first.
		if b.ctx.Load() == c {
			break
		}
	}
	if err != nil {
		return b.violation("connect", err, "id", id)
	}
	b.stats.connects.Add(1)
	c.log.Debug("Handler connected", "id", id)
	if b.traits.OnConnect != nil {
		b.traits.OnConnect(b, handler, id)
	}
	return nil
}

// Disconnect disconnects a handler from every address it's connected to.
// False is returned if the handler wasn't connected to anything.
//
// It's safe to call this from within the handler while it's being invoked.
// The handler won't be invoked again by any dispatch that hasn't already started invoking it.
func (b *Bus[I, ID]) Disconnect(handler I) bool {
	c := b.GetContext(false)
	if c == nil || checkHandler(handler) != nil {
		return false
	}
	ids := c.reg.disconnectAll(handler)
	for _, id := range ids {
		b.disconnected(c, handler, id)
	}
	return len(ids) > 0
}

// DisconnectID disconnects a handler from one address, leaving any other connections in place.
// False is returned if the handler wasn't connected to that address.
func (b *Bus[I, ID]) DisconnectID(handler I, id ID) bool {
	c := b.GetContext(false)
	if c == nil || checkHandler(handler) != nil {
		return false
	}
	if !c.reg.disconnectID(handler, id) {
		return false
	}
	b.disconnected(c, handler, id)
	return true
}

func (b *Bus[I, ID]) disconnected(c *Context[I, ID], handler I, id ID) {
	b.stats.disconnects.Add(1)
	c.log.Debug("Handler disconnected", "id", id)
	if b.traits.OnDisconnect != nil {
		b.traits.OnDisconnect(b, handler, id)
	}
}

// IsConnected reports whether the handler is connected to any address.
func (b *Bus[I, ID]) IsConnected(handler I) bool {
	c := b.GetContext(false)
	if c == nil || checkHandler(handler) != nil {
		return false
	}
	return c.reg.conns.HasKey(handler)
}

// IsConnectedID reports whether the handler is connected to the address identified by id.
func (b *Bus[I, ID]) IsConnectedID(handler I, id ID) bool {
	c := b.GetContext(false)
	if c == nil || checkHandler(handler) != nil {
		return false
	}
	return c.reg.conns.Has(handler, id)
}

// ConnectedIDs returns the IDs of every address the handler is connected to, in no particular order.
func (b *Bus[I, ID]) ConnectedIDs(handler I) []ID {
	c := b.GetContext(false)
	if c == nil || checkHandler(handler) != nil {
		return nil
	}
	return c.reg.conns.GetValues(handler)
}
