package ebus

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/saylorsolutions/busx/syncx"
)

// RouteDecision is returned by a [Router] to control what happens to an event after it's been routed.
type RouteDecision int

const (
	RouteContinue     RouteDecision = iota // RouteContinue lets the event continue to the next router and then the handlers.
	RouteSkipHandlers                      // RouteSkipHandlers stops the event from reaching handlers, but later routers still see it.
	RouteSkipAll                           // RouteSkipAll stops the event from reaching later routers and handlers.
)

// Route describes an event being routed.
type Route[ID comparable] struct {
	ID        ID   // ID is the target address, and is the zero value for broadcasts.
	Broadcast bool // Broadcast is true if the event targets every address.
	Reverse   bool // Reverse is true if handlers will be invoked in reverse order.
	Queued    bool // Queued is true if the event is being executed from the event queue.
}

// Router intercepts events before they reach handlers.
// A router may invoke op on handlers of its own choosing, observe the event, or stop it.
//
// Routers apply to Event, Broadcast, and their reverse and queued forms.
// Result functions like [EventResult] bypass routers.
type Router[I comparable, ID comparable] interface {
	Route(route Route[ID], op func(I)) RouteDecision
}

// RouterFunc is a function that implements [Router].
type RouterFunc[I comparable, ID comparable] func(route Route[ID], op func(I)) RouteDecision

func (f RouterFunc[I, ID]) Route(route Route[ID], op func(I)) RouteDecision {
	return f(route, op)
}

type routerEntry[I comparable, ID comparable] struct {
	router  Router[I, ID]
	order   int
	removed atomic.Bool
}

// ConnectRouter adds a [Router] to the bus.
// Routers run in ascending order, and routers with the same order run in the order they were connected.
// The returned function disconnects the router, and may be called more than once.
func (b *Bus[I, ID]) ConnectRouter(router Router[I, ID], order int) (disconnect func()) {
	if router == nil {
		_ = b.violation("connect router", ErrInvalidHandler)
		return func() {}
	}
	c := b.GetOrCreateContext()
	entry := &routerEntry[I, ID]{router: router, order: order}
	syncx.LockFunc(c.reg.mux, func() {
		var current []*routerEntry[I, ID]
		if p := c.routers.Load(); p != nil {
			current = *p
		}
		pos, _ := slices.BinarySearchFunc(current, order+1, func(e *routerEntry[I, ID], target int) int {
			if e.order < target {
				return -1
			}
			return 1
		})
		next := slices.Insert(slices.Clone(current), pos, entry)
		c.routers.Store(&next)
	})
	var once sync.Once
	return func() {
		once.Do(func() {
			entry.removed.Store(true)
			syncx.LockFunc(c.reg.mux, func() {
				p := c.routers.Load()
				if p == nil {
					return
				}
				next := slices.DeleteFunc(slices.Clone(*p), func(e *routerEntry[I, ID]) bool {
					return e == entry
				})
				c.routers.Store(&next)
			})
		})
	}
}

// route reports whether the event should reach handlers.
func (c *Context[I, ID]) route(route Route[ID], op func(I)) bool {
	p := c.routers.Load()
	if p == nil {
		return true
	}
	deliver := true
	for _, entry := range *p {
		if entry.removed.Load() {
			continue
		}
		switch entry.router.Route(route, op) {
		case RouteSkipHandlers:
			deliver = false
		case RouteSkipAll:
			return false
		default:
		}
	}
	return deliver
}
