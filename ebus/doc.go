/*
Package ebus provides typed, in-process event buses with synchronous dispatch and an optional deferred queue.

A bus is defined once with [New] and a set of [Traits], which fix how it's addressed, how many handlers an address accepts, and how it's synchronized.
Handlers are values of the bus's interface type, and events are functions that call a method on that interface.

	type TransformEvents interface {
		OnMoved(x, y float64)
	}

	var Transforms = ebus.MustNew(ebus.Traits[TransformEvents, EntityID]{
		Name:       "transform",
		Addressing: ebus.ByID,
		Locking:    ebus.Locked,
	})

	// Somewhere with a handler.
	_ = Transforms.Connect(handler, entity)

	// Somewhere else.
	Transforms.Event(entity, func(h TransformEvents) { h.OnMoved(1, 2) })

Dispatch happens on the calling goroutine.
The handlers an event reaches are fixed when it starts: handlers connected during the event aren't invoked, and handlers disconnected during the event are skipped.
No bus lock is held while handlers run, so handlers can dispatch, connect, and disconnect freely, including disconnecting themselves.

Buses with Traits.EnableEventQueue can defer events and functions with QueueEvent, QueueBroadcast, QueueFunction, and [Bus.QueueCall].
Queued entries run in order when the owner calls [Bus.ExecuteQueuedEvents], usually once per frame or tick.

Misuse, like connecting the same handler to the same address twice, is a contract violation.
It panics unless the program is built with the 'noassert' tag, in which case it's logged and the operation returns an error instead.
*/
package ebus
