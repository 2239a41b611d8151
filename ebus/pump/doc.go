// Package pump provides a frame loop that executes the deferred queues of one or more buses at a fixed interval.
//
// Buses never start goroutines themselves, so something has to call ExecuteQueuedEvents.
// Applications that already have a main loop should call it there, and everything else can use a [Pump].
package pump
