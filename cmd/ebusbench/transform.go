package main

import (
	"sync/atomic"

	"github.com/saylorsolutions/busx/ebus"
)

type EntityID uint32

// TransformEvents are sent to the components attached to an entity when it moves.
type TransformEvents interface {
	OnMoved(dx, dy float64)
	OnScaled(factor float64)
}

type TransformBus = ebus.Bus[TransformEvents, EntityID]

func newTransformBus(conf config, traits ebus.Traits[TransformEvents, EntityID]) (*TransformBus, error) {
	traits.Name = "transform"
	traits.Addressing = ebus.ByID
	traits.Locking = conf.lockPolicy()
	traits.EnableEventQueue = true
	// Metrics are collected from the HTTP server goroutine while the bench runs.
	traits.QueueLocking = ebus.QueueLockMutex
	return ebus.New(traits)
}

// component counts the events it receives.
// It's safe to dispatch to from several goroutines.
type component struct {
	entity EntityID
	moves  atomic.Int64
	scales atomic.Int64
}

func (c *component) OnMoved(float64, float64) {
	c.moves.Add(1)
}

func (c *component) OnScaled(float64) {
	c.scales.Add(1)
}

func moved(h TransformEvents) {
	h.OnMoved(1, 1)
}

func scaled(h TransformEvents) {
	h.OnScaled(2)
}
