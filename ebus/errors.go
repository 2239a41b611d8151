package ebus

import "errors"

var (
	ErrInvalidTraits    = errors.New("invalid bus traits")
	ErrInvalidHandler   = errors.New("invalid handler")
	ErrAlreadyConnected = errors.New("handler already connected")
	ErrAddressOccupied  = errors.New("address already has a handler")
	ErrQueueDisabled    = errors.New("event queue is not enabled for this bus")
	ErrQueueInactive    = errors.New("function queueing is not active")
	ErrQueuedReference  = errors.New("queued calls cannot capture references")
	ErrInvalidCall      = errors.New("invalid queued call")
	ErrNoHandler        = errors.New("no handler found")
	ErrQueueCleared     = errors.New("queued event was cleared before it executed")
)
