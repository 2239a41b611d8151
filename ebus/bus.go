package ebus

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/saylorsolutions/busx/assert"
	"github.com/saylorsolutions/busx/syncx"
)

// Bus is a typed event bus.
// Handlers of interface type I connect to addresses identified by ID, and are invoked synchronously when an event is dispatched to their address.
//
// A Bus is defined once with [New], and its [Context] holding connections and queued events is created lazily on first use.
// All methods are safe to call on a bus that has no context yet, and operations that only read state won't create one.
type Bus[I comparable, ID comparable] struct {
	traits Traits[I, ID]
	log    *slog.Logger

	ctxMux sync.Mutex
	ctx    atomic.Pointer[Context[I, ID]]

	dispatching atomic.Int64
	stats       counters
}

// New validates the given [Traits] and defines a new [Bus] with them.
func New[I comparable, ID comparable](traits Traits[I, ID]) (*Bus[I, ID], error) {
	if err := traits.Validate(); err != nil {
		return nil, err
	}
	traits = traits.withDefaults()
	return &Bus[I, ID]{
		traits: traits,
		log: traits.Logger.With(
			"bus", traits.Name,
		),
	}, nil
}

// MustNew is the same as [New], but panics if the [Traits] are invalid.
// It's intended for package level bus definitions.
func MustNew[I comparable, ID comparable](traits Traits[I, ID]) *Bus[I, ID] {
	b, err := New(traits)
	if err != nil {
		panic(err)
	}
	return b
}

// Name returns the name of the bus given in its [Traits].
func (b *Bus[I, ID]) Name() string {
	return b.traits.Name
}

// Traits returns a copy of the [Traits] the bus was defined with, including defaults.
func (b *Bus[I, ID]) Traits() Traits[I, ID] {
	return b.traits
}

// GetContext returns the bus [Context].
// If the context doesn't exist yet, then it's created only if allowCreate is true, and nil is returned otherwise.
func (b *Bus[I, ID]) GetContext(allowCreate bool) *Context[I, ID] {
	if c := b.ctx.Load(); c != nil || !allowCreate {
		return c
	}
	return syncx.LockFuncT(&b.ctxMux, func() *Context[I, ID] {
		if c := b.ctx.Load(); c != nil {
			return c
		}
		c := newContext(b)
		b.ctx.Store(c)
		c.log.Debug("Bus context created")
		return c
	})
}

// GetOrCreateContext returns the bus [Context], creating it if needed.
// Concurrent callers will always get the same [Context].
func (b *Bus[I, ID]) GetOrCreateContext() *Context[I, ID] {
	return b.GetContext(true)
}

// Teardown releases the bus [Context].
// Handlers are forgotten without being notified, queued events are dropped, and routers are removed.
// Dispatches that are already running finish with what they captured when they started.
// The next operation that needs a context will create a fresh one.
func (b *Bus[I, ID]) Teardown() {
	c := syncx.LockFuncT(&b.ctxMux, func() *Context[I, ID] {
		return b.ctx.Swap(nil)
	})
	if c == nil {
		return
	}
	b.stats.queueCleared.Add(uint64(c.close()))
}

// IsInDispatch reports whether any dispatch on this bus is currently running, from any goroutine.
func (b *Bus[I, ID]) IsInDispatch() bool {
	return b.dispatching.Load() > 0
}

func (b *Bus[I, ID]) enter() func() {
	b.dispatching.Add(1)
	return b.exit
}

func (b *Bus[I, ID]) exit() {
	b.dispatching.Add(-1)
}

// violation reports misuse of the bus.
// Builds with assertions enabled panic, otherwise the error is logged and returned so the call can be ignored.
func (b *Bus[I, ID]) violation(op string, err error, attrs ...any) error {
	b.log.Error("Bus contract violation", append([]any{"op", op, "error", err}, attrs...)...)
	assert.NoError(b.traits.Name+" "+op, err)
	return err
}

func checkHandler[I comparable](handler I) error {
	v := any(handler)
	if v == nil {
		return fmt.Errorf("%w: nil handler", ErrInvalidHandler)
	}
	rv := reflect.ValueOf(v)
	// A comparable struct type may still hold an uncomparable value in an interface field.
	if !rv.Comparable() {
		return fmt.Errorf("%w: handler %T is not comparable", ErrInvalidHandler, v)
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return fmt.Errorf("%w: nil %T", ErrInvalidHandler, v)
		}
	default:
	}
	return nil
}
