package queue

import (
	"fmt"
	"iter"
	"sync"

	"github.com/saylorsolutions/busx/syncx"
)

// Queue is a FIFO queue with pluggable locking.
// By default, it's concurrency-safe. Use [WithLocker] with [syncx.NullMutex] for a queue that's only used from one goroutine.
type Queue[T any] struct {
	mux    syncx.RWLocker
	values []T
	bufLen int
}

type queueConfig struct {
	initialBuffer int
	locker        syncx.RWLocker
}

// Option configures a [Queue] at construction time.
type Option func(conf *queueConfig) error

// InitialBuffer is used to set the initial capacity of the [Queue], which is restored whenever it's drained.
func InitialBuffer(size int) Option {
	return func(conf *queueConfig) error {
		if size < 0 {
			return fmt.Errorf("invalid queue initial buffer size '%d'", size)
		}
		conf.initialBuffer = size
		return nil
	}
}

// WithLocker overrides the default [sync.RWMutex] used to guard the [Queue].
func WithLocker(locker syncx.RWLocker) Option {
	return func(conf *queueConfig) error {
		if locker == nil {
			return fmt.Errorf("nil queue locker")
		}
		conf.locker = locker
		return nil
	}
}

// New creates a new [Queue] with the given options.
func New[T any](opts ...Option) (*Queue[T], error) {
	conf := &queueConfig{}
	for _, opt := range opts {
		if err := opt(conf); err != nil {
			return nil, err
		}
	}
	if conf.locker == nil {
		conf.locker = new(sync.RWMutex)
	}
	return &Queue[T]{
		mux:    conf.locker,
		values: make([]T, 0, conf.initialBuffer),
		bufLen: conf.initialBuffer,
	}, nil
}

// NewQueue creates a concurrency-safe [Queue], optionally with an initial buffer size.
func NewQueue[T any](initialBuffer ...int) *Queue[T] {
	var buf int
	if len(initialBuffer) > 0 && initialBuffer[0] > 0 {
		buf = initialBuffer[0]
	}
	q, _ := New[T](InitialBuffer(buf))
	return q
}

// Len gets the length of the Queue
func (q *Queue[T]) Len() int {
	return syncx.RLockFuncT(q.mux, func() int {
		return len(q.values)
	})
}

// Push will push items to the tail of the Queue, in the order given.
func (q *Queue[T]) Push(val T, others ...T) {
	syncx.LockFunc(q.mux, func() {
		q.values = append(q.values, val)
		q.values = append(q.values, others...)
	})
}

// PushHead will push items to the head of the Queue, keeping their relative order.
// This is useful for returning items taken with [Queue.Drain] that could not be processed.
func (q *Queue[T]) PushHead(vals ...T) {
	if len(vals) == 0 {
		return
	}
	syncx.LockFunc(q.mux, func() {
		merged := make([]T, 0, len(vals)+len(q.values))
		merged = append(merged, vals...)
		q.values = append(merged, q.values...)
	})
}

// Pop will pop an item from the head of the Queue.
// False will be returned if the Queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mux.Lock()
	defer q.mux.Unlock()
	if len(q.values) == 0 {
		var mt T
		return mt, false
	}
	val := q.values[0]
	var mt T
	q.values[0] = mt
	q.values = q.values[1:]
	return val, true
}

// Drain takes every item currently in the Queue, in FIFO order, leaving it empty.
// Items pushed after Drain returns are not included, even if they are pushed while the drained items are being processed.
func (q *Queue[T]) Drain() []T {
	return syncx.LockFuncT(q.mux, func() []T {
		if len(q.values) == 0 {
			return nil
		}
		taken := q.values
		q.values = make([]T, 0, q.bufLen)
		return taken
	})
}

// Clear drops every item currently in the Queue, returning the dropped items.
func (q *Queue[T]) Clear() []T {
	return q.Drain()
}

// All returns an iterator that pops items from the Queue until it's empty, or iteration is stopped.
// Items pushed during iteration will be visited.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			val, ok := q.Pop()
			if !ok {
				return
			}
			if !yield(val) {
				return
			}
		}
	}
}
