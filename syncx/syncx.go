package syncx

import "sync"

func LockFunc(mux sync.Locker, fn func()) {
	mux.Lock()
	defer mux.Unlock()
	fn()
}

func LockFuncT[T any](mux sync.Locker, fn func() T) T {
	mux.Lock()
	defer mux.Unlock()
	return fn()
}

func LockFuncTErr[T any](mux sync.Locker, fn func() (T, error)) (T, error) {
	mux.Lock()
	defer mux.Unlock()
	return fn()
}

type RLocker interface {
	RLock()
	RUnlock()
}

func RLockFunc(mux RLocker, fn func()) {
	mux.RLock()
	defer mux.RUnlock()
	fn()
}

func RLockFuncT[T any](mux RLocker, fn func() T) T {
	mux.RLock()
	defer mux.RUnlock()
	return fn()
}

func RLockFuncTErr[T any](mux RLocker, fn func() (T, error)) (T, error) {
	mux.RLock()
	defer mux.RUnlock()
	return fn()
}

// RWLocker is the full read/write locking interface, as implemented by [sync.RWMutex].
type RWLocker interface {
	sync.Locker
	RLocker
}

var (
	_ RWLocker = (*sync.RWMutex)(nil)
	_ RWLocker = NullMutex{}
	_ RWLocker = WriterOnly{}
)

// NullMutex satisfies [RWLocker] without synchronizing anything.
// It's used where a structure is only ever accessed from one goroutine, so the locking calls can stay in place.
type NullMutex struct{}

func (NullMutex) Lock()    {}
func (NullMutex) Unlock()  {}
func (NullMutex) RLock()   {}
func (NullMutex) RUnlock() {}

// WriterOnly adapts a [sync.Locker] into an [RWLocker] where only writers are serialized.
// Readers never block, so they must only read state that writers publish atomically.
type WriterOnly struct {
	sync.Locker
}

// ExclusiveWriter creates a [WriterOnly] around a new [sync.Mutex].
func ExclusiveWriter() WriterOnly {
	return WriterOnly{Locker: new(sync.Mutex)}
}

func (WriterOnly) RLock()   {}
func (WriterOnly) RUnlock() {}
