package syncx

import (
	"github.com/stretchr/testify/assert"
	"sync"
	"testing"
)

func TestLockFuncT(t *testing.T) {
	var mux sync.RWMutex
	val := LockFuncT(&mux, func() int {
		return 5
	})
	assert.Equal(t, 5, val)
	assert.True(t, mux.TryLock(), "Lock should have been released")
	mux.Unlock()

	val = RLockFuncT(&mux, func() int {
		return 6
	})
	assert.Equal(t, 6, val)
	assert.True(t, mux.TryLock(), "Read lock should have been released")
	mux.Unlock()
}

func TestNullMutex(t *testing.T) {
	var mux RWLocker = NullMutex{}
	// Re-entrant use must never block.
	mux.Lock()
	mux.Lock()
	mux.RLock()
	mux.RUnlock()
	mux.Unlock()
	mux.Unlock()
}

func TestWriterOnly(t *testing.T) {
	var (
		mux     = ExclusiveWriter()
		counter int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			LockFunc(mux, func() {
				counter++
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, counter)

	// Readers don't wait for writers.
	mux.Lock()
	RLockFunc(mux, func() {
		counter++
	})
	mux.Unlock()
	assert.Equal(t, 11, counter)
}
