package ebus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls atomic.Int64
}

func (c *counter) Record(string) {
	c.calls.Add(1)
}

func (c *counter) Value() int {
	return int(c.calls.Load())
}

func TestBus_Concurrent(t *testing.T) {
	for _, policy := range []LockPolicy{Locked, Lockless} {
		t.Run(policy.String(), func(t *testing.T) {
			traits := byIDTraits()
			traits.Locking = policy
			bus, _ := newTestBus(t, traits)

			const (
				workers = 8
				rounds  = 200
			)
			var (
				stable = new(counter)
				wg     sync.WaitGroup
			)
			require.NoError(t, bus.Connect(stable, 0))
			for w := 0; w < workers; w++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					h := new(counter)
					for i := 0; i < rounds; i++ {
						id := w*rounds + i + 1
						assert.NoError(t, bus.Connect(h, id))
						if i%2 == 0 {
							assert.True(t, bus.DisconnectID(h, id))
						}
					}
					bus.Disconnect(h)
				}()
				go func() {
					defer wg.Done()
					for i := 0; i < rounds; i++ {
						bus.Event(0, record("e"))
						bus.Broadcast(record("b"))
						bus.EnumerateAll(func(int, recorder) bool {
							return true
						})
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int64(workers*rounds*2), stable.calls.Load())
			assert.Equal(t, 1, bus.TotalHandlers())
			assert.False(t, bus.IsInDispatch())
		})
	}
}

func TestBus_Concurrent_Queue(t *testing.T) {
	traits := byIDTraits()
	traits.EnableEventQueue = true
	traits.QueueLocking = QueueLockMutex
	var (
		bus, _ = newTestBus(t, traits)
		h      = new(counter)
		wg     sync.WaitGroup
		done   = make(chan struct{})
		ran    atomic.Int64
	)
	require.NoError(t, bus.Connect(h, 1))

	const producers, events = 4, 250
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < events; i++ {
				assert.NoError(t, bus.QueueEvent(1, record("q")))
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	// A single consumer pumps while producers are still queueing.
	for {
		select {
		case <-done:
			ran.Add(int64(bus.ExecuteQueuedEvents()))
			assert.Equal(t, int64(producers*events), ran.Load())
			assert.Equal(t, int64(producers*events), h.calls.Load())
			return
		default:
			ran.Add(int64(bus.ExecuteQueuedEvents()))
		}
	}
}
