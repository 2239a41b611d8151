package ebus

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/saylorsolutions/busx/structures/bidimap"
	"github.com/saylorsolutions/busx/syncx"
)

// noLimit visits every slot regardless of when it was connected.
const noLimit uint64 = math.MaxUint64

// NullID is the ID type of buses with the [Single] address policy.
// Every handler on such a bus is connected to NullID{}.
type NullID struct{}

// slot is one handler's connection to one address.
// A slot is never reused: reconnecting creates a new slot, so a pass that captured the old one only sees its tombstone.
type slot[I comparable, ID comparable] struct {
	handler I
	addr    *address[I, ID]
	seq     uint64
	removed atomic.Bool
}

func (s *slot[I, ID]) live(limit uint64) bool {
	return s.seq <= limit && !s.removed.Load()
}

type address[I comparable, ID comparable] struct {
	id    ID
	slots atomic.Pointer[[]*slot[I, ID]]
	refs  int // Guarded by the registry write lock.
}

// load returns the current handler list.
// The returned slice is never modified, writers publish a new one instead.
func (a *address[I, ID]) load() []*slot[I, ID] {
	if p := a.slots.Load(); p != nil {
		return *p
	}
	return nil
}

func (a *address[I, ID]) indexOf(handler I) int {
	return slices.IndexFunc(a.load(), func(s *slot[I, ID]) bool {
		return s.handler == handler
	})
}

type index[I comparable, ID comparable] struct {
	byID  map[ID]*address[I, ID]
	order []*address[I, ID]
}

// registry maps IDs to addresses, and handlers to the IDs they're connected to.
// Writers hold mux, and publish immutable copies of the index and handler lists.
// Readers only need the read lock to get a consistent view of both, and with the lockless policy they need nothing at all.
type registry[I comparable, ID comparable] struct {
	mux         syncx.RWLocker
	handlers    HandlerPolicy
	idLess      func(a, b ID) bool
	handlerLess func(a, b I) bool

	seq   atomic.Uint64
	idx   atomic.Pointer[index[I, ID]]
	conns *bidimap.MultiMap[I, ID]
}

func newRegistry[I comparable, ID comparable](traits Traits[I, ID]) *registry[I, ID] {
	r := &registry[I, ID]{
		mux:         traits.registryLock(),
		handlers:    traits.Handlers,
		idLess:      traits.IDLess,
		handlerLess: traits.HandlerLess,
		conns:       bidimap.NewMulti[I, ID](),
	}
	r.idx.Store(&index[I, ID]{byID: map[ID]*address[I, ID]{}})
	return r
}

// getOrCreate must be called with the write lock held.
func (r *registry[I, ID]) getOrCreate(id ID) *address[I, ID] {
	idx := r.idx.Load()
	if a, ok := idx.byID[id]; ok {
		return a
	}
	a := &address[I, ID]{id: id}
	next := &index[I, ID]{
		byID:  maps.Clone(idx.byID),
		order: make([]*address[I, ID], 0, len(idx.order)+1),
	}
	next.byID[id] = a
	pos := len(idx.order)
	if r.idLess != nil {
		pos = sort.Search(len(idx.order), func(i int) bool {
			return r.idLess(id, idx.order[i].id)
		})
	}
	next.order = append(next.order, idx.order[:pos]...)
	next.order = append(next.order, a)
	next.order = append(next.order, idx.order[pos:]...)
	r.idx.Store(next)
	return a
}

// removeIfUnused must be called with the write lock held.
func (r *registry[I, ID]) removeIfUnused(a *address[I, ID]) {
	if a.refs > 0 || len(a.load()) > 0 {
		return
	}
	idx := r.idx.Load()
	if idx.byID[a.id] != a {
		return
	}
	next := &index[I, ID]{
		byID: maps.Clone(idx.byID),
		order: slices.DeleteFunc(slices.Clone(idx.order), func(other *address[I, ID]) bool {
			return other == a
		}),
	}
	delete(next.byID, a.id)
	r.idx.Store(next)
}

func (r *registry[I, ID]) connect(handler I, id ID) error {
	return syncx.LockFuncT(r.mux, func() error {
		a := r.getOrCreate(id)
		current := a.load()
		if a.indexOf(handler) >= 0 {
			return fmt.Errorf("%w: %v at address %v", ErrAlreadyConnected, handler, id)
		}
		if r.handlers == SingleHandler && len(current) > 0 {
			return fmt.Errorf("%w: address %v", ErrAddressOccupied, id)
		}
		s := &slot[I, ID]{handler: handler, addr: a, seq: r.seq.Add(1)}
		pos := len(current)
		if r.handlerLess != nil {
			// Equal handlers keep connection order.
			pos = sort.Search(len(current), func(i int) bool {
				return r.handlerLess(handler, current[i].handler)
			})
		}
		next := make([]*slot[I, ID], 0, len(current)+1)
		next = append(next, current[:pos]...)
		next = append(next, s)
		next = append(next, current[pos:]...)
		r.conns.Add(handler, id)
		a.slots.Store(&next)
		return nil
	})
}

// disconnect must be called with the write lock held.
func (r *registry[I, ID]) disconnect(handler I, id ID) bool {
	a, ok := r.idx.Load().byID[id]
	if !ok {
		return false
	}
	i := a.indexOf(handler)
	if i < 0 {
		return false
	}
	current := a.load()
	current[i].removed.Store(true)
	next := slices.Delete(slices.Clone(current), i, i+1)
	a.slots.Store(&next)
	r.conns.Remove(handler, id)
	r.removeIfUnused(a)
	return true
}

func (r *registry[I, ID]) disconnectID(handler I, id ID) bool {
	return syncx.LockFuncT(r.mux, func() bool {
		return r.disconnect(handler, id)
	})
}

// disconnectAll returns the IDs the handler was disconnected from.
func (r *registry[I, ID]) disconnectAll(handler I) []ID {
	return syncx.LockFuncT(r.mux, func() []ID {
		ids := r.conns.GetValues(handler)
		removed := ids[:0]
		for _, id := range ids {
			if r.disconnect(handler, id) {
				removed = append(removed, id)
			}
		}
		return removed
	})
}

func (r *registry[I, ID]) bind(id ID) *address[I, ID] {
	return syncx.LockFuncT(r.mux, func() *address[I, ID] {
		a := r.getOrCreate(id)
		a.refs++
		return a
	})
}

func (r *registry[I, ID]) release(a *address[I, ID]) {
	syncx.LockFunc(r.mux, func() {
		a.refs--
		r.removeIfUnused(a)
	})
}

// clear tombstones every slot, so passes still running skip the rest of their snapshot.
func (r *registry[I, ID]) clear() {
	syncx.LockFunc(r.mux, func() {
		for _, a := range r.idx.Load().order {
			for _, s := range a.load() {
				s.removed.Store(true)
			}
			empty := []*slot[I, ID]{}
			a.slots.Store(&empty)
		}
		r.conns.Clear()
		r.idx.Store(&index[I, ID]{byID: map[ID]*address[I, ID]{}})
	})
}

func (r *registry[I, ID]) lookup(id ID) []*slot[I, ID] {
	return syncx.RLockFuncT(r.mux, func() []*slot[I, ID] {
		if a, ok := r.idx.Load().byID[id]; ok {
			return a.load()
		}
		return nil
	})
}

// snapshot returns the addresses that exist, and the newest connection sequence, as of now.
// Slots connected after the snapshot have a greater sequence, so a pass can skip them even when it loads an address's handler list later.
func (r *registry[I, ID]) snapshot() ([]*address[I, ID], uint64) {
	var (
		order []*address[I, ID]
		limit uint64
	)
	syncx.RLockFunc(r.mux, func() {
		order = r.idx.Load().order
		limit = r.seq.Load()
	})
	return order, limit
}

// eachHandler visits the live handlers at id, as of the start of the call.
// False is returned if fn stopped the iteration.
func (r *registry[I, ID]) eachHandler(id ID, reverse bool, fn func(*slot[I, ID]) bool) bool {
	return visitSlots(r.lookup(id), noLimit, reverse, fn)
}

// eachAddress visits the live handlers at every address, as of the start of the call.
func (r *registry[I, ID]) eachAddress(reverse bool, fn func(*slot[I, ID]) bool) bool {
	order, limit := r.snapshot()
	if reverse {
		for i := len(order) - 1; i >= 0; i-- {
			if !visitSlots(order[i].load(), limit, true, fn) {
				return false
			}
		}
		return true
	}
	for _, a := range order {
		if !visitSlots(a.load(), limit, false, fn) {
			return false
		}
	}
	return true
}

func visitSlots[I comparable, ID comparable](slots []*slot[I, ID], limit uint64, reverse bool, fn func(*slot[I, ID]) bool) bool {
	if reverse {
		for i := len(slots) - 1; i >= 0; i-- {
			if s := slots[i]; s.live(limit) && !fn(s) {
				return false
			}
		}
		return true
	}
	for _, s := range slots {
		if s.live(limit) && !fn(s) {
			return false
		}
	}
	return true
}

func (r *registry[I, ID]) count(id ID) int {
	var n int
	visitSlots(r.lookup(id), noLimit, false, func(*slot[I, ID]) bool {
		n++
		return true
	})
	return n
}

func (r *registry[I, ID]) total() int {
	var n int
	r.eachAddress(false, func(*slot[I, ID]) bool {
		n++
		return true
	})
	return n
}
