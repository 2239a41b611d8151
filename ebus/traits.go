package ebus

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/saylorsolutions/busx/assert"
	"github.com/saylorsolutions/busx/syncx"
)

// AddressPolicy determines how handlers on a bus are addressed.
type AddressPolicy int

const (
	Single         AddressPolicy = iota // Single is a bus with one implicit address, identified by [NullID].
	ByID                                // ByID is a bus where handlers connect to an ID, and addresses are visited in creation order.
	ByIDAndOrdered                      // ByIDAndOrdered is the same as ByID, but addresses are visited in the order given by Traits.IDLess.
)

func (p AddressPolicy) String() string {
	switch p {
	case Single:
		return "single"
	case ByID:
		return "by-id"
	case ByIDAndOrdered:
		return "by-id-ordered"
	default:
		return "unknown"
	}
}

// HandlerPolicy determines how many handlers may connect to an address, and the order in which they're invoked.
type HandlerPolicy int

const (
	Multiple           HandlerPolicy = iota // Multiple allows any number of handlers per address, invoked in connection order.
	MultipleAndOrdered                      // MultipleAndOrdered allows any number of handlers per address, invoked in the order given by Traits.HandlerLess.
	SingleHandler                           // SingleHandler allows one handler per address. Connecting another is rejected.
)

func (p HandlerPolicy) String() string {
	switch p {
	case Multiple:
		return "multiple"
	case MultipleAndOrdered:
		return "multiple-ordered"
	case SingleHandler:
		return "single"
	default:
		return "unknown"
	}
}

// LockPolicy determines how a bus synchronizes connection changes with dispatch.
type LockPolicy int

const (
	// NoLocking performs no synchronization. The bus may only be used from one goroutine at a time.
	NoLocking LockPolicy = iota
	// Locked guards the registry with a [sync.RWMutex].
	// The read lock is only held while an address is resolved, never while handlers run.
	Locked
	// Lockless serializes connection changes, but dispatch takes no lock at all.
	// Dispatch reads handler lists that are published atomically, and a removed handler's memory stays valid until every pass that saw it has finished.
	Lockless
)

func (p LockPolicy) String() string {
	switch p {
	case NoLocking:
		return "none"
	case Locked:
		return "locked"
	case Lockless:
		return "lockless"
	default:
		return "unknown"
	}
}

// QueueLockPolicy determines how the event queue is synchronized.
type QueueLockPolicy int

const (
	QueueLockInherit QueueLockPolicy = iota // QueueLockInherit uses no lock when the bus uses NoLocking, and a mutex otherwise.
	QueueLockNone                           // QueueLockNone performs no synchronization on the queue.
	QueueLockMutex                          // QueueLockMutex always guards the queue with a mutex, preserving submission order across goroutines.
)

// Traits is the static configuration of a bus.
// It's declared once per bus, validated by [New], and never changes afterward.
type Traits[I comparable, ID comparable] struct {
	Name       string
	Addressing AddressPolicy
	Handlers   HandlerPolicy
	Locking    LockPolicy

	IDLess      func(a, b ID) bool // IDLess orders addresses, and is required for ByIDAndOrdered.
	HandlerLess func(a, b I) bool  // HandlerLess orders handlers at an address, and is required for MultipleAndOrdered.

	EnableEventQueue          bool
	QueueingInactiveByDefault bool // Queueing starts out active unless this is set.
	EnableQueuedReferences    bool // Allows QueueCall to capture pointers, maps, slices, channels, and functions.
	QueueLocking              QueueLockPolicy

	// OnConnect is called after a handler has connected to an address.
	// No bus lock is held while it runs, so it may dispatch.
	OnConnect func(b *Bus[I, ID], handler I, id ID)
	// OnDisconnect is called after a handler has been disconnected from an address.
	OnDisconnect func(b *Bus[I, ID], handler I, id ID)

	// Logger defaults to [slog.Default] if not set.
	Logger *slog.Logger
}

// DefaultBusName is used when Traits.Name is empty.
const DefaultBusName = "ebus"

// Validate returns an error wrapping [ErrInvalidTraits] that describes every problem with the Traits.
func (t Traits[I, ID]) Validate() error {
	errs := assert.CollectErrors("; ")
	isNullID := reflect.TypeFor[ID]() == reflect.TypeFor[NullID]()
	switch t.Addressing {
	case Single:
		if !isNullID {
			errs.AddString("single address buses must use NullID as the ID type, got %s", reflect.TypeFor[ID]())
		}
	case ByID, ByIDAndOrdered:
		if isNullID {
			errs.AddString("addressing policy %s requires an ID type other than NullID", t.Addressing)
		}
	default:
		errs.AddString("unknown addressing policy %d", t.Addressing)
	}
	if t.Addressing == ByIDAndOrdered && t.IDLess == nil {
		errs.AddString("addressing policy %s requires IDLess", t.Addressing)
	}
	if t.Addressing != ByIDAndOrdered && t.IDLess != nil {
		errs.AddString("IDLess is only used with addressing policy %s", ByIDAndOrdered)
	}
	switch t.Handlers {
	case Multiple, SingleHandler:
		if t.HandlerLess != nil {
			errs.AddString("HandlerLess is only used with handler policy %s", MultipleAndOrdered)
		}
	case MultipleAndOrdered:
		if t.HandlerLess == nil {
			errs.AddString("handler policy %s requires HandlerLess", t.Handlers)
		}
	default:
		errs.AddString("unknown handler policy %d", t.Handlers)
	}
	if t.Locking < NoLocking || t.Locking > Lockless {
		errs.AddString("unknown lock policy %d", t.Locking)
	}
	if t.QueueLocking < QueueLockInherit || t.QueueLocking > QueueLockMutex {
		errs.AddString("unknown queue lock policy %d", t.QueueLocking)
	}
	if !t.EnableEventQueue {
		if t.QueueingInactiveByDefault {
			errs.AddString("QueueingInactiveByDefault requires EnableEventQueue")
		}
		if t.EnableQueuedReferences {
			errs.AddString("EnableQueuedReferences requires EnableEventQueue")
		}
		if t.QueueLocking != QueueLockInherit {
			errs.AddString("QueueLocking requires EnableEventQueue")
		}
	}
	return errs.Wrap(ErrInvalidTraits)
}

func (t Traits[I, ID]) withDefaults() Traits[I, ID] {
	if len(t.Name) == 0 {
		t.Name = DefaultBusName
	}
	if t.Logger == nil {
		t.Logger = slog.Default()
	}
	return t
}

func (t Traits[I, ID]) registryLock() syncx.RWLocker {
	switch t.Locking {
	case Locked:
		return new(sync.RWMutex)
	case Lockless:
		return syncx.ExclusiveWriter()
	default:
		return syncx.NullMutex{}
	}
}

func (t Traits[I, ID]) queueLock() syncx.RWLocker {
	switch t.QueueLocking {
	case QueueLockNone:
		return syncx.NullMutex{}
	case QueueLockMutex:
		return new(sync.RWMutex)
	default:
		if t.Locking == NoLocking {
			return syncx.NullMutex{}
		}
		return new(sync.RWMutex)
	}
}
