package ebus

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"testing"

	xassert "github.com/saylorsolutions/busx/assert"
	"github.com/saylorsolutions/busx/slogx"
	"github.com/stretchr/testify/require"
)

// recorder is the handler interface used by most tests.
type recorder interface {
	Record(tag string)
	Value() int
}

var _ recorder = (*testHandler)(nil)

type testHandler struct {
	name    string
	value   int
	journal *journal
	onEvent func(h *testHandler)
}

func newHandler(name string, j *journal) *testHandler {
	return &testHandler{name: name, journal: j}
}

func (h *testHandler) Record(tag string) {
	h.journal.add(fmt.Sprintf("%s:%s", h.name, tag))
	if h.onEvent != nil {
		h.onEvent(h)
	}
}

func (h *testHandler) Value() int {
	return h.value
}

// journal is a concurrency safe log of what happened during a test.
type journal struct {
	mux     sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mux.Lock()
	defer j.mux.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) get() []string {
	j.mux.Lock()
	defer j.mux.Unlock()
	return slices.Clone(j.entries)
}

func (j *journal) reset() {
	j.mux.Lock()
	defer j.mux.Unlock()
	j.entries = nil
}

func record(tag string) func(recorder) {
	return func(h recorder) {
		h.Record(tag)
	}
}

// newTestBus creates a bus that logs to an absorber, and is torn down when the test ends.
func newTestBus[ID comparable](t *testing.T, traits Traits[recorder, ID]) (*Bus[recorder, ID], *slogx.Absorber) {
	t.Helper()
	abs := slogx.NewAbsorber(slog.LevelDebug)
	traits.Logger = slog.New(abs)
	if len(traits.Name) == 0 {
		traits.Name = t.Name()
	}
	bus, err := New(traits)
	require.NoError(t, err)
	t.Cleanup(bus.Teardown)
	return bus, abs
}

func byIDTraits() Traits[recorder, int] {
	return Traits[recorder, int]{
		Addressing: ByID,
		Locking:    Locked,
	}
}

func singleTraits() Traits[recorder, NullID] {
	return Traits[recorder, NullID]{
		Addressing:       Single,
		EnableEventQueue: true,
	}
}

// withoutAssertions lets a test observe the errors returned for contract violations instead of panicking.
func withoutAssertions(t *testing.T) {
	t.Helper()
	xassert.Disable()
	t.Cleanup(xassert.Enable)
}
