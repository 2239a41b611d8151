package pump

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/saylorsolutions/busx/ebus"
	"github.com/saylorsolutions/busx/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDrainer struct {
	name    string
	drains  atomic.Int64
	execute func() int
}

func (d *fakeDrainer) ExecuteQueuedEvents() int {
	d.drains.Add(1)
	if d.execute != nil {
		return d.execute()
	}
	return 0
}

func (d *fakeDrainer) Name() string {
	return d.name
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNew_Config(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = New(time.Second, WithClock(nil))
	assert.ErrorIs(t, err, ErrConfig)
	_, err = New(time.Second, WithLogger(nil))
	assert.ErrorIs(t, err, ErrConfig)

	p, err := New(time.Second, quiet())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Tick(), "No drainers")
	assert.Equal(t, uint64(1), p.Ticks())
}

func TestPump_Tick_Order(t *testing.T) {
	var order []string
	drainer := func(name string, executed int) *fakeDrainer {
		return &fakeDrainer{name: name, execute: func() int {
			order = append(order, name)
			return executed
		}}
	}
	p, err := New(time.Second, quiet())
	require.NoError(t, err)
	p.Add(drainer("a", 1), drainer("b", 0))
	p.Add(drainer("c", 2))

	assert.Equal(t, 3, p.Tick())
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestPump_Tick_Bus(t *testing.T) {
	type handler interface {
		Ping()
	}
	bus, err := ebus.New(ebus.Traits[handler, ebus.NullID]{
		Name:             "pumped",
		EnableEventQueue: true,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	defer bus.Teardown()

	abs := slogx.NewAbsorber(slog.LevelDebug)
	p, err := New(time.Millisecond, WithLogger(slog.New(abs)))
	require.NoError(t, err)
	p.Add(bus)

	var ran int
	require.NoError(t, bus.QueueFunction(func() { ran++ }))
	require.NoError(t, bus.QueueFunction(func() { ran++ }))
	assert.Equal(t, 2, p.Tick())
	assert.Equal(t, 0, p.Tick())
	assert.Equal(t, 2, ran)

	records := abs.Records()
	require.Len(t, records, 1, "Only ticks that did something are logged")
	assert.Equal(t, "pumped", records[0].Attrs["bus"].String())
	assert.Equal(t, int64(2), records[0].Attrs["executed"].Int64())
}

func TestPump_Run(t *testing.T) {
	var (
		mock    = clock.NewMock()
		drainer = &fakeDrainer{name: "mock"}
		done    = make(chan error, 1)
	)
	p, err := New(time.Second, WithClock(mock), quiet())
	require.NoError(t, err)
	p.Add(drainer)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		done <- p.Run(ctx)
	}()
	assert.Eventually(t, func() bool {
		mock.Add(time.Second)
		return drainer.drains.Load() >= 3
	}, 5*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, p.Ticks(), uint64(3))
	assert.ErrorIs(t, p.Run(ctx), ErrRunning)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run should return when the context is cancelled")
	}
	assert.False(t, p.running.Load())
}

func TestPump_Run_Panic(t *testing.T) {
	var (
		mock    = clock.NewMock()
		drainer = &fakeDrainer{name: "broken", execute: func() int {
			panic("queued failure")
		}}
		done = make(chan error, 1)
	)
	abs := slogx.NewAbsorber(slog.LevelInfo)
	p, err := New(time.Second, WithClock(mock), WithLogger(slog.New(abs)))
	require.NoError(t, err)
	p.Add(drainer)

	go func() {
		done <- p.Run(context.Background())
	}()
	var runErr error
	assert.Eventually(t, func() bool {
		mock.Add(time.Second)
		select {
		case runErr = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, time.Millisecond)
	assert.ErrorIs(t, runErr, ErrPanic)
	assert.Contains(t, runErr.Error(), "queued failure")
	assert.Equal(t, 1, abs.Count(slog.LevelError))
}
