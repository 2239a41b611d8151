package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/saylorsolutions/busx/contextx"
	"github.com/saylorsolutions/busx/ebus"
	"github.com/saylorsolutions/busx/ebus/pump"
	"golang.org/x/sync/errgroup"
)

// checkEvery is how many events are dispatched between cancellation checks.
const checkEvery = 1024

type phaseResult struct {
	Phase        string        `json:"phase"`
	Events       int           `json:"events"`
	HandlerCalls uint64        `json:"handler_calls"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	PerEvent     time.Duration `json:"per_event_ns"`
	Skipped      string        `json:"skipped,omitempty"`
}

type bench struct {
	conf       config
	log        *slog.Logger
	bus        *TransformBus
	components []*component
}

func newBench(conf config, log *slog.Logger) (*bench, error) {
	bus, err := newTransformBus(conf, ebus.Traits[TransformEvents, EntityID]{
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	b := &bench{
		conf: conf,
		log:  log.With("locking", conf.Locking),
		bus:  bus,
	}
	for i := 0; i < conf.Handlers; i++ {
		c := &component{entity: EntityID(i % conf.IDs)}
		if err := bus.Connect(c, c.entity); err != nil {
			bus.Teardown()
			return nil, fmt.Errorf("failed to connect component %d: %w", i, err)
		}
		b.components = append(b.components, c)
	}
	return b, nil
}

func (b *bench) close() {
	b.bus.Teardown()
}

func (b *bench) run(ctx context.Context) ([]phaseResult, error) {
	phases := map[string]func(context.Context) (phaseResult, error){
		phaseDispatch: b.dispatch,
		phaseQueue:    b.queue,
		phaseThrash:   b.thrash,
	}
	results := make([]phaseResult, 0, len(b.conf.Phases))
	for _, name := range b.conf.Phases {
		if err := contextx.Cause(ctx); err != nil {
			return results, err
		}
		b.log.Info("Starting phase", "phase", name)
		before := b.bus.Stats().HandlerCalls
		start := time.Now()
		result, err := phases[name](ctx)
		if err != nil {
			return results, fmt.Errorf("phase %s failed: %w", name, err)
		}
		result.Phase = name
		result.Elapsed = time.Since(start)
		result.HandlerCalls = b.bus.Stats().HandlerCalls - before
		if result.Events > 0 {
			result.PerEvent = result.Elapsed / time.Duration(result.Events)
		}
		b.log.Info("Finished phase", "phase", name, "elapsed", result.Elapsed, "handler_calls", result.HandlerCalls)
		results = append(results, result)
	}
	return results, nil
}

func (b *bench) dispatch(ctx context.Context) (phaseResult, error) {
	var result phaseResult
	ids := EntityID(b.conf.IDs)
	for i := 0; i < b.conf.Events; i++ {
		if i%checkEvery == 0 && contextx.IsDone(ctx) {
			return result, contextx.Cause(ctx)
		}
		b.bus.Event(EntityID(i)%ids, moved)
		result.Events++
	}
	b.bus.Broadcast(scaled)
	result.Events++
	return result, nil
}

// queue defers every event, and lets a pump drain them.
// The last queued call stops the pump, so the phase ends when the queue has been fully drained.
func (b *bench) queue(ctx context.Context) (phaseResult, error) {
	var result phaseResult
	p, err := pump.New(time.Millisecond, pump.WithLogger(b.log))
	if err != nil {
		return result, err
	}
	p.Add(b.bus)

	pumpCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)
	drained := errors.New("queue drained")

	ids := EntityID(b.conf.IDs)
	for i := 0; i < b.conf.Events; i++ {
		if err := b.bus.QueueEvent(EntityID(i)%ids, moved); err != nil {
			return result, err
		}
		result.Events++
	}
	if err := b.bus.QueueFunction(func() { stop(drained) }); err != nil {
		return result, err
	}
	if err := p.Run(pumpCtx); !errors.Is(err, drained) {
		b.bus.ClearQueuedEvents()
		return result, err
	}
	b.log.Debug("Queue drained", "ticks", p.Ticks())
	return result, nil
}

// thrash dispatches from several goroutines while another connects and disconnects handlers.
func (b *bench) thrash(ctx context.Context) (phaseResult, error) {
	var result phaseResult
	if b.conf.lockPolicy() == ebus.NoLocking {
		result.Skipped = "requires a locking policy"
		b.log.Warn("Skipping thrash phase, buses without locking can't be used from several goroutines")
		return result, nil
	}
	var (
		g, gctx   = errgroup.WithContext(ctx)
		perWorker = max(b.conf.Events/b.conf.Goroutines, 1)
		remaining atomic.Int64
		stop      = make(chan struct{})
		ids       = EntityID(b.conf.IDs)
	)
	remaining.Store(int64(b.conf.Goroutines))
	for w := 0; w < b.conf.Goroutines; w++ {
		g.Go(func() error {
			defer func() {
				if remaining.Add(-1) == 0 {
					close(stop)
				}
			}()
			for i := 0; i < perWorker; i++ {
				if i%checkEvery == 0 && contextx.IsDone(gctx) {
					return contextx.Cause(gctx)
				}
				b.bus.Event(EntityID(w+i)%ids, moved)
			}
			return nil
		})
	}
	var churned atomic.Int64
	g.Go(func() error {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return nil
			case <-gctx.Done():
				return context.Cause(gctx)
			default:
			}
			c := &component{entity: EntityID(i) % ids}
			if err := b.bus.Connect(c, c.entity); err != nil {
				return err
			}
			b.bus.Disconnect(c)
			churned.Add(1)
		}
	})
	if err := g.Wait(); err != nil {
		return result, err
	}
	b.log.Debug("Thrash finished", "churned_handlers", churned.Load())
	result.Events = perWorker * b.conf.Goroutines
	return result, nil
}
