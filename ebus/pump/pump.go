package pump

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/saylorsolutions/busx/contextx"
	"github.com/saylorsolutions/busx/syncx"
)

var (
	ErrConfig  = errors.New("invalid pump configuration")
	ErrRunning = errors.New("pump is already running")
	ErrPanic   = errors.New("queued event panicked")
)

// Drainer is anything with a deferred queue that needs to be pumped.
// Every ebus.Bus is a Drainer.
type Drainer interface {
	ExecuteQueuedEvents() int
	Name() string
}

type config struct {
	clock clock.Clock
	log   *slog.Logger
}

func confErrf(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrConfig}, args...)...)
}

type Option func(conf *config) error

// WithClock sets the clock used to create the pump's ticker.
// Tests can use [clock.NewMock] to control ticks.
func WithClock(c clock.Clock) Option {
	return func(conf *config) error {
		if c == nil {
			return confErrf("nil clock")
		}
		conf.clock = c
		return nil
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(conf *config) error {
		if log == nil {
			return confErrf("nil logger")
		}
		conf.log = log
		return nil
	}
}

// Pump drains the queues of a set of buses once per tick, like a game or simulation frame loop.
// Buses are drained in the order they were added.
type Pump struct {
	conf     config
	interval time.Duration
	running  atomic.Bool
	ticks    atomic.Uint64

	mux      sync.RWMutex
	drainers []Drainer
}

func New(interval time.Duration, opts ...Option) (*Pump, error) {
	if interval <= 0 {
		return nil, confErrf("interval must be greater than zero, got '%s'", interval)
	}
	conf := &config{
		clock: clock.New(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(conf); err != nil {
			return nil, err
		}
	}
	return &Pump{
		conf:     *conf,
		interval: interval,
	}, nil
}

// Add registers drainers with the pump.
// They'll be drained starting with the next tick.
func (p *Pump) Add(d Drainer, others ...Drainer) {
	syncx.LockFunc(&p.mux, func() {
		p.drainers = append(p.drainers, d)
		p.drainers = append(p.drainers, others...)
	})
}

// Ticks returns how many ticks have completed.
func (p *Pump) Ticks() uint64 {
	return p.ticks.Load()
}

// Tick drains every registered queue once, and returns the number of queued entries that ran.
// Panics from queued entries propagate to the caller.
func (p *Pump) Tick() int {
	drainers := syncx.RLockFuncT(&p.mux, func() []Drainer {
		return p.drainers
	})
	var total int
	for _, d := range drainers {
		if n := d.ExecuteQueuedEvents(); n > 0 {
			total += n
			p.conf.log.Debug("Drained queued events", "bus", d.Name(), "executed", n)
		}
	}
	p.ticks.Add(1)
	return total
}

// Run ticks once per interval until ctx is done, and then returns the context's cause.
// If a queued entry panics, then the panic is logged and returned as an error wrapping [ErrPanic], and the pump stops.
// Only one Run may be active at a time.
func (p *Pump) Run(ctx context.Context) (err error) {
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer p.running.Store(false)

	ticker := p.conf.clock.Ticker(p.interval)
	defer ticker.Stop()
	p.conf.log.Info("Pump started", "interval", p.interval)
	defer func() {
		p.conf.log.Info("Pump stopped", "ticks", p.Ticks(), "error", err)
	}()

	for {
		select {
		case <-ctx.Done():
			return contextx.Cause(ctx)
		case <-ticker.C:
			// A tick and cancellation may be ready at the same time.
			if contextx.IsDone(ctx) {
				return contextx.Cause(ctx)
			}
			if err := p.safeTick(); err != nil {
				return err
			}
		}
	}
}

func (p *Pump) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			p.conf.log.Error("Pump tick failed", "error", err)
		}
	}()
	p.Tick()
	return nil
}
