// Package ebusprom exports bus statistics as Prometheus metrics.
package ebusprom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saylorsolutions/busx/ebus"
	"github.com/saylorsolutions/busx/syncx"
)

const namespace = "ebus"

// StatsSource is the part of an [ebus.Bus] that the collector reads.
// Any *ebus.Bus satisfies it regardless of its type parameters.
type StatsSource interface {
	Name() string
	Stats() ebus.Stats
	TotalHandlers() int
	QueuedEventCount() int
}

type counterMetric struct {
	desc  *prometheus.Desc
	value func(ebus.Stats) uint64
}

func newCounter(name, help string, value func(ebus.Stats) uint64) counterMetric {
	return counterMetric{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name+"_total"), help, []string{"bus"}, nil),
		value: value,
	}
}

var _ prometheus.Collector = (*Collector)(nil)

// Collector is a [prometheus.Collector] for a set of buses.
// Metrics are labeled with the bus name, so every source should have a distinct name.
type Collector struct {
	counters     []counterMetric
	handlersDesc *prometheus.Desc
	queuedDesc   *prometheus.Desc

	mux     sync.RWMutex
	sources []StatsSource
}

// NewCollector creates a [Collector] reporting on the given sources.
func NewCollector(sources ...StatsSource) *Collector {
	return &Collector{
		counters: []counterMetric{
			newCounter("dispatches", "Events, broadcasts, and result calls dispatched on the bus.", func(s ebus.Stats) uint64 { return s.Dispatches }),
			newCounter("handler_calls", "Individual handler invocations.", func(s ebus.Stats) uint64 { return s.HandlerCalls }),
			newCounter("queued", "Calls accepted by the event queue.", func(s ebus.Stats) uint64 { return s.Queued }),
			newCounter("queue_rejected", "Calls dropped because the event queue is disabled or inactive.", func(s ebus.Stats) uint64 { return s.QueueRejected }),
			newCounter("queue_executed", "Queued calls that have run.", func(s ebus.Stats) uint64 { return s.QueueExecuted }),
			newCounter("queue_cleared", "Queued calls dropped without running.", func(s ebus.Stats) uint64 { return s.QueueCleared }),
			newCounter("connects", "Handlers connected to the bus.", func(s ebus.Stats) uint64 { return s.Connects }),
			newCounter("disconnects", "Handlers disconnected from the bus.", func(s ebus.Stats) uint64 { return s.Disconnects }),
		},
		handlersDesc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "handlers"),
			"Handler connections currently on the bus.", []string{"bus"}, nil),
		queuedDesc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "queued_events"),
			"Entries waiting in the bus event queue.", []string{"bus"}, nil),
		sources: sources,
	}
}

// Add reports on more sources, starting with the next collection.
func (c *Collector) Add(source StatsSource, others ...StatsSource) {
	syncx.LockFunc(&c.mux, func() {
		c.sources = append(c.sources, source)
		c.sources = append(c.sources, others...)
	})
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range c.counters {
		ch <- counter.desc
	}
	ch <- c.handlersDesc
	ch <- c.queuedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	sources := syncx.RLockFuncT(&c.mux, func() []StatsSource {
		return c.sources
	})
	for _, source := range sources {
		var (
			name  = source.Name()
			stats = source.Stats()
		)
		for _, counter := range c.counters {
			ch <- prometheus.MustNewConstMetric(counter.desc, prometheus.CounterValue, float64(counter.value(stats)), name)
		}
		ch <- prometheus.MustNewConstMetric(c.handlersDesc, prometheus.GaugeValue, float64(source.TotalHandlers()), name)
		ch <- prometheus.MustNewConstMetric(c.queuedDesc, prometheus.GaugeValue, float64(source.QueuedEventCount()), name)
	}
}
