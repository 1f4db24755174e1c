// internal/utils/metrics/collector.go
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shrimp"

// MetricType представляет тип метрики
type MetricType string

const (
	InstructionCounterType  MetricType = "instruction_counter"
	InstructionDurationType MetricType = "instruction_duration"
	EventCounterType        MetricType = "event_counter"
	PoolBalanceType         MetricType = "pool_balance"
	MarketEggsType          MetricType = "market_eggs"
)

// Collector управляет набором метрик игры. Each collector owns its registry
// so several ledgers can run in one process.
type Collector struct {
	metrics  sync.Map
	registry *prometheus.Registry

	instructionCounter  *prometheus.CounterVec
	instructionDuration *prometheus.HistogramVec
	eventCounter        *prometheus.CounterVec
	poolBalance         *prometheus.GaugeVec
	marketEggs          *prometheus.GaugeVec
}

// NewCollector создает новый экземпляр коллектора метрик
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}
	c.initializeMetrics()
	return c
}

func (c *Collector) initializeMetrics() {
	c.instructionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_total",
			Help:      "Total number of ledger instructions processed",
		},
		[]string{"status", "instruction"},
	)
	c.instructionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "instruction_duration_seconds",
			Help:      "Ledger instruction duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"instruction"},
	)
	c.eventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events emitted by the ledger",
		},
		[]string{"type"},
	)
	c.poolBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_lamports",
			Help:      "Current lamports held per pool",
		},
		[]string{"authority", "pool"},
	)
	c.marketEggs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "market_eggs",
			Help:      "Virtual market egg counter",
		},
		[]string{"authority"},
	)

	metricsMap := map[MetricType]prometheus.Collector{
		InstructionCounterType:  c.instructionCounter,
		InstructionDurationType: c.instructionDuration,
		EventCounterType:        c.eventCounter,
		PoolBalanceType:         c.poolBalance,
		MarketEggsType:          c.marketEggs,
	}

	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
		c.registry.MustRegister(metric)
	}
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}

// Registry exposes the collector's registry, e.g. for process collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
