// Package metrics exposes store dispatches as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	spectra "github.com/goliatone/go-spectra"
)

var ErrInvalidConfig = errors.New("metrics: invalid configuration")

// Config configures a Collector.
type Config struct {
	Namespace string
	Subsystem string
	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
	// LatencyBuckets are in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns the namespace "spectra" with sub-millisecond
// latency buckets.
func DefaultConfig() Config {
	return Config{
		Namespace:      "spectra",
		Subsystem:      "store",
		LatencyBuckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
}

// Collector implements spectra.DispatchLogger.
type Collector struct {
	dispatches *prometheus.CounterVec
	conditions *prometheus.CounterVec
	failures   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	historyLen prometheus.Gauge
	historyPos prometheus.Gauge
}

// New registers the collector's metrics.
func New(cfg Config) (*Collector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrInvalidConfig)
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	c := &Collector{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "dispatches_total",
			Help:      "Dispatched actions by kind, scope and whether the state changed.",
		}, []string{"kind", "scope", "changed"}),
		conditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "conditions_total",
			Help:      "Transitions that reported a condition.",
		}, []string{"kind", "condition"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "side_effect_failures_total",
			Help:      "Dispatches whose persistence or notification failed.",
		}, []string{"scope"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent reducing an action and running its side effects.",
			Buckets:   cfg.LatencyBuckets,
		}, []string{"scope"}),
		historyLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "history_entries",
			Help:      "Entries retained in the undo history.",
		}),
		historyPos: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "history_cursor",
			Help:      "Position of the undo cursor.",
		}),
	}

	for _, collector := range []prometheus.Collector{c.dispatches, c.conditions, c.failures, c.latency, c.historyLen, c.historyPos} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// LogDispatch implements spectra.DispatchLogger.
func (c *Collector) LogDispatch(event spectra.DispatchLogEvent) {
	if c == nil || event.Kind == spectra.KindInitial {
		if c != nil && event.Err != nil {
			c.failures.WithLabelValues(string(event.Scope)).Inc()
		}
		return
	}
	scope := string(event.Scope)
	c.dispatches.WithLabelValues(string(event.Kind), scope, fmt.Sprint(event.Changed)).Inc()
	c.latency.WithLabelValues(scope).Observe(event.Duration.Seconds())
	if event.Condition != nil {
		c.conditions.WithLabelValues(string(event.Kind), string(event.Condition.Kind)).Inc()
	}
	if event.Err != nil {
		c.failures.WithLabelValues(scope).Inc()
	}
	if event.HistoryLen > 0 {
		c.historyLen.Set(float64(event.HistoryLen))
		c.historyPos.Set(float64(event.HistoryIndex))
	}
}
