package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SSACollector exposes metrics specific to the direct-SSA kernel itself,
// as distinct from the Run-level counters in RunCollector: how long a
// single node's step takes, how deep the pending E1 queues run, and how
// many days end with no transition fired on any node.
type SSACollector struct {
	gatherer prometheus.Gatherer

	StepDuration     prometheus.Histogram
	PendingE1Depth   prometheus.Gauge
	NullEventsTotal  prometheus.Counter
	RateRefreshRatio prometheus.Gauge
}

// NewSSACollector registers SSA-kernel metrics against the provided registerer.
func NewSSACollector(reg prometheus.Registerer) (*SSACollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	stepHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ssa_step_duration_seconds",
		Help:    "Wall-clock duration of one node's SSA step within a single simulated day.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	stepHistogram, err := registerHistogram(reg, stepHistogram, "ssa_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ssa_pending_e1_depth",
		Help: "Number of E1 events still queued for the current or a later day across all workers.",
	})
	queueGauge, err = registerGauge(reg, queueGauge, "ssa_pending_e1_depth")
	if err != nil {
		return nil, err
	}

	nullEvents, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ssa_null_events_total",
		Help: "Cumulative number of simulated days in which no node fired an SSA transition.",
	}), "ssa_null_events_total")
	if err != nil {
		return nil, err
	}

	refreshRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ssa_rate_refresh_ratio",
		Help: "Ratio of transitions refreshed through the dependency graph to total transitions, averaged over the most recent day.",
	})
	refreshRatio, err = registerGauge(reg, refreshRatio, "ssa_rate_refresh_ratio")
	if err != nil {
		return nil, err
	}

	return &SSACollector{
		gatherer:         gatherer,
		StepDuration:     stepHistogram,
		PendingE1Depth:   queueGauge,
		NullEventsTotal:  nullEvents,
		RateRefreshRatio: refreshRatio,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SSACollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveStep records one node-step's wall-clock duration.
func (c *SSACollector) ObserveStep(d time.Duration) {
	if c == nil || c.StepDuration == nil {
		return
	}
	c.StepDuration.Observe(d.Seconds())
}

// SetPendingE1Depth updates the pending-E1 queue gauge.
func (c *SSACollector) SetPendingE1Depth(n int) {
	if c == nil || c.PendingE1Depth == nil {
		return
	}
	c.PendingE1Depth.Set(float64(n))
}

// IncNullEvents increments the null-event counter.
func (c *SSACollector) IncNullEvents() {
	if c == nil || c.NullEventsTotal == nil {
		return
	}
	c.NullEventsTotal.Inc()
}

// SetRateRefreshRatio sets the dependency-graph refresh ratio gauge.
func (c *SSACollector) SetRateRefreshRatio(ratio float64) {
	if c == nil || c.RateRefreshRatio == nil {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.RateRefreshRatio.Set(ratio)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
