package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunCollector bundles the Prometheus metrics emitted by one solver Run
// call: how far it's gotten, what kind of events it has processed, and
// which error codes (if any) workers have latched.
type RunCollector struct {
	gatherer prometheus.Gatherer

	DaysCompleted   prometheus.Counter
	EventsProcessed *prometheus.CounterVec
	SSASteps        prometheus.Counter
	RateRefreshes   prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec

	ActiveWorkers prometheus.Gauge
}

// NewRunCollector registers solver Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewRunCollector(reg prometheus.Registerer) (*RunCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	days, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_days_completed_total",
		Help: "Total number of simulated days completed across all Run calls.",
	}), "solver_days_completed_total")
	if err != nil {
		return nil, err
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_events_processed_total",
		Help: "Total number of scheduled events applied, labeled by event kind.",
	}, []string{"kind"})
	events, err = registerCounterVec(reg, events, "solver_events_processed_total")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_ssa_steps_total",
		Help: "Total number of direct-SSA transitions fired across all nodes.",
	}), "solver_ssa_steps_total")
	if err != nil {
		return nil, err
	}

	refreshes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_rate_refreshes_total",
		Help: "Total number of per-transition propensity recomputations driven by the dependency graph.",
	}), "solver_rate_refreshes_total")
	if err != nil {
		return nil, err
	}

	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_errors_total",
		Help: "Total number of fatal solver errors, labeled by error code.",
	}, []string{"code"})
	errorsTotal, err = registerCounterVec(reg, errorsTotal, "solver_errors_total")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_active_workers",
		Help: "Number of worker goroutines the current run partitions its nodes across.",
	}), "solver_active_workers")
	if err != nil {
		return nil, err
	}

	return &RunCollector{
		gatherer:        gatherer,
		DaysCompleted:   days,
		EventsProcessed: events,
		SSASteps:        steps,
		RateRefreshes:   refreshes,
		ErrorsTotal:     errorsTotal,
		ActiveWorkers:   active,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RunCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveDay increments the completed-day counter.
func (c *RunCollector) ObserveDay() {
	if c == nil || c.DaysCompleted == nil {
		return
	}
	c.DaysCompleted.Inc()
}

// ObserveEvent records one applied event of the given kind.
func (c *RunCollector) ObserveEvent(kind string) {
	if c == nil || c.EventsProcessed == nil {
		return
	}
	c.EventsProcessed.WithLabelValues(kind).Inc()
}

// ObserveSSASteps adds n fired transitions to the running total.
func (c *RunCollector) ObserveSSASteps(n int) {
	if c == nil || c.SSASteps == nil || n <= 0 {
		return
	}
	c.SSASteps.Add(float64(n))
}

// ObserveRateRefreshes adds n propensity recomputations to the running total.
func (c *RunCollector) ObserveRateRefreshes(n int) {
	if c == nil || c.RateRefreshes == nil || n <= 0 {
		return
	}
	c.RateRefreshes.Add(float64(n))
}

// ObserveError records a fatal error by its solver error code.
func (c *RunCollector) ObserveError(code string) {
	if c == nil || c.ErrorsTotal == nil {
		return
	}
	c.ErrorsTotal.WithLabelValues(code).Inc()
}

// SetActiveWorkers sets the current worker-goroutine gauge.
func (c *RunCollector) SetActiveWorkers(n int) {
	if c == nil || c.ActiveWorkers == nil {
		return
	}
	c.ActiveWorkers.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
