package solver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signalsfoundry/constellation-sim-solver/core"
	"github.com/signalsfoundry/constellation-sim-solver/internal/logging"
	"github.com/signalsfoundry/constellation-sim-solver/internal/observability"
	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// Run executes one full simulation from Tspan[0], day by day, until every
// Tspan column has been sampled (the last day ends past Tspan[len-1]),
// following the fork-join pipeline:
//
//	SSA -> E1 (parallel) -> BARRIER -> E2 (serial) -> BARRIER -> POST -> SAMPLE -> SWAP
//
// Every worker goroutine owns a fixed, contiguous range of nodes for the
// entire run; only the barriers between phases, not the partition, change
// from day to day. A fatal error latched by any worker during SSA/E1 or
// POST is checked at the following barrier and, if present, stops the run
// and is returned — first error wins, in worker index order.
func Run(ctx context.Context, cfg *RunConfig, log logging.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, log = logging.WithRunLogger(ctx, log)

	rs, err := newRunState(cfg)
	if err != nil {
		return nil, err
	}

	dense := core.NewDenseOutput(cfg.Tspan, cfg.NNodes, cfg.NCompartments, cfg.NContinuous)
	for node := 0; node < cfg.NNodes; node++ {
		dense.InitTo(node, rs.nodeU(node), rs.nodeV(node), cfg.USink, cfg.VSink)
	}

	if cfg.Metrics != nil {
		cfg.Metrics.SetActiveWorkers(len(rs.partitions))
	}

	t := cfg.Tspan[0]
	tMax := cfg.Tspan[len(cfg.Tspan)-1]
	day := 0

	// Sampling uses a strict dayEnd > Tspan[k], so the column at tMax is
	// written only by a day that ends past tMax: keep stepping until then.
	for len(cfg.Tspan) > 1 && t <= tMax {
		dayEnd := t + 1

		dayCtx, daySpan := observability.StartDayStep(ctx, day, "day")

		_, ssaSpan := observability.StartDayStep(dayCtx, day, "ssa_e1")
		err := rs.runSSAAndE1(day, t, dayEnd)
		ssaSpan.End()
		if err != nil {
			daySpan.End()
			rs.observeError(err)
			return &Result{Dense: dense, FinalU: rs.u, FinalV: rs.v}, err
		}
		// Implicit barrier: runSSAAndE1 blocks on its WaitGroup before
		// returning, so every worker has finished SSA+E1 for this day
		// before E2 starts.

		_, e2Span := observability.StartDayStep(dayCtx, day, "e2")
		err = rs.runE2(day)
		e2Span.End()
		if err != nil {
			daySpan.End()
			rs.observeError(err)
			return &Result{Dense: dense, FinalU: rs.u, FinalV: rs.v}, err
		}
		// Implicit barrier: E2 runs on the calling goroutine, serially,
		// before any worker proceeds to POST.

		_, postSpan := observability.StartDayStep(dayCtx, day, "post")
		err = rs.runPost(dayEnd)
		postSpan.End()
		if err != nil {
			daySpan.End()
			rs.observeError(err)
			return &Result{Dense: dense, FinalU: rs.u, FinalV: rs.v}, err
		}

		_, sampleSpan := observability.StartDayStep(dayCtx, day, "sample")
		for node := 0; node < cfg.NNodes; node++ {
			dense.SampleTo(node, dayEnd, rs.nodeU(node), rs.nodeVNew(node), cfg.USink, cfg.VSink)
		}
		sampleSpan.End()

		rs.swapV()
		daySpan.End()

		if cfg.Metrics != nil {
			cfg.Metrics.ObserveDay()
		}
		log.Debug(dayCtx, "day complete", logging.Int("day", day))

		t = dayEnd
		day++
	}

	return &Result{Dense: dense, FinalU: rs.u, FinalV: rs.v}, nil
}

func (rs *runState) observeError(err error) {
	if rs.cfg.Metrics == nil {
		return
	}
	var se *model.SolverError
	if e, ok := err.(*model.SolverError); ok {
		se = e
	}
	if se != nil {
		rs.cfg.Metrics.ObserveError(string(se.Code))
	}
}

// runSSAAndE1 forks one goroutine per worker, each advancing every node it
// owns through the direct-SSA kernel up to dayEnd and then applying that
// worker's E1 queue for the current day, and joins before returning. Pending
// E1 depth is reported before the fork so it reflects what this day is about
// to drain, not what's left after.
func (rs *runState) runSSAAndE1(day int, t, dayEnd float64) error {
	if rs.cfg.SSAMetrics != nil {
		rs.cfg.SSAMetrics.SetPendingE1Depth(rs.pendingE1Depth(day))
	}

	var wg sync.WaitGroup
	var fired, refreshes int64
	for w := range rs.partitions {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			f, r, err := rs.runWorkerSSAAndE1(w, day, t, dayEnd)
			atomic.AddInt64(&fired, int64(f))
			atomic.AddInt64(&refreshes, int64(r))
			rs.errcodes[w] = err
		}(w)
	}
	wg.Wait()

	cfg := rs.cfg
	if cfg.Metrics != nil {
		cfg.Metrics.ObserveSSASteps(int(fired))
		cfg.Metrics.ObserveRateRefreshes(int(refreshes))
	}
	if cfg.SSAMetrics != nil {
		if fired == 0 {
			cfg.SSAMetrics.IncNullEvents()
		} else {
			cfg.SSAMetrics.SetRateRefreshRatio(float64(refreshes) / (float64(fired) * float64(cfg.NTransitions)))
		}
	}
	return rs.firstError()
}

// pendingE1Depth sums, across every worker, how many E1 events remain queued
// at or after the given day.
func (rs *runState) pendingE1Depth(day int) int {
	depth := 0
	for w := range rs.e1 {
		for _, ev := range rs.e1[w][rs.e1Cursors[w]:] {
			if ev.Time >= day {
				depth++
			}
		}
	}
	return depth
}

func (rs *runState) runWorkerSSAAndE1(w, day int, t, dayEnd float64) (fired, refreshes int, err error) {
	part := rs.partitions[w]
	rng := rs.rngs.Stream(w)
	cfg := rs.cfg

	for node := part.Start; node < part.End; node++ {
		start := time.Now()
		_, f, r, err := core.RunSSA(node, t, dayEnd, rs.nodeU(node), rs.nodeV(node), rs.nodeLData(node), cfg.GData, cfg.N, cfg.G, cfg.Propensities, rs.rates[node], rng)
		fired += f
		refreshes += r
		if err != nil {
			return fired, refreshes, err
		}
		if cfg.SSAMetrics != nil {
			cfg.SSAMetrics.ObserveStep(time.Since(start))
		}
	}

	batch, next := core.DayQueue(rs.e1[w], rs.e1Cursors[w], day)
	rs.e1Cursors[w] = next
	for _, ev := range batch {
		if err := core.ApplyIntraNodeEvent(ev, rs.nodeU(ev.Node), cfg.E, cfg.S, rng); err != nil {
			return fired, refreshes, err
		}
		rs.updateNode[ev.Node] = true
		if cfg.Metrics != nil {
			cfg.Metrics.ObserveEvent(ev.Kind.String())
		}
	}
	return fired, refreshes, nil
}

// runE2 applies the global E2 queue for the current day on the calling
// goroutine, serially, since EXTERNAL_TRANSFER events touch two nodes that
// may belong to different workers.
func (rs *runState) runE2(day int) error {
	cfg := rs.cfg
	rng := rs.rngs.Stream(0)

	batch, next := core.DayQueue(rs.e2, rs.e2Cursor, day)
	rs.e2Cursor = next
	for _, ev := range batch {
		if err := core.ApplyInterNodeEvent(ev, rs.nodeU(ev.Node), rs.nodeU(ev.Dest), cfg.E, cfg.S, rng); err != nil {
			return err
		}
		rs.updateNode[ev.Node] = true
		rs.updateNode[ev.Dest] = true
		if cfg.Metrics != nil {
			cfg.Metrics.ObserveEvent(ev.Kind.String())
		}
	}
	return nil
}

// runPost forks one goroutine per worker to run the PostStepper over every
// node it owns, and joins before returning.
func (rs *runState) runPost(t float64) error {
	var wg sync.WaitGroup
	for w := range rs.partitions {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rs.errcodes[w] = rs.runWorkerPost(w, t)
		}(w)
	}
	wg.Wait()
	return rs.firstError()
}

func (rs *runState) runWorkerPost(w int, t float64) error {
	part := rs.partitions[w]
	cfg := rs.cfg

	for node := part.Start; node < part.End; node++ {
		if cfg.NContinuous > 0 {
			copy(rs.nodeVNew(node), rs.nodeV(node))
		}

		// An E1/E2 event that touched this node's u earlier today also
		// needs a refresh, even when the PostStepper itself reports
		// NoUpdate (or there is no PostStepper at all) — the cached rates
		// are still stale against the post-event state.
		needsRefresh := rs.updateNode[node]

		if cfg.PostStep != nil {
			result, err := cfg.PostStep.PostStep(rs.nodeVNew(node), rs.nodeU(node), rs.nodeV(node), rs.nodeLData(node), cfg.GData, node, t)
			if err != nil {
				return err
			}
			needsRefresh = needsRefresh || result == model.Update
		}

		if needsRefresh {
			rates, err := core.InitRates(rs.nodeU(node), rs.nodeVNew(node), rs.nodeLData(node), cfg.GData, t, cfg.Propensities, node)
			if err != nil {
				return err
			}
			rs.rates[node] = rates
		}
		rs.updateNode[node] = false
	}
	return nil
}
