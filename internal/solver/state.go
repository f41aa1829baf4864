package solver

import (
	"github.com/signalsfoundry/constellation-sim-solver/core"
	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// runState is the full mutable working set for one Run call: the
// node-major compartment and continuous-state buffers, the per-node
// propensity vectors, the per-worker partitions, RNG streams and event
// queues, and the double-buffer the solver swaps between at every day
// boundary.
type runState struct {
	cfg *RunConfig

	partitions []model.NodePartition
	rngs       *core.RNGService

	u []int64 // node-major, len NNodes*NCompartments
	v []float64
	vNew []float64

	rates []*core.NodeRates // one per node

	updateNode []bool // per-node flag set by E1/E2, read by POST

	e1        [][]model.Event // per-worker E1 queues
	e2        []model.Event   // global E2 queue
	e1Cursors []int
	e2Cursor  int

	errcodes []error // one latched error per worker, first-error-wins
}

func newRunState(cfg *RunConfig) (*runState, error) {
	partitions := model.Partition(cfg.NNodes, cfg.NThreads)
	rngs := core.NewRNGService(cfg.NThreads, cfg.Seed)

	u := make([]int64, len(cfg.U0))
	copy(u, cfg.U0)

	var v, vNew []float64
	if cfg.NContinuous > 0 {
		v = make([]float64, len(cfg.V0))
		copy(v, cfg.V0)
		vNew = make([]float64, len(cfg.V0))
		copy(vNew, cfg.V0)
	}

	events := cfg.Events
	if events == nil {
		events = &core.EventStream{}
	}
	e1, e2, err := core.SplitEvents(events, cfg.NNodes, partitions)
	if err != nil {
		return nil, err
	}

	rs := &runState{
		cfg:        cfg,
		partitions: partitions,
		rngs:       rngs,
		u:          u,
		v:          v,
		vNew:       vNew,
		rates:      make([]*core.NodeRates, cfg.NNodes),
		updateNode: make([]bool, cfg.NNodes),
		e1:         e1,
		e2:         e2,
		e1Cursors:  make([]int, len(partitions)),
		errcodes:   make([]error, len(partitions)),
	}

	for node := 0; node < cfg.NNodes; node++ {
		rates, err := core.InitRates(rs.nodeU(node), rs.nodeV(node), rs.nodeLData(node), cfg.GData, cfg.Tspan[0], cfg.Propensities, node)
		if err != nil {
			return nil, err
		}
		rs.rates[node] = rates
	}

	return rs, nil
}

func (rs *runState) nodeU(node int) []int64 {
	c := rs.cfg.NCompartments
	return rs.u[node*c : (node+1)*c]
}

func (rs *runState) nodeV(node int) []float64 {
	if rs.cfg.NContinuous == 0 {
		return nil
	}
	c := rs.cfg.NContinuous
	return rs.v[node*c : (node+1)*c]
}

func (rs *runState) nodeVNew(node int) []float64 {
	if rs.cfg.NContinuous == 0 {
		return nil
	}
	c := rs.cfg.NContinuous
	return rs.vNew[node*c : (node+1)*c]
}

func (rs *runState) nodeLData(node int) []float64 {
	if rs.cfg.NLocalData == 0 {
		return nil
	}
	c := rs.cfg.NLocalData
	return rs.cfg.LData[node*c : (node+1)*c]
}

// swapV exchanges the v and vNew buffers at a day boundary, so the next
// day's SSA and E1/E2 phases read what POST just wrote without an extra copy.
func (rs *runState) swapV() {
	rs.v, rs.vNew = rs.vNew, rs.v
}

// firstError returns the first non-nil latched worker error, in worker
// index order, implementing the first-error-wins semantics checked at
// every barrier.
func (rs *runState) firstError() error {
	for _, e := range rs.errcodes {
		if e != nil {
			return e
		}
	}
	return nil
}
