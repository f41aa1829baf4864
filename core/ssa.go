package core

import (
	"math"
	"math/rand"

	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// NodeRates is one node's per-transition propensity vector and its running
// sum, kept across SSA steps and across days so day N+1 can resume from
// where day N left off without recomputing every propensity from scratch.
type NodeRates struct {
	Rate []float64
	Sum  float64
}

// InitRates computes every transition's propensity for a node from scratch.
// It's called once per node at the start of a run and again whenever a
// PostStepper asks for a full refresh (model.Update).
func InitRates(u []int64, v, ldata, gdata []float64, t float64, props []model.Propensity, node int) (*NodeRates, error) {
	r := &NodeRates{Rate: make([]float64, len(props))}
	for k, p := range props {
		rate := p.Rate(u, v, ldata, gdata, t)
		if err := validateRate(rate, node, k); err != nil {
			return nil, err
		}
		r.Rate[k] = rate
		r.Sum += rate
	}
	return r, nil
}

func validateRate(rate float64, node, transition int) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return model.NewTransitionError(model.ErrCodeInvalidRate, node, transition, "propensity is not finite and non-negative")
	}
	return nil
}

// RunSSA advances one node's direct-SSA simulation from t0 up to (but not
// past) tMax, applying every transition that fires along the way. It
// mutates u and rates in place and returns the time it stopped at
// (tMax, whether by running out of rate or by the next waiting-time draw
// crossing the day horizon; on a null event, the time the clock had
// reached), how many transitions fired, and how many
// dependency-graph-driven propensity recomputations that triggered.
func RunSSA(node int, t0, tMax float64, u []int64, v, ldata, gdata []float64, N, G *model.CSC, props []model.Propensity, rates *NodeRates, rng *rand.Rand) (t float64, fired, refreshes int, err error) {
	t = t0
	for {
		if rates.Sum <= 0 {
			return tMax, fired, refreshes, nil
		}

		tau := -math.Log(Uniform01Open(rng)) / rates.Sum
		// >=, not >, matching the original solver's day-boundary check: a
		// waiting time landing exactly on tMax also stops the node here,
		// not after drawing and applying one more transition.
		if t+tau >= tMax {
			return tMax, fired, refreshes, nil
		}
		t += tau

		j, ok := drawTransition(rates, rng)
		if !ok {
			// A transition was sampled but the backward walk found no
			// nonzero rate to land on — floating-point drift in the
			// iterated rate sums, not a real transition. Treat it as a
			// null event: the clock still advanced by tau, but nothing
			// fires and this node is done until the next day.
			rates.Sum = 0
			return t, fired, refreshes, nil
		}

		if err := applyStateChange(node, j, u, N); err != nil {
			return t, fired, refreshes, err
		}
		fired++

		n, err := refreshRates(node, j, u, v, ldata, gdata, t, N, G, props, rates)
		refreshes += n
		if err != nil {
			return t, fired, refreshes, err
		}
	}
}

// drawTransition picks a transition proportionally to its rate. The target
// draw is clamped to the last transition when rounding error would
// otherwise walk it past the end of the vector, and then walked backward
// past any zero-rate transitions it lands on — both defenses mirror the
// original solver's handling of the categorical draw at the boundary of
// floating-point precision. If the backward walk bottoms out at transition
// 0 and that rate is also zero, no nonzero transition exists to fire and ok
// is false.
func drawTransition(rates *NodeRates, rng *rand.Rand) (j int, ok bool) {
	nt := len(rates.Rate)
	target := Uniform01Open(rng) * rates.Sum

	var cum float64
	j = 0
	for ; j < nt; j++ {
		cum += rates.Rate[j]
		if target <= cum {
			break
		}
	}
	if j >= nt {
		j = nt - 1
	}
	for j > 0 && rates.Rate[j] <= 0 {
		j--
	}
	if rates.Rate[j] <= 0 {
		return 0, false
	}
	return j, true
}

// applyStateChange applies transition j's column of the state-change matrix
// N to the node's compartment counts.
func applyStateChange(node, transition int, u []int64, N *model.CSC) error {
	rows, values := N.Column(transition)
	for i, r := range rows {
		c := int(r)
		if c < 0 || c >= len(u) {
			return model.NewTransitionError(model.ErrCodeInvalidInput, node, transition, "state-change matrix references out-of-range compartment")
		}
		u[c] += values[i]
		if u[c] < 0 {
			return model.NewTransitionError(model.ErrCodeNegativeState, node, transition, "transition would drive a compartment negative")
		}
	}
	return nil
}

// refreshRates recomputes only the propensities the dependency graph says
// transition `fired` can have affected, and adjusts the running sum by the
// delta rather than resumming from scratch — the incremental update that
// makes direct SSA viable on models with many transitions per node.
func refreshRates(node, fired int, u []int64, v, ldata, gdata []float64, t float64, N, G *model.CSC, props []model.Propensity, rates *NodeRates) (int, error) {
	affected, _ := G.Column(fired)
	for _, a := range affected {
		k := int(a)
		if k < 0 || k >= len(rates.Rate) {
			return 0, model.NewTransitionError(model.ErrCodeInvalidInput, node, fired, "dependency graph references out-of-range transition")
		}
		newRate := props[k].Rate(u, v, ldata, gdata, t)
		if err := validateRate(newRate, node, k); err != nil {
			return 0, err
		}
		rates.Sum += newRate - rates.Rate[k]
		rates.Rate[k] = newRate
	}
	if rates.Sum < 0 {
		// Accumulated floating-point drift pushed the running sum
		// negative; clamp rather than let it poison every later draw.
		rates.Sum = 0
	}
	return len(affected), nil
}
