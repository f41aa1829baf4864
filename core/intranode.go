package core

import (
	"math/rand"

	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// ApplyIntraNodeEvent applies one E1 event — EXIT, ENTER or
// INTERNAL_TRANSFER — to a single node's compartment counts.
// u holds the node's current compartment counts and is mutated in place. E
// is the selection matrix (column ev.Select names the compartments the
// event acts on); S is the shift matrix (column ev.Shift maps a selected
// compartment to its INTERNAL_TRANSFER destination).
func ApplyIntraNodeEvent(ev model.Event, u []int64, E, S *model.CSC, rng *rand.Rand) error {
	rows, _ := E.Column(ev.Select)
	if len(rows) == 0 {
		return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Select, "select column names no compartments")
	}

	switch ev.Kind {
	case model.EventEnter:
		return applyEnter(ev, u, rows)
	case model.EventExit:
		return applyExit(ev, u, rows, rng)
	case model.EventInternalTransfer:
		return applyInternalTransfer(ev, u, rows, S, rng)
	default:
		return model.NewNodeError(model.ErrCodeInvalidEvent, ev.Node, "event kind is not a valid intra-node kind")
	}
}

// applyEnter adds ev.N individuals to the single compartment named by the
// selection column, verbatim — proportion never applies to ENTER since
// there's no existing count to sample from.
func applyEnter(ev model.Event, u []int64, rows []int32) error {
	if len(rows) != 1 {
		return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Select, "ENTER requires a single-column selection")
	}
	c := int(rows[0])
	if c < 0 || c >= len(u) {
		return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Select, "selected compartment out of range")
	}
	u[c] += int64(ev.N)
	return nil
}

// applyExit removes the sampled individuals from the selected compartments.
func applyExit(ev model.Event, u []int64, rows []int32, rng *rand.Rand) error {
	moved, err := selectedCounts(ev, u, rows, rng)
	if err != nil {
		return err
	}
	for i, r := range rows {
		c := int(r)
		if c < 0 || c >= len(u) {
			return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Select, "selected compartment out of range")
		}
		u[c] -= moved[i]
		if u[c] < 0 {
			return model.NewTransitionError(model.ErrCodeNegativeState, ev.Node, ev.Select, "EXIT would drive a compartment negative")
		}
	}
	return nil
}

// applyInternalTransfer removes the sampled individuals from the selected
// compartments and adds them back in at the compartment each maps to
// through S's shift column. A selected compartment with no entry in that
// column is treated as mapping to itself.
func applyInternalTransfer(ev model.Event, u []int64, rows []int32, S *model.CSC, rng *rand.Rand) error {
	moved, err := selectedCounts(ev, u, rows, rng)
	if err != nil {
		return err
	}

	dests := make([]int, len(rows))
	for i, r := range rows {
		c := int(r)
		if v, ok := S.Lookup(c, ev.Shift); ok {
			dests[i] = int(v)
		} else {
			dests[i] = c
		}
		if dests[i] < 0 || dests[i] >= len(u) {
			return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Shift, "shifted compartment out of range")
		}
	}

	for i, r := range rows {
		c := int(r)
		u[c] -= moved[i]
		if u[c] < 0 {
			return model.NewTransitionError(model.ErrCodeNegativeState, ev.Node, ev.Select, "INTERNAL_TRANSFER would drive a compartment negative")
		}
	}
	for i, d := range dests {
		u[d] += moved[i]
	}
	return nil
}

// selectedCounts decides how many individuals move out of each selected
// compartment: a hypergeometric split of ev.Proportion times the selected
// total when proportion > 0; otherwise a hypergeometric split of ev.N when
// several compartments are selected, or ev.N taken verbatim when only one is.
func selectedCounts(ev model.Event, u []int64, rows []int32, rng *rand.Rand) ([]int64, error) {
	counts := make([]int64, len(rows))
	for i, r := range rows {
		c := int(r)
		if c < 0 || c >= len(u) {
			return nil, model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Select, "selected compartment out of range")
		}
		counts[i] = u[c]
	}

	if ev.Proportion > 0 {
		var total int64
		for _, c := range counts {
			total += c
		}
		k := int64(ev.Proportion * float64(total))
		return splitByHypergeometric(counts, k, rng), nil
	}

	if len(rows) != 1 {
		return splitByHypergeometric(counts, int64(ev.N), rng), nil
	}
	// Verbatim n against a single compartment is intentionally not clamped
	// here: if n exceeds what's available, applyExit/applyInternalTransfer
	// catch the resulting negative count and raise NEGATIVE_STATE.
	return []int64{int64(ev.N)}, nil
}
