package core

import (
	"math/rand"

	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// ApplyInterNodeEvent applies one E2 (EXTERNAL_TRANSFER) event. uSrc and
// uDst are the compartment counts of the source and
// destination node; both are mutated in place. Unlike E1 events, E2 events
// touch two nodes at once, which is exactly why they're held back to a
// single worker running serially between the two barriers rather than
// handed to whichever worker owns the source node.
func ApplyInterNodeEvent(ev model.Event, uSrc, uDst []int64, E, S *model.CSC, rng *rand.Rand) error {
	if ev.Kind != model.EventExternalTransfer {
		return model.NewNodeError(model.ErrCodeInvalidEvent, ev.Node, "event kind is not EXTERNAL_TRANSFER")
	}

	rows, _ := E.Column(ev.Select)
	if len(rows) == 0 {
		return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Select, "select column names no compartments")
	}

	counts := make([]int64, len(rows))
	for i, r := range rows {
		c := int(r)
		if c < 0 || c >= len(uSrc) {
			return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Node, ev.Select, "selected compartment out of range")
		}
		counts[i] = uSrc[c]
	}

	var moved []int64
	if ev.Proportion > 0 {
		var total int64
		for _, c := range counts {
			total += c
		}
		k := int64(ev.Proportion * float64(total))
		moved = splitByHypergeometric(counts, k, rng)
	} else if len(rows) == 1 {
		// Not clamped: an oversized n surfaces as NEGATIVE_STATE below,
		// same as the intra-node EXIT path.
		moved = []int64{int64(ev.N)}
	} else {
		moved = splitByHypergeometric(counts, int64(ev.N), rng)
	}

	dests := make([]int, len(rows))
	for i, r := range rows {
		c := int(r)
		if v, ok := S.Lookup(c, ev.Shift); ok {
			dests[i] = int(v)
		} else {
			dests[i] = c
		}
		if dests[i] < 0 || dests[i] >= len(uDst) {
			return model.NewTransitionError(model.ErrCodeInvalidEvent, ev.Dest, ev.Shift, "shifted compartment out of range at destination")
		}
	}

	for i, r := range rows {
		c := int(r)
		uSrc[c] -= moved[i]
		if uSrc[c] < 0 {
			return model.NewTransitionError(model.ErrCodeNegativeState, ev.Node, ev.Select, "EXTERNAL_TRANSFER would drive the source compartment negative")
		}
	}
	for i, d := range dests {
		uDst[d] += moved[i]
	}
	return nil
}
