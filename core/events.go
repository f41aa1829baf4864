package core

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// EventStream is the host's flat description of the scheduled-event input:
// one slice per field, all of the same length.
type EventStream struct {
	Kind       []model.EventKind
	Time       []int
	Node       []int
	Dest       []int
	N          []int
	Proportion []float64
	Select     []int
	Shift      []int
}

func (s *EventStream) length() int {
	return len(s.Kind)
}

// SplitEvents partitions the host's flat event stream into one E1 (intra-
// node) queue per worker and a single global E2 (inter-node) queue in a
// single left-to-right pass, then stably sorts each resulting queue by
// scheduled day so DayQueue can rely on same-day events forming a
// contiguous run even when the host doesn't supply non-decreasing times.
func SplitEvents(stream *EventStream, nNodes int, partitions []model.NodePartition) ([][]model.Event, []model.Event, error) {
	n := stream.length()
	if len(stream.Time) != n || len(stream.Node) != n || len(stream.Dest) != n ||
		len(stream.N) != n || len(stream.Proportion) != n || len(stream.Select) != n || len(stream.Shift) != n {
		return nil, nil, model.NewSolverError(model.ErrCodeInvalidInput, "event stream fields have mismatched lengths")
	}

	e1 := make([][]model.Event, len(partitions))
	var e2 []model.Event

	for i := 0; i < n; i++ {
		node := stream.Node[i]
		if node < 0 || node >= nNodes {
			return nil, nil, model.NewSolverError(model.ErrCodeInvalidEvent,
				fmt.Sprintf("event %d references out-of-range node %d", i, node))
		}
		if stream.Proportion[i] < 0 || stream.Proportion[i] > 1 {
			return nil, nil, model.NewSolverError(model.ErrCodeInvalidEvent,
				fmt.Sprintf("event %d has proportion %v outside [0,1]", i, stream.Proportion[i]))
		}

		ev := model.Event{
			Kind:       stream.Kind[i],
			Time:       stream.Time[i],
			Node:       node,
			Dest:       stream.Dest[i],
			N:          stream.N[i],
			Proportion: stream.Proportion[i],
			Select:     stream.Select[i],
			Shift:      stream.Shift[i],
		}

		if ev.Kind.IsInterNode() {
			if ev.Dest < 0 || ev.Dest >= nNodes {
				return nil, nil, model.NewSolverError(model.ErrCodeInvalidEvent,
					fmt.Sprintf("event %d references out-of-range dest %d", i, ev.Dest))
			}
			e2 = append(e2, ev)
			continue
		}

		w := workerOf(partitions, node)
		if w < 0 {
			return nil, nil, model.NewSolverError(model.ErrCodeInvalidEvent,
				fmt.Sprintf("event %d's node %d is not owned by any worker partition", i, node))
		}
		e1[w] = append(e1[w], ev)
	}

	// The host is expected to supply non-decreasing times already; this
	// stabilizes the rare case where it doesn't, without reordering events
	// that share a day.
	sortByTimeStable(e2)
	for _, q := range e1 {
		sortByTimeStable(q)
	}

	return e1, e2, nil
}

func workerOf(partitions []model.NodePartition, node int) int {
	for i, p := range partitions {
		if node >= p.Start && node < p.End {
			return i
		}
	}
	return -1
}

// DayQueue slices a per-worker E1 queue (or the global E2 queue) down to
// the contiguous run of events scheduled for exactly the given day, using
// the input-order/non-decreasing-time invariant: events for day d form a
// contiguous block starting at cursor. It returns the block and the
// advanced cursor.
func DayQueue(queue []model.Event, cursor int, day int) (batch []model.Event, next int) {
	start := cursor
	for start < len(queue) && queue[start].Time < day {
		start++
	}
	end := start
	for end < len(queue) && queue[end].Time == day {
		end++
	}
	return queue[start:end], end
}

// sortByTimeStable orders events by scheduled day while preserving
// relative input order among events on the same day. SplitEvents calls this
// on each resulting queue after its single linear pass over the input, so
// a host that doesn't guarantee non-decreasing times still gets correctly
// grouped per-day batches out of DayQueue.
func sortByTimeStable(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })
}
