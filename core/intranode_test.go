package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/signalsfoundry/constellation-sim-solver/model"
)

func mustCSCStructural(t *testing.T, nrows, ncols int, ir, jc []int32) *model.CSC {
	t.Helper()
	m, err := model.NewCSCStructural(nrows, ncols, ir, jc)
	if err != nil {
		t.Fatalf("NewCSCStructural: %v", err)
	}
	return m
}

func mustCSCValued(t *testing.T, nrows, ncols int, ir, jc []int32, pr []float64) *model.CSC {
	t.Helper()
	m, err := model.NewCSCFromFloat64(nrows, ncols, ir, jc, pr)
	if err != nil {
		t.Fatalf("NewCSCFromFloat64: %v", err)
	}
	return m
}

func TestApplyIntraNodeEvent_Enter(t *testing.T) {
	// E: 2 compartments, 1 column selecting compartment 0.
	E := mustCSCStructural(t, 2, 1, []int32{0}, []int32{0, 1})
	u := []int64{10, 5}
	ev := model.Event{Kind: model.EventEnter, Node: 0, N: 3, Select: 0}

	if err := ApplyIntraNodeEvent(ev, u, E, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u[0] != 13 || u[1] != 5 {
		t.Fatalf("got u=%v, want [13 5]", u)
	}
}

func TestApplyIntraNodeEvent_EnterRejectsMultiColumn(t *testing.T) {
	E := mustCSCStructural(t, 2, 1, []int32{0, 1}, []int32{0, 2})
	u := []int64{10, 5}
	ev := model.Event{Kind: model.EventEnter, Node: 0, N: 3, Select: 0}

	err := ApplyIntraNodeEvent(ev, u, E, nil, nil)
	if !errors.Is(err, model.ErrInvalidEvent) {
		t.Fatalf("got %v, want ErrInvalidEvent", err)
	}
}

func TestApplyIntraNodeEvent_ExitVerbatim(t *testing.T) {
	E := mustCSCStructural(t, 2, 1, []int32{1}, []int32{0, 1})
	u := []int64{10, 5}
	ev := model.Event{Kind: model.EventExit, Node: 0, N: 3, Select: 0}
	rng := rand.New(newMT19937(1))

	if err := ApplyIntraNodeEvent(ev, u, E, nil, rng); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u[1] != 2 {
		t.Fatalf("got u[1]=%d, want 2", u[1])
	}
}

func TestApplyIntraNodeEvent_ExitOversizedNIsNegativeState(t *testing.T) {
	E := mustCSCStructural(t, 1, 1, []int32{0}, []int32{0, 1})
	u := []int64{2}
	ev := model.Event{Kind: model.EventExit, Node: 0, N: 100, Select: 0}
	rng := rand.New(newMT19937(1))

	err := ApplyIntraNodeEvent(ev, u, E, nil, rng)
	if !errors.Is(err, model.ErrNegativeState) {
		t.Fatalf("got %v, want ErrNegativeState", err)
	}
}

func TestApplyIntraNodeEvent_InternalTransferShift(t *testing.T) {
	// Select compartment 0; shift maps compartment 0 -> compartment 1.
	E := mustCSCStructural(t, 2, 1, []int32{0}, []int32{0, 1})
	S := mustCSCValued(t, 2, 1, []int32{0}, []int32{0, 1}, []float64{1})
	u := []int64{10, 0}
	ev := model.Event{Kind: model.EventInternalTransfer, Node: 0, N: 4, Select: 0, Shift: 0}

	if err := ApplyIntraNodeEvent(ev, u, E, S, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u[0] != 6 || u[1] != 4 {
		t.Fatalf("got u=%v, want [6 4]", u)
	}
}

func TestApplyIntraNodeEvent_InternalTransferNoShiftEntryIsIdentity(t *testing.T) {
	E := mustCSCStructural(t, 2, 1, []int32{0}, []int32{0, 1})
	S := mustCSCStructural(t, 2, 1, []int32{}, []int32{0, 0}) // empty shift column
	u := []int64{10, 0}
	ev := model.Event{Kind: model.EventInternalTransfer, Node: 0, N: 4, Select: 0, Shift: 0}

	if err := ApplyIntraNodeEvent(ev, u, E, S, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u[0] != 10 || u[1] != 0 {
		t.Fatalf("got u=%v, want [10 0] (identity shift is a no-op)", u)
	}
}

func TestApplyIntraNodeEvent_NegativeStateIsFatal(t *testing.T) {
	E := mustCSCStructural(t, 1, 1, []int32{0}, []int32{0, 1})
	u := []int64{0}
	ev := model.Event{Kind: model.EventExit, Node: 2, N: 1, Select: 0}

	err := ApplyIntraNodeEvent(ev, u, E, nil, rand.New(newMT19937(1)))
	if !errors.Is(err, model.ErrNegativeState) {
		t.Fatalf("got %v, want ErrNegativeState", err)
	}
}

func TestApplyIntraNodeEvent_UnknownKindIsInvalid(t *testing.T) {
	E := mustCSCStructural(t, 1, 1, []int32{0}, []int32{0, 1})
	u := []int64{5}
	ev := model.Event{Kind: model.EventExternalTransfer, Node: 0, Select: 0}

	err := ApplyIntraNodeEvent(ev, u, E, nil, nil)
	if !errors.Is(err, model.ErrInvalidEvent) {
		t.Fatalf("got %v, want ErrInvalidEvent", err)
	}
}
