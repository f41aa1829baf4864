package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/signalsfoundry/constellation-sim-solver/model"
)

func TestApplyInterNodeEvent_Verbatim(t *testing.T) {
	E := mustCSCStructural(t, 2, 1, []int32{0}, []int32{0, 1})
	uSrc := []int64{10, 0}
	uDst := []int64{0, 2}
	ev := model.Event{Kind: model.EventExternalTransfer, Node: 0, Dest: 1, N: 4, Select: 0}

	if err := ApplyInterNodeEvent(ev, uSrc, uDst, E, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uSrc[0] != 6 {
		t.Fatalf("got uSrc[0]=%d, want 6", uSrc[0])
	}
	if uDst[0] != 4 || uDst[1] != 2 {
		t.Fatalf("got uDst=%v, want [4 2]", uDst)
	}
}

func TestApplyInterNodeEvent_ShiftAtDestination(t *testing.T) {
	E := mustCSCStructural(t, 2, 1, []int32{0}, []int32{0, 1})
	S := mustCSCValued(t, 2, 1, []int32{0}, []int32{0, 1}, []float64{1})
	uSrc := []int64{10, 0}
	uDst := []int64{0, 0}
	ev := model.Event{Kind: model.EventExternalTransfer, Node: 0, Dest: 1, N: 3, Select: 0, Shift: 0}

	if err := ApplyInterNodeEvent(ev, uSrc, uDst, E, S, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uSrc[0] != 7 {
		t.Fatalf("got uSrc[0]=%d, want 7", uSrc[0])
	}
	if uDst[1] != 3 {
		t.Fatalf("got uDst[1]=%d, want 3", uDst[1])
	}
}

func TestApplyInterNodeEvent_NegativeStateIsFatal(t *testing.T) {
	E := mustCSCStructural(t, 1, 1, []int32{0}, []int32{0, 1})
	uSrc := []int64{1}
	uDst := []int64{0}
	ev := model.Event{Kind: model.EventExternalTransfer, Node: 0, Dest: 1, N: 5, Select: 0}

	err := ApplyInterNodeEvent(ev, uSrc, uDst, E, nil, rand.New(newMT19937(1)))
	if !errors.Is(err, model.ErrNegativeState) {
		t.Fatalf("got %v, want ErrNegativeState", err)
	}
}

func TestApplyInterNodeEvent_WrongKindIsInvalid(t *testing.T) {
	E := mustCSCStructural(t, 1, 1, []int32{0}, []int32{0, 1})
	uSrc := []int64{1}
	uDst := []int64{0}
	ev := model.Event{Kind: model.EventExit, Node: 0, Select: 0}

	err := ApplyInterNodeEvent(ev, uSrc, uDst, E, nil, nil)
	if !errors.Is(err, model.ErrInvalidEvent) {
		t.Fatalf("got %v, want ErrInvalidEvent", err)
	}
}

func TestApplyInterNodeEvent_ConservesTotalAcrossNodes(t *testing.T) {
	E := mustCSCStructural(t, 2, 1, []int32{0, 1}, []int32{0, 2})
	uSrc := []int64{30, 20}
	uDst := []int64{5, 5}
	before := sum(uSrc) + sum(uDst)

	ev := model.Event{Kind: model.EventExternalTransfer, Node: 0, Dest: 1, Proportion: 0.5, Select: 0}
	rng := rand.New(newMT19937(7))
	if err := ApplyInterNodeEvent(ev, uSrc, uDst, E, nil, rng); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := sum(uSrc) + sum(uDst)
	if before != after {
		t.Fatalf("total individuals changed: before=%d after=%d", before, after)
	}
}

func sum(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}
