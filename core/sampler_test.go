package core

import "testing"

func TestDenseOutput_InitWritesColumnZeroExactly(t *testing.T) {
	d := NewDenseOutput([]float64{0, 1, 2}, 1, 2, 0)
	d.Init(0, []int64{7, 3}, nil)

	if d.U[0][0] != 7 || d.U[0][1] != 3 {
		t.Fatalf("got column 0 = %v, want [7 3]", d.U[0][:2])
	}
}

func TestDenseOutput_SampleUsesStrictInequality(t *testing.T) {
	d := NewDenseOutput([]float64{0, 1, 2}, 1, 1, 0)
	d.Init(0, []int64{10}, nil)

	// Landing exactly on tspan[1] must not write it yet.
	d.Sample(0, 1, []int64{99}, nil)
	if d.U[0][1] != 0 {
		t.Fatalf("column 1 written at t == tspan[1], want untouched (still 0): got %d", d.U[0][1])
	}

	// Crossing past tspan[1] writes it with whatever the state was at the
	// moment of the call.
	d.Sample(0, 1.5, []int64{99}, nil)
	if d.U[0][1] != 99 {
		t.Fatalf("got column 1 = %d, want 99", d.U[0][1])
	}
}

func TestDenseOutput_SampleCanFillMultipleColumnsAtOnce(t *testing.T) {
	d := NewDenseOutput([]float64{0, 1, 2}, 1, 1, 0)
	d.Init(0, []int64{5}, nil)

	d.Sample(0, 3, []int64{8}, nil)
	if d.U[0][1] != 8 || d.U[0][2] != 8 {
		t.Fatalf("got columns [1,2] = [%d %d], want [8 8]", d.U[0][1], d.U[0][2])
	}
}

func TestSparseSinkFunc_Invoked(t *testing.T) {
	var got []int64
	sink := SparseSinkFunc(func(node int, t float64, u []int64, v []float64) {
		got = append(got, u...)
	})
	sink.Write(0, 1.0, []int64{1, 2}, nil)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}
