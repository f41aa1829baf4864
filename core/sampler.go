package core

// DenseOutput accumulates one column of compartment counts and continuous
// state per node at every tspan crossing. Column 0 always
// holds u0/v0 exactly (invariant 3) and is written once by Init; every
// later column is written by Sample using a strict tt > tspan[k]
// inequality so a day that lands exactly on a tspan value never writes
// that column twice.
type DenseOutput struct {
	Tspan         []float64
	NCompartments int
	NContinuous   int

	// U[node] and V[node] are flattened tspan-major matrices: U[node][k*NCompartments+c].
	U [][]int64
	V [][]float64

	cursor []int
}

// NewDenseOutput allocates a dense output buffer for nNodes nodes.
func NewDenseOutput(tspan []float64, nNodes, nCompartments, nContinuous int) *DenseOutput {
	d := &DenseOutput{
		Tspan:         tspan,
		NCompartments: nCompartments,
		NContinuous:   nContinuous,
		U:             make([][]int64, nNodes),
		V:             make([][]float64, nNodes),
		cursor:        make([]int, nNodes),
	}
	for n := 0; n < nNodes; n++ {
		d.U[n] = make([]int64, len(tspan)*nCompartments)
		if nContinuous > 0 {
			d.V[n] = make([]float64, len(tspan)*nContinuous)
		}
	}
	return d
}

// Init writes column 0 unconditionally and sets the node's cursor to 1.
func (d *DenseOutput) Init(node int, u []int64, v []float64) {
	d.writeColumn(node, 0, u, v)
	d.cursor[node] = 1
}

// Sample writes every tspan column the node's clock has newly crossed,
// using the (u, v) passed in for each of them: a column holds the state at
// time t, the time of the call, not the state at its own tspan point.
func (d *DenseOutput) Sample(node int, t float64, u []int64, v []float64) {
	for d.cursor[node] < len(d.Tspan) && t > d.Tspan[d.cursor[node]] {
		d.writeColumn(node, d.cursor[node], u, v)
		d.cursor[node]++
	}
}

func (d *DenseOutput) writeColumn(node, k int, u []int64, v []float64) {
	copy(d.U[node][k*d.NCompartments:(k+1)*d.NCompartments], u)
	if d.NContinuous > 0 {
		copy(d.V[node][k*d.NContinuous:(k+1)*d.NContinuous], v)
	}
}

// InitTo behaves like Init, but writes through uSink/vSink instead of the
// dense matrices when they're non-nil, letting a caller choose dense or
// sparse output independently for U and V — the two matrices are
// independently, not jointly, exclusive between dense and sparse.
func (d *DenseOutput) InitTo(node int, u []int64, v []float64, uSink, vSink SparseSink) {
	d.writeColumnTo(node, 0, u, v, uSink, vSink)
	d.cursor[node] = 1
}

// SampleTo behaves like Sample, but writes through uSink/vSink instead of
// the dense matrices when they're non-nil.
func (d *DenseOutput) SampleTo(node int, t float64, u []int64, v []float64, uSink, vSink SparseSink) {
	for d.cursor[node] < len(d.Tspan) && t > d.Tspan[d.cursor[node]] {
		d.writeColumnTo(node, d.cursor[node], u, v, uSink, vSink)
		d.cursor[node]++
	}
}

func (d *DenseOutput) writeColumnTo(node, k int, u []int64, v []float64, uSink, vSink SparseSink) {
	if uSink != nil {
		uSink.Write(node, d.Tspan[k], u, v)
	} else {
		copy(d.U[node][k*d.NCompartments:(k+1)*d.NCompartments], u)
	}
	if vSink != nil {
		vSink.Write(node, d.Tspan[k], u, v)
	} else if d.NContinuous > 0 {
		copy(d.V[node][k*d.NContinuous:(k+1)*d.NContinuous], v)
	}
}

// SparseSink receives one write per tspan crossing instead of the dense
// matrices above. Dense and sparse output are
// mutually exclusive per matrix (U or V), not globally exclusive, so a run
// can sample U densely while sinking V sparsely, or vice versa.
type SparseSink interface {
	Write(node int, t float64, u []int64, v []float64)
}

// SparseSinkFunc adapts a plain function to SparseSink.
type SparseSinkFunc func(node int, t float64, u []int64, v []float64)

func (f SparseSinkFunc) Write(node int, t float64, u []int64, v []float64) {
	f(node, t, u, v)
}
