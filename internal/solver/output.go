package solver

import "github.com/signalsfoundry/constellation-sim-solver/core"

// Result is everything Run hands back: the dense trajectory (a matrix the
// caller diverted to a sparse sink is left unwritten there) and the final
// state, which a caller needing only the endpoint can use without touching
// the trajectory at all. When a fatal error stops the day loop, Run returns
// the error together with a Result holding the columns sampled so far.
type Result struct {
	Dense *core.DenseOutput

	FinalU []int64
	FinalV []float64
}
