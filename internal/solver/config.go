package solver

import (
	"github.com/signalsfoundry/constellation-sim-solver/core"
	"github.com/signalsfoundry/constellation-sim-solver/internal/observability"
	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// RunConfig is the full set of inputs to one simulation run, the Go
// equivalent of the arguments siminf_run.c assembles from the host's S4
// object before ever allocating a single buffer. Validate must be called,
// and must succeed, before any buffer is allocated — an invalid config
// should fail fast and cheap.
type RunConfig struct {
	NNodes        int
	NCompartments int
	NTransitions  int
	NContinuous   int
	NThreads      int
	NLocalData    int

	Seed *uint64

	// U0 is the nNodes*nCompartments initial compartment counts, node-major.
	U0 []int64
	// V0 is the nNodes*nContinuous initial continuous state, node-major.
	V0 []float64
	// LData is the nNodes*nLocalData per-node local data vector, node-major.
	LData []float64
	// GData is the global data vector shared read-only by every node.
	GData []float64

	N *model.CSC // state-change matrix: nCompartments x nTransitions
	G *model.CSC // dependency graph: nTransitions x nTransitions, structural
	E *model.CSC // selection matrix: nCompartments x (number of selection sets), structural
	S *model.CSC // shift matrix: nCompartments x (number of shift sets)

	Propensities []model.Propensity
	PostStep     model.PostStepper

	Events *core.EventStream

	// Tspan is the strictly increasing set of times at which dense output is
	// sampled; Tspan[0] is the run's start time and Tspan[len-1] its horizon.
	Tspan []float64

	// USink and VSink, when non-nil, divert that matrix's output to a
	// sparse sink instead of the dense buffers Run otherwise allocates —
	// set independently: each matrix's dense and sparse output need only
	// be mutually exclusive with itself.
	USink core.SparseSink
	VSink core.SparseSink

	Metrics    *observability.RunCollector
	SSAMetrics *observability.SSACollector
}

// Validate checks RunConfig for internal consistency, following
// siminf_run.c's convention of rejecting malformed input before any
// allocation happens. Every failure is an INVALID_INPUT SolverError.
func (c *RunConfig) Validate() error {
	if c.NNodes <= 0 {
		return model.NewSolverError(model.ErrCodeInvalidInput, "NNodes must be positive")
	}
	if c.NCompartments <= 0 {
		return model.NewSolverError(model.ErrCodeInvalidInput, "NCompartments must be positive")
	}
	if c.NTransitions <= 0 {
		return model.NewSolverError(model.ErrCodeInvalidInput, "NTransitions must be positive")
	}
	if c.NThreads <= 0 {
		c.NThreads = 1
	}
	if len(c.Tspan) == 0 {
		return model.NewSolverError(model.ErrCodeInvalidInput, "Tspan must contain at least one time point")
	}
	for i := 1; i < len(c.Tspan); i++ {
		if c.Tspan[i] <= c.Tspan[i-1] {
			return model.NewSolverError(model.ErrCodeInvalidInput, "Tspan must be strictly increasing")
		}
	}

	if len(c.U0) != c.NNodes*c.NCompartments {
		return model.NewSolverError(model.ErrCodeInvalidInput, "U0 length does not match NNodes*NCompartments")
	}
	if c.NContinuous > 0 && len(c.V0) != c.NNodes*c.NContinuous {
		return model.NewSolverError(model.ErrCodeInvalidInput, "V0 length does not match NNodes*NContinuous")
	}
	if c.NLocalData > 0 && len(c.LData) != c.NNodes*c.NLocalData {
		return model.NewSolverError(model.ErrCodeInvalidInput, "LData length does not match NNodes*NLocalData")
	}

	if c.N == nil || c.N.NRows != c.NCompartments || c.N.NCols != c.NTransitions {
		return model.NewSolverError(model.ErrCodeInvalidInput, "N must be an NCompartments x NTransitions matrix")
	}
	if c.G == nil || c.G.NRows != c.NTransitions || c.G.NCols != c.NTransitions {
		return model.NewSolverError(model.ErrCodeInvalidInput, "G must be an NTransitions x NTransitions matrix")
	}
	if c.E == nil || c.E.NRows != c.NCompartments {
		return model.NewSolverError(model.ErrCodeInvalidInput, "E must have NCompartments rows")
	}

	if len(c.Propensities) != c.NTransitions {
		return model.NewSolverError(model.ErrCodeInvalidInput, "Propensities length does not match NTransitions")
	}
	for _, p := range c.Propensities {
		if p == nil {
			return model.NewSolverError(model.ErrCodeInvalidInput, "Propensities must not contain a nil entry")
		}
	}

	if c.Events == nil {
		c.Events = &core.EventStream{}
	}

	return nil
}
