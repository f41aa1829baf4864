package solver

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/constellation-sim-solver/model"
)

func validConfig(t *testing.T) *RunConfig {
	t.Helper()
	N := cscValued(t, 1, 2, []int32{0, 0}, []int32{0, 1, 2}, []float64{1, -1})
	G := cscStructural(t, 2, 2, []int32{0, 1, 0, 1}, []int32{0, 2, 4})
	E := cscStructural(t, 1, 1, []int32{0}, []int32{0, 1})

	return &RunConfig{
		NNodes:        1,
		NCompartments: 1,
		NTransitions:  2,
		NThreads:      2,
		U0:            []int64{5},
		N:             N,
		G:             G,
		E:             E,
		Propensities:  zeroRateProps(),
		Tspan:         []float64{0, 1},
	}
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_DefaultsNThreadsWhenNonPositive(t *testing.T) {
	cfg := validConfig(t)
	cfg.NThreads = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.NThreads != 1 {
		t.Fatalf("got NThreads=%d, want defaulted to 1", cfg.NThreads)
	}
}

func TestValidate_DefaultsEventsWhenNil(t *testing.T) {
	cfg := validConfig(t)
	cfg.Events = nil
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Events == nil {
		t.Fatalf("got nil Events, want defaulted to an empty stream")
	}
}

func TestValidate_RejectsNonPositiveDimensions(t *testing.T) {
	cases := map[string]func(*RunConfig){
		"NNodes":        func(c *RunConfig) { c.NNodes = 0 },
		"NCompartments": func(c *RunConfig) { c.NCompartments = 0 },
		"NTransitions":  func(c *RunConfig) { c.NTransitions = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig(t)
			mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidate_RejectsEmptyTspan(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tspan = nil
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestValidate_RejectsNonIncreasingTspan(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tspan = []float64{0, 1, 1, 2}
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestValidate_RejectsMismatchedU0Length(t *testing.T) {
	cfg := validConfig(t)
	cfg.U0 = []int64{1, 2, 3}
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestValidate_RejectsMismatchedV0LengthWhenContinuousPresent(t *testing.T) {
	cfg := validConfig(t)
	cfg.NContinuous = 1
	cfg.V0 = nil
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestValidate_RejectsWrongShapedN(t *testing.T) {
	cfg := validConfig(t)
	cfg.N = cscValued(t, 1, 1, []int32{0}, []int32{0, 1}, []float64{1})
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestValidate_RejectsPropensitiesLengthMismatch(t *testing.T) {
	cfg := validConfig(t)
	cfg.Propensities = cfg.Propensities[:1]
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestValidate_RejectsNilPropensityEntry(t *testing.T) {
	cfg := validConfig(t)
	cfg.Propensities = []model.Propensity{nil, nil}
	if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}
