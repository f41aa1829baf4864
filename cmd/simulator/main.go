// Command simulator runs a minimal SISe-style susceptible/infected
// disease-spread model on top of the solver package, the same shape of
// demo the original C solver ships as its reference model: two
// compartments (S, I), two transitions (infection and recovery), and a
// seasonally forced environmental infectious pressure updated once per
// day by a post-step callback.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/signalsfoundry/constellation-sim-solver/core"
	"github.com/signalsfoundry/constellation-sim-solver/internal/logging"
	"github.com/signalsfoundry/constellation-sim-solver/internal/observability"
	"github.com/signalsfoundry/constellation-sim-solver/internal/solver"
	"github.com/signalsfoundry/constellation-sim-solver/model"
)

// Compartment offsets into u, matching the original SISe model's enum.
const (
	compS = 0
	compI = 1
)

// Continuous-state offset into v.
const compPHI = 0

// Global-data offsets into gdata.
const (
	gdUpsilon = 0
	gdGamma   = 1
	gdAlpha   = 2
	gdBetaT1  = 3
	gdBetaT2  = 4
	gdBetaT3  = 5
	gdBetaT4  = 6
	gdEpsilon = 7
)

type nodeInit struct {
	S int64 `json:"s"`
	I int64 `json:"i"`
}

type scenario struct {
	Nodes []nodeInit `json:"nodes"`
}

func main() {
	var (
		nNodes       = flag.Int("nodes", 1, "number of nodes (ignored if -scenario is set)")
		days         = flag.Int("days", 100, "number of simulated days")
		threads      = flag.Int("threads", runtime.NumCPU(), "number of worker goroutines")
		seed         = flag.Uint64("seed", 0, "master RNG seed (0 draws from the wall clock)")
		s0           = flag.Int64("s0", 99, "initial susceptible count per node")
		i0           = flag.Int64("i0", 1, "initial infected count per node")
		upsilon      = flag.Float64("upsilon", 0.005, "per-contact infection rate scaling")
		gamma        = flag.Float64("gamma", 0.1, "recovery rate")
		alpha        = flag.Float64("alpha", 1.0, "infectious-pressure gain from the current infected fraction")
		epsilon      = flag.Float64("epsilon", 1e-4, "baseline infectious pressure")
		beta1        = flag.Float64("beta1", 0.05, "seasonal pressure decay, quarter 1")
		beta2        = flag.Float64("beta2", 0.02, "seasonal pressure decay, quarter 2")
		beta3        = flag.Float64("beta3", 0.05, "seasonal pressure decay, quarter 3")
		beta4        = flag.Float64("beta4", 0.02, "seasonal pressure decay, quarter 4")
		scenarioPath = flag.String("scenario", "", "path to a JSON scenario file overriding -nodes/-s0/-i0")
		metricsAddr  = flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address until the run completes")
		logLevel     = flag.String("log-level", "info", "debug, info, warn, or error")
		logFormat    = flag.String("log-format", "text", "text or json")
	)
	flag.Parse()

	log := logging.New(logging.Config{Level: *logLevel, Format: *logFormat, AddSource: false})
	ctx := context.Background()

	nodes, err := loadScenario(*scenarioPath, *nNodes, *s0, *i0)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("error", err.Error()))
		os.Exit(model.ExitCode(err))
	}

	registry, collector, ssaCollector := mustCollectors()
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, registry, log)
	}

	cfg := buildConfig(nodes, *days, *threads, *seed, *upsilon, *gamma, *alpha, *epsilon, *beta1, *beta2, *beta3, *beta4, collector, ssaCollector)

	result, err := solver.Run(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "run failed", logging.String("error", err.Error()))
		os.Exit(model.ExitCode(err))
	}

	printTrajectory(cfg, result)
}

func loadScenario(path string, nNodes int, s0, i0 int64) ([]nodeInit, error) {
	if path == "" {
		nodes := make([]nodeInit, nNodes)
		for i := range nodes {
			nodes[i] = nodeInit{S: s0, I: i0}
		}
		return nodes, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewSolverError(model.ErrCodeInvalidInput, fmt.Sprintf("open scenario: %v", err))
	}
	defer f.Close()

	var sc scenario
	if err := json.NewDecoder(f).Decode(&sc); err != nil {
		return nil, model.NewSolverError(model.ErrCodeInvalidInput, fmt.Sprintf("decode scenario: %v", err))
	}
	if len(sc.Nodes) == 0 {
		return nil, model.NewSolverError(model.ErrCodeInvalidInput, "scenario file defines no nodes")
	}
	return sc.Nodes, nil
}

func mustCollectors() (*prometheusRegistryBundle, *observability.RunCollector, *observability.SSACollector) {
	reg := newPrometheusRegistry()
	collector, err := observability.NewRunCollector(reg.registerer)
	if err != nil {
		panic(err)
	}
	ssaCollector, err := observability.NewSSACollector(reg.registerer)
	if err != nil {
		panic(err)
	}
	return reg, collector, ssaCollector
}

func serveMetrics(addr string, reg *prometheusRegistryBundle, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.handler())
	log.Info(context.Background(), "serving metrics", logging.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn(context.Background(), "metrics server stopped", logging.String("error", err.Error()))
	}
}

func buildConfig(nodes []nodeInit, days, threads int, seed uint64, upsilon, gamma, alpha, epsilon, beta1, beta2, beta3, beta4 float64, collector *observability.RunCollector, ssaCollector *observability.SSACollector) *solver.RunConfig {
	nNodes := len(nodes)

	u0 := make([]int64, nNodes*2)
	v0 := make([]float64, nNodes)
	for i, n := range nodes {
		u0[i*2+compS] = n.S
		u0[i*2+compI] = n.I
		v0[i] = epsilon
	}

	gdata := []float64{upsilon, gamma, alpha, beta1, beta2, beta3, beta4, epsilon}

	N, _ := model.NewCSCFromFloat64(2, 2, []int32{0, 1, 0, 1}, []int32{0, 2, 4}, []float64{-1, 1, 1, -1})
	G, _ := model.NewCSCStructural(2, 2, []int32{0, 1, 0, 1}, []int32{0, 2, 4})
	E, _ := model.NewCSCStructural(2, 2, []int32{compS, compI}, []int32{0, 1, 2})

	props := []model.Propensity{
		model.PropensityFunc(susceptibleToInfected),
		model.PropensityFunc(infectedToSusceptible),
	}

	tspan := make([]float64, days+1)
	for i := range tspan {
		tspan[i] = float64(i)
	}

	var seedPtr *uint64
	if seed != 0 {
		seedPtr = &seed
	}

	return &solver.RunConfig{
		NNodes:        nNodes,
		NCompartments: 2,
		NTransitions:  2,
		NContinuous:   1,
		NThreads:      threads,
		Seed:          seedPtr,
		U0:            u0,
		V0:            v0,
		GData:         gdata,
		N:             N,
		G:             G,
		E:             E,
		Propensities:  props,
		PostStep:      model.PostStepFunc(postTimeStep),
		Events:        &core.EventStream{},
		Tspan:         tspan,
		Metrics:       collector,
		SSAMetrics:    ssaCollector,
	}
}

func susceptibleToInfected(u []int64, v, ldata, gdata []float64, t float64) float64 {
	return gdata[gdUpsilon] * v[compPHI] * float64(u[compS])
}

func infectedToSusceptible(u []int64, v, ldata, gdata []float64, t float64) float64 {
	return gdata[gdGamma] * float64(u[compI])
}

// postTimeStep mirrors the original model's seasonal forward-Euler update
// of the environmental infectious pressure phi, split into four
// calendar-quarter decay rates plus a gain proportional to the current
// infected fraction.
func postTimeStep(vNew []float64, u []int64, v []float64, ldata, gdata []float64, nodeID int, t float64) (model.StepResult, error) {
	const daysInYear = 365
	const daysInQuarter = 91

	s := float64(u[compS])
	i := float64(u[compI])
	phi := v[compPHI]

	switch (int(t) % daysInYear) / daysInQuarter {
	case 0:
		phi *= 1 - gdata[gdBetaT1]
	case 1:
		phi *= 1 - gdata[gdBetaT2]
	case 2:
		phi *= 1 - gdata[gdBetaT3]
	default:
		phi *= 1 - gdata[gdBetaT4]
	}

	if s+i > 0 {
		phi += gdata[gdAlpha]*i/(s+i) + gdata[gdEpsilon]
	} else {
		phi += gdata[gdEpsilon]
	}

	vNew[compPHI] = phi
	if phi != v[compPHI] {
		return model.Update, nil
	}
	return model.NoUpdate, nil
}

func printTrajectory(cfg *solver.RunConfig, result *solver.Result) {
	fmt.Printf("%6s", "day")
	for node := 0; node < cfg.NNodes; node++ {
		fmt.Printf("  node%d:S  node%d:I", node, node)
	}
	fmt.Println()

	if result.Dense == nil {
		return
	}
	for k, day := range cfg.Tspan {
		fmt.Printf("%6.0f", day)
		for node := 0; node < cfg.NNodes; node++ {
			s := result.Dense.U[node][k*cfg.NCompartments+compS]
			i := result.Dense.U[node][k*cfg.NCompartments+compI]
			fmt.Printf("  %7d  %7d", s, i)
		}
		fmt.Println()
	}
}
