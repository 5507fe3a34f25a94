// Package experiment assembles a plant, an integrator and a controller by
// name and runs them as one closed-loop simulation.
package experiment

import (
	"context"
	"fmt"
	"maps"
	"math/rand"
	"slices"

	"go.uber.org/zap"

	"github.com/san-kum/apid/internal/dynamo"
	"github.com/san-kum/apid/internal/metrics"
	"github.com/san-kum/apid/internal/sim"
)

type Config struct {
	Plant       string
	Integrator  string
	Controller  string
	InitState   []float64
	Dt          float64
	Duration    float64
	Target      float64
	Seed        int64
	Params      ControllerParams
	PlantParams map[string]float64
}

// DefaultConfig is the reference scenario: a unit step on the first-order
// plant, Euler at dt 0.1 for 10s, adaptive PID seeded with 20.
func DefaultConfig() Config {
	return Config{
		Plant:      "first_order",
		Integrator: "euler",
		Controller: "adaptive",
		Dt:         0.1,
		Duration:   10.0,
		Target:     1.0,
		Seed:       20,
		Params:     DefaultControllerParams(),
	}
}

// SimConfig returns the simulator settings for c.
func (c Config) SimConfig() dynamo.Config {
	simCfg := dynamo.DefaultConfig()
	simCfg.Dt = c.Dt
	simCfg.Duration = c.Duration
	simCfg.Target = c.Target
	simCfg.Seed = c.Seed
	return simCfg
}

type Experiment struct {
	cfg        Config
	plant      dynamo.Plant
	integrator dynamo.Integrator
	controller dynamo.Controller
	simulator  *sim.Simulator
	randSource *rand.Rand
}

func New(cfg Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Build resolves the configured names in reg, applies plant parameters and
// wires the default metrics. The approximator, if any, draws from the
// experiment's seeded source.
func (e *Experiment) Build(reg *Registry) error {
	p, err := reg.GetPlant(e.cfg.Plant)
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(e.cfg.PlantParams)) {
		c, ok := p.(dynamo.Configurable)
		if !ok {
			return fmt.Errorf("plant %s takes no parameters", e.cfg.Plant)
		}
		if err := c.SetParam(name, e.cfg.PlantParams[name]); err != nil {
			return fmt.Errorf("plant %s: %w", e.cfg.Plant, err)
		}
	}

	integ, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	ctrl, err := reg.GetController(e.cfg.Controller, e.cfg.Params, e.randSource)
	if err != nil {
		return fmt.Errorf("controller %s: %w", e.cfg.Controller, err)
	}

	return e.Setup(p, integ, ctrl, metrics.Default())
}

func (e *Experiment) Setup(p dynamo.Plant, integrator dynamo.Integrator, controller dynamo.Controller, ms []dynamo.Metric) error {
	if p == nil || integrator == nil || controller == nil {
		return fmt.Errorf("experiment needs a plant, an integrator and a controller")
	}
	e.plant = p
	e.integrator = integrator
	e.controller = controller
	e.simulator = sim.New(p, integrator, controller)
	for _, m := range ms {
		e.simulator.AddMetric(m)
	}
	return nil
}

// InitState returns the configured initial state, or zeros sized for the
// plant when none was given.
func (e *Experiment) InitState() dynamo.State {
	if len(e.cfg.InitState) == 0 && e.plant != nil {
		return make(dynamo.State, e.plant.StateDim())
	}
	x0 := make(dynamo.State, len(e.cfg.InitState))
	copy(x0, e.cfg.InitState)
	return x0
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.InitState(), e.cfg.SimConfig())
}

// Loop returns a fresh single-step loop over the same components, for
// callers that drive ticks themselves.
func (e *Experiment) Loop() (*sim.Loop, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return sim.NewLoop(e.plant, e.integrator, e.controller, e.InitState()), nil
}

func (e *Experiment) SetLogger(l *zap.Logger) {
	if e.simulator != nil {
		e.simulator.SetLogger(l)
	}
}

func (e *Experiment) Config() Config                { return e.cfg }
func (e *Experiment) Simulator() *sim.Simulator     { return e.simulator }
func (e *Experiment) Controller() dynamo.Controller { return e.controller }
func (e *Experiment) Plant() dynamo.Plant           { return e.plant }

// EnsembleFactory builds an independent experiment per seed from cfg.
func EnsembleFactory(reg *Registry, cfg Config, log *zap.Logger) sim.Factory {
	return func(seed int64) (*sim.Simulator, error) {
		c := cfg
		c.Seed = seed
		exp := New(c)
		if err := exp.Build(reg); err != nil {
			return nil, err
		}
		exp.SetLogger(log)
		return exp.Simulator(), nil
	}
}
