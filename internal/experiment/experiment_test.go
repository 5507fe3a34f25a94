package experiment

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/apid/internal/control"
	"github.com/san-kum/apid/internal/dynamo"
	"github.com/san-kum/apid/internal/integrators"
	"github.com/san-kum/apid/internal/plant"
	"github.com/san-kum/apid/internal/rbf"
	"github.com/san-kum/apid/internal/sim"
)

func TestRegistryLookups(t *testing.T) {
	reg := NewRegistry()

	for _, name := range reg.ListPlants() {
		if _, err := reg.GetPlant(name); err != nil {
			t.Errorf("plant %s: %v", name, err)
		}
	}
	for _, name := range reg.ListIntegrators() {
		if _, err := reg.GetIntegrator(name); err != nil {
			t.Errorf("integrator %s: %v", name, err)
		}
	}
	for _, name := range reg.ListControllers() {
		rng := rand.New(rand.NewSource(1))
		if _, err := reg.GetController(name, DefaultControllerParams(), rng); err != nil {
			t.Errorf("controller %s: %v", name, err)
		}
	}

	if _, err := reg.GetPlant("pendulum"); err == nil {
		t.Error("expected error for unknown plant")
	}
	if _, err := reg.GetIntegrator("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if _, err := reg.GetController("lqr", DefaultControllerParams(), nil); err == nil {
		t.Error("expected error for unknown controller")
	}
}

func TestRegistryAdaptiveRejectsBadParams(t *testing.T) {
	reg := NewRegistry()
	p := DefaultControllerParams()
	p.Sigma = 0

	_, err := reg.GetController("adaptive", p, rand.New(rand.NewSource(1)))
	if !errors.Is(err, rbf.ErrInvalidBandwidth) {
		t.Errorf("expected ErrInvalidBandwidth, got %v", err)
	}
}

func TestReferenceScenario(t *testing.T) {
	exp := New(DefaultConfig())
	if err := exp.Build(NewRegistry()); err != nil {
		t.Fatal(err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 100 {
		t.Errorf("expected 100 steps, got %d", result.StepsTaken)
	}

	// same closed loop built by hand from the same seed
	net, err := rbf.New(3, 5, rand.New(rand.NewSource(20)))
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := control.NewAdaptivePID(4.0, 0.1, 0.01, net)
	if err != nil {
		t.Fatal(err)
	}
	want, err := sim.New(plant.NewFirstOrder(), integrators.NewEuler(), ctrl).
		Run(context.Background(), dynamo.State{0}, exp.Config().SimConfig())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(result.Final().Measured-want.Final().Measured) > 1e-12 {
		t.Errorf("expected final %v, got %v", want.Final().Measured, result.Final().Measured)
	}

	for _, name := range []string{"iae", "control_effort", "correction_rms"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown plant", func(c *Config) { c.Plant = "drone" }},
		{"unknown integrator", func(c *Config) { c.Integrator = "leapfrog" }},
		{"unknown controller", func(c *Config) { c.Controller = "lqr" }},
		{"zero centers", func(c *Config) { c.Params.Centers = 0 }},
		{"bad plant param", func(c *Config) { c.PlantParams = map[string]float64{"tau": -1} }},
		{"unknown plant param", func(c *Config) { c.PlantParams = map[string]float64{"mass": 2} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := New(cfg).Build(reg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPlantParamsApplied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlantParams = map[string]float64{"tau": 2.5}

	exp := New(cfg)
	if err := exp.Build(NewRegistry()); err != nil {
		t.Fatal(err)
	}
	if tau := exp.Plant().(*plant.FirstOrder).Tau; tau != 2.5 {
		t.Errorf("expected tau 2.5, got %v", tau)
	}
}

func TestRunBeforeSetup(t *testing.T) {
	if _, err := New(DefaultConfig()).Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}
}

func TestInitStateDefaultsToPlantSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Plant = "second_order"

	exp := New(cfg)
	if err := exp.Build(NewRegistry()); err != nil {
		t.Fatal(err)
	}
	if x0 := exp.InitState(); len(x0) != 2 {
		t.Errorf("expected 2 state entries, got %d", len(x0))
	}
}

func TestEnsembleFactory(t *testing.T) {
	build := EnsembleFactory(NewRegistry(), DefaultConfig(), nil)

	a, err := build(20)
	if err != nil {
		t.Fatal(err)
	}
	b, err := build(20)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig().SimConfig()
	ra, err := a.Run(context.Background(), dynamo.State{0}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.Run(context.Background(), dynamo.State{0}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ra.Final() != rb.Final() {
		t.Error("expected equal seeds to reproduce the same run")
	}
}
