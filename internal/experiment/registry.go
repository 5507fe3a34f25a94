package experiment

import (
	"fmt"
	"maps"
	"math/rand"
	"slices"

	"github.com/san-kum/apid/internal/control"
	"github.com/san-kum/apid/internal/dynamo"
	"github.com/san-kum/apid/internal/integrators"
	"github.com/san-kum/apid/internal/plant"
	"github.com/san-kum/apid/internal/rbf"
)

// ControllerParams carries every knob a registered controller may read.
// Fields a controller does not use are ignored.
type ControllerParams struct {
	Kp float64
	Ki float64
	Kd float64

	Centers      int
	Sigma        float64
	LearningRate float64
	GridCenters  bool
	ZeroWeights  bool

	// OutputLimit clamps libpid output to ±OutputLimit when positive.
	OutputLimit float64
}

// DefaultControllerParams is the reference tuning: Kp 4, Ki 0.1, Kd 0.01
// with five centers at the default bandwidth and learning rate.
func DefaultControllerParams() ControllerParams {
	return ControllerParams{
		Kp:           4.0,
		Ki:           0.1,
		Kd:           0.01,
		Centers:      5,
		Sigma:        rbf.DefaultSigma,
		LearningRate: rbf.DefaultLearningRate,
	}
}

type ControllerFactory func(p ControllerParams, rng *rand.Rand) (dynamo.Controller, error)

type Registry struct {
	plants      map[string]func() dynamo.Plant
	integrators map[string]func() dynamo.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		plants:      make(map[string]func() dynamo.Plant),
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.plants["first_order"] = func() dynamo.Plant { return plant.NewFirstOrder() }
	r.plants["nonlinear"] = func() dynamo.Plant { return plant.NewNonlinear() }
	r.plants["second_order"] = func() dynamo.Plant { return plant.NewSecondOrder() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.controllers["adaptive"] = newAdaptive
	r.controllers["pid"] = func(p ControllerParams, _ *rand.Rand) (dynamo.Controller, error) {
		return control.NewPID(p.Kp, p.Ki, p.Kd), nil
	}
	r.controllers["libpid"] = func(p ControllerParams, _ *rand.Rand) (dynamo.Controller, error) {
		c := control.NewLibPID(p.Kp, p.Ki, p.Kd)
		if p.OutputLimit > 0 {
			c.SetOutputLimits(-p.OutputLimit, p.OutputLimit)
		}
		return c, nil
	}
	r.controllers["none"] = func(ControllerParams, *rand.Rand) (dynamo.Controller, error) {
		return control.NewNone(), nil
	}

	return r
}

func newAdaptive(p ControllerParams, rng *rand.Rand) (dynamo.Controller, error) {
	opts := []rbf.Option{
		rbf.WithSigma(p.Sigma),
		rbf.WithLearningRate(p.LearningRate),
	}
	if p.GridCenters {
		opts = append(opts, rbf.WithGridCenters())
	}
	if p.ZeroWeights {
		opts = append(opts, rbf.WithZeroWeights())
	}

	net, err := rbf.New(control.StateDim, p.Centers, rng, opts...)
	if err != nil {
		return nil, err
	}
	return control.NewAdaptivePID(p.Kp, p.Ki, p.Kd, net)
}

// RegisterController adds or replaces a controller under name.
func (r *Registry) RegisterController(name string, f ControllerFactory) {
	r.controllers[name] = f
}

func (r *Registry) GetPlant(name string) (dynamo.Plant, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, p ControllerParams, rng *rand.Rand) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(p, rng)
}

func (r *Registry) ListPlants() []string      { return slices.Sorted(maps.Keys(r.plants)) }
func (r *Registry) ListIntegrators() []string { return slices.Sorted(maps.Keys(r.integrators)) }
func (r *Registry) ListControllers() []string { return slices.Sorted(maps.Keys(r.controllers)) }
