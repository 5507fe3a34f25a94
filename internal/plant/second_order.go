package plant

import (
	"fmt"

	"github.com/san-kum/apid/internal/dynamo"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SecondOrder is a single mass on a spring with viscous damping. State is
// [position, velocity]; the measured output is the position.
type SecondOrder struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

func NewSecondOrder() *SecondOrder {
	return &SecondOrder{
		Mass:      DefaultMass,
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

func (s *SecondOrder) StateDim() int                 { return 2 }
func (s *SecondOrder) Output(x dynamo.State) float64 { return x[0] }

func (s *SecondOrder) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	pos, vel := x[0], x[1]
	force := input(u) - s.Stiffness*pos - s.Damping*vel
	return dynamo.State{vel, force / s.Mass}
}

// Energy is the kinetic plus spring potential energy.
func (s *SecondOrder) Energy(x dynamo.State) float64 {
	return 0.5*s.Mass*x[1]*x[1] + 0.5*s.Stiffness*x[0]*x[0]
}

func (s *SecondOrder) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      s.Mass,
		"stiffness": s.Stiffness,
		"damping":   s.Damping,
	}
}

func (s *SecondOrder) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		if value <= 0 {
			return fmt.Errorf("%w: mass=%v", dynamo.ErrParameterBounds, value)
		}
		s.Mass = value
	case "stiffness":
		s.Stiffness = value
	case "damping":
		s.Damping = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
