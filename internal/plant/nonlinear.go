package plant

import (
	"fmt"
	"math"

	"github.com/san-kum/apid/internal/dynamo"
)

const (
	DefaultDrag       = 0.5
	DefaultSaturation = 5.0
)

// Nonlinear is a first-order lag with drag proportional to y·|y| and an
// actuator that saturates smoothly at ±Saturation. Saturation <= 0 disables
// the limit.
type Nonlinear struct {
	Gain       float64
	Tau        float64
	Drag       float64
	Saturation float64
}

func NewNonlinear() *Nonlinear {
	return &Nonlinear{
		Gain:       DefaultGain,
		Tau:        DefaultTau,
		Drag:       DefaultDrag,
		Saturation: DefaultSaturation,
	}
}

func (p *Nonlinear) StateDim() int                 { return 1 }
func (p *Nonlinear) Output(x dynamo.State) float64 { return x[0] }

func (p *Nonlinear) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	y := x[0]
	return dynamo.State{(p.Gain*p.actuate(input(u)) - y - p.Drag*y*math.Abs(y)) / p.Tau}
}

func (p *Nonlinear) actuate(u float64) float64 {
	if p.Saturation <= 0 {
		return u
	}
	return p.Saturation * math.Tanh(u/p.Saturation)
}

func (p *Nonlinear) GetParams() map[string]float64 {
	return map[string]float64{
		"gain":       p.Gain,
		"tau":        p.Tau,
		"drag":       p.Drag,
		"saturation": p.Saturation,
	}
}

func (p *Nonlinear) SetParam(name string, value float64) error {
	switch name {
	case "gain":
		p.Gain = value
	case "tau":
		if value <= 0 {
			return fmt.Errorf("%w: tau=%v", dynamo.ErrParameterBounds, value)
		}
		p.Tau = value
	case "drag":
		p.Drag = value
	case "saturation":
		p.Saturation = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
