package plant

import (
	"fmt"

	"github.com/san-kum/apid/internal/dynamo"
)

const (
	DefaultGain = 1.0
	DefaultTau  = 1.0
)

type FirstOrder struct {
	Gain float64
	Tau  float64
}

func NewFirstOrder() *FirstOrder {
	return &FirstOrder{Gain: DefaultGain, Tau: DefaultTau}
}

func (p *FirstOrder) StateDim() int                 { return 1 }
func (p *FirstOrder) Output(x dynamo.State) float64 { return x[0] }

func (p *FirstOrder) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{(p.Gain*input(u) - x[0]) / p.Tau}
}

func (p *FirstOrder) GetParams() map[string]float64 {
	return map[string]float64{"gain": p.Gain, "tau": p.Tau}
}

func (p *FirstOrder) SetParam(name string, value float64) error {
	switch name {
	case "gain":
		p.Gain = value
	case "tau":
		if value <= 0 {
			return fmt.Errorf("%w: tau=%v", dynamo.ErrParameterBounds, value)
		}
		p.Tau = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}

func input(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}
