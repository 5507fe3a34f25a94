package sim

import (
	"fmt"

	"github.com/san-kum/apid/internal/dynamo"
)

// Loop is a closed loop advanced one tick at a time. Run drives a Loop to
// completion; the live view steps one directly.
type Loop struct {
	plant      dynamo.Plant
	integrator dynamo.Integrator
	controller dynamo.Controller
	x          dynamo.State
	t          float64
	step       int
	Validate   bool
}

func NewLoop(p dynamo.Plant, integ dynamo.Integrator, ctrl dynamo.Controller, x0 dynamo.State) *Loop {
	return &Loop{
		plant:      p,
		integrator: integ,
		controller: ctrl,
		x:          x0.Clone(),
		Validate:   true,
	}
}

// Step asks the controller for u given the current measurement, integrates
// the plant over dt and returns the tick with the post-step measurement.
// On error the loop is left where it was.
func (l *Loop) Step(target, dt float64) (dynamo.Sample, error) {
	measured := l.plant.Output(l.x)

	u, err := l.controller.Update(target, measured, dt)
	if err != nil {
		return dynamo.Sample{}, l.fail(err)
	}

	correction := 0.0
	if c, ok := l.controller.(dynamo.Corrector); ok {
		correction = c.LastCorrection()
	}

	next := l.integrator.Step(l.plant, l.x, dynamo.Control{u}, l.t, dt)
	if l.Validate && !next.IsValid() {
		return dynamo.Sample{}, l.fail(fmt.Errorf("%w: u=%v", dynamo.ErrInvalidState, u))
	}

	s := dynamo.Sample{
		Time:       l.t,
		Dt:         dt,
		Target:     target,
		Measured:   l.plant.Output(next),
		Control:    u,
		Correction: correction,
	}

	l.x = next
	l.t += dt
	l.step++
	return s, nil
}

func (l *Loop) fail(err error) error {
	return &dynamo.SimulationError{Step: l.step, Time: l.t, State: l.x.Clone(), Wrapped: err}
}

// Reset puts the plant back at x0 and time zero. Controller state is not
// touched; reset it separately if it implements dynamo.Resetter.
func (l *Loop) Reset(x0 dynamo.State) {
	l.x = x0.Clone()
	l.t = 0
	l.step = 0
}

func (l *Loop) State() dynamo.State           { return l.x.Clone() }
func (l *Loop) Time() float64                 { return l.t }
func (l *Loop) Output() float64               { return l.plant.Output(l.x) }
func (l *Loop) Controller() dynamo.Controller { return l.controller }
func (l *Loop) Plant() dynamo.Plant           { return l.plant }
