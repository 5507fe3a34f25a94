package integrators

import "github.com/san-kum/apid/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta step. u is held for the
// whole step, matching the once-per-tick controller update.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(p dynamo.Plant, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	half := dt / 2
	k1 := p.Derive(x, u, t)
	k2 := p.Derive(x.Add(k1.Scale(half)), u, t+half)
	k3 := p.Derive(x.Add(k2.Scale(half)), u, t+half)
	k4 := p.Derive(x.Add(k3.Scale(dt)), u, t+dt)

	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}
