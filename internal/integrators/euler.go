package integrators

import "github.com/san-kum/apid/internal/dynamo"

// Euler is the explicit forward step x += dt·f(x, u, t). On the reference
// first-order plant this is exactly y += (u − y)·dt.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(p dynamo.Plant, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := p.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
