// Package dynamo provides the shared primitives of the closed-loop lab.
//
// The package defines the interfaces every other package plugs into:
//
//   - [State]: vector representing plant state
//   - [Plant]: interface for the controlled system (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper for a [Plant]
//   - [Controller]: per-tick control law, Update(target, measured, dt)
//   - [Metric] and [Observer]: per-tick consumers of a [Sample]
//
// # Example
//
//	net, _ := rbf.New(3, 5, rand.New(rand.NewSource(20)))
//	ctrl, _ := control.NewAdaptivePID(4.0, 0.1, 0.01, net)
//	u, err := ctrl.Update(1.0, y, 0.1)
//
// # Thread Safety
//
// Controllers and plants are NOT thread-safe. For parallel runs give each
// goroutine its own controller and approximator (see sim.Ensemble).
package dynamo
