// Package control provides per-tick feedback controllers.
//
// Every controller implements [dynamo.Controller]:
//
//   - [AdaptivePID]: PID law plus a learned RBF correction, trained every tick
//   - [PID]: plain PID with live-tunable gains
//   - [LibPID]: PID backed by github.com/felixge/pidctrl, for comparison
//   - [None]: open loop (zero control)
//
// # Usage
//
//	net, _ := rbf.New(3, 5, rand.New(rand.NewSource(seed)))
//	ctrl, _ := control.NewAdaptivePID(4.0, 0.1, 0.01, net)
//	u, err := ctrl.Update(target, measured, dt)
//
// Update returns an error wrapping [dynamo.ErrInvalidTimestep] when dt is
// not positive, and leaves the controller state untouched.
package control
