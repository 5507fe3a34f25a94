// Package plant provides the systems the controllers are exercised against.
//
// Each plant implements [dynamo.Plant] and [dynamo.Configurable]:
//
//   - [FirstOrder]: tau·dy/dt = K·u − y, the reference plant. With K = tau = 1
//     and Euler integration a tick is y += (u − y)·dt.
//   - [Nonlinear]: first-order lag with quadratic drag and actuator
//     saturation, the kind of mismatch a fixed-gain PID cannot absorb.
//   - [SecondOrder]: mass-spring-damper driven by a force input.
package plant
