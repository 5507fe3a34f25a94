// Package viz provides a live terminal view of a closed loop.
//
// The view is a Bubble Tea model that steps a [sim.Loop] on a timer and
// charts target, measurement and control as they evolve.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	S     - Single step while paused
//	R     - Reset plant and controller state
//	+/-   - Raise/lower the setpoint
//	Tab   - Cycle plant parameters
//	Up/K  - Increase parameter (+5%)
//	Down/J- Decrease parameter (-5%)
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
