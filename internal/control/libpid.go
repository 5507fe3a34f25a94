package control

import (
	"time"

	"github.com/felixge/pidctrl"
)

// LibPID adapts pidctrl.PIDController to the per-tick contract. pidctrl
// differentiates the measurement rather than the error, so its response
// to setpoint changes differs from PID.
type LibPID struct {
	ctrl *pidctrl.PIDController
}

func NewLibPID(kp, ki, kd float64) *LibPID {
	return &LibPID{ctrl: pidctrl.NewPIDController(kp, ki, kd)}
}

// SetOutputLimits clamps the controller output.
func (l *LibPID) SetOutputLimits(min, max float64) *LibPID {
	l.ctrl.SetOutputLimits(min, max)
	return l
}

func (l *LibPID) Update(target, measured, dt float64) (float64, error) {
	if err := checkTimestep(dt); err != nil {
		return 0, err
	}
	l.ctrl.Set(target)
	return l.ctrl.UpdateDuration(measured, time.Duration(dt*float64(time.Second))), nil
}
