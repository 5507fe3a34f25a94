package control

import (
	"errors"
	"fmt"

	"github.com/san-kum/apid/internal/dynamo"
	"github.com/san-kum/apid/internal/rbf"
)

// StateDim is the length of the vector fed to the approximator:
// error, integral of error, derivative of error.
const StateDim = 3

var ErrNilApproximator = errors.New("control: nil approximator")

// AdaptivePID blends a PID law with a correction predicted by an RBF
// approximator from the current [error, integral, derivative] vector. Every
// Update is both an inference step and a training step.
//
// The approximator is trained toward the raw setpoint, not toward the
// residual correction.
type AdaptivePID struct {
	kp, ki, kd float64
	approx     rbf.Approximator

	prevErr    float64
	err        float64
	integral   float64
	derivative float64

	lastPID        float64
	lastCorrection float64
}

// NewAdaptivePID returns a controller with zeroed PID state. approx is shared,
// not owned: the caller may keep using it, but must not drive it from
// another goroutine unless it is wrapped in rbf.Synchronized.
func NewAdaptivePID(kp, ki, kd float64, approx rbf.Approximator) (*AdaptivePID, error) {
	if approx == nil {
		return nil, ErrNilApproximator
	}
	if approx.InputDim() != StateDim {
		return nil, fmt.Errorf("%w: approximator input dim %d, want %d",
			dynamo.ErrDimensionMismatch, approx.InputDim(), StateDim)
	}
	return &AdaptivePID{kp: kp, ki: ki, kd: kd, approx: approx}, nil
}

func (a *AdaptivePID) Update(target, measured, dt float64) (float64, error) {
	if err := checkTimestep(dt); err != nil {
		return 0, err
	}

	e := target - measured
	integral := a.integral + e*dt
	derivative := (e - a.prevErr) / dt

	pid := a.kp*e + a.ki*integral + a.kd*derivative

	x := []float64{e, integral, derivative}
	var correction float64
	if pt, ok := a.approx.(rbf.PredictTrainer); ok {
		correction = pt.PredictAndTrain(x, target)
	} else {
		correction = a.approx.Predict(x)
		a.approx.Train(x, target)
	}

	a.err = e
	a.integral = integral
	a.derivative = derivative
	a.prevErr = e
	a.lastPID = pid
	a.lastCorrection = correction

	return pid + correction, nil
}

func (a *AdaptivePID) LastError() float64  { return a.err }
func (a *AdaptivePID) Integral() float64   { return a.integral }
func (a *AdaptivePID) Derivative() float64 { return a.derivative }
func (a *AdaptivePID) PrevError() float64  { return a.prevErr }

// LastPIDTerm is the linear part of the most recent output.
func (a *AdaptivePID) LastPIDTerm() float64 { return a.lastPID }

// LastCorrection is the approximator's contribution to the most recent output.
func (a *AdaptivePID) LastCorrection() float64 { return a.lastCorrection }

func (a *AdaptivePID) Gains() (kp, ki, kd float64) { return a.kp, a.ki, a.kd }

func (a *AdaptivePID) Approximator() rbf.Approximator { return a.approx }

// Reset zeroes the PID state. Learned weights are kept.
func (a *AdaptivePID) Reset() {
	a.prevErr, a.err, a.integral, a.derivative = 0, 0, 0, 0
	a.lastPID, a.lastCorrection = 0, 0
}

func (a *AdaptivePID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": a.kp,
		"Ki": a.ki,
		"Kd": a.kd,
	}
}

// SetParam always fails: gains are fixed at construction.
func (a *AdaptivePID) SetParam(name string, value float64) error {
	switch name {
	case "Kp", "Ki", "Kd":
		return fmt.Errorf("%w: %s", dynamo.ErrImmutableParam, name)
	}
	return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
}
