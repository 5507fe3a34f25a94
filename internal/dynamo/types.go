package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

type Control []float64

// Plant is the controlled system. Output maps the state to the scalar the
// controller measures.
type Plant interface {
	Derive(x State, u Control, t float64) State
	Output(x State) float64
	StateDim() int
}

type Integrator interface {
	Step(p Plant, x State, u Control, t float64, dt float64) State
}

// Controller is the per-tick control law. Update is called once per tick
// with the setpoint, the measured plant output and the tick length.
type Controller interface {
	Update(target, measured, dt float64) (float64, error)
}

// Corrector is implemented by controllers whose output carries a learned
// correction term.
type Corrector interface {
	LastCorrection() float64
}

type Resetter interface {
	Reset()
}

// Sample is one closed-loop tick as seen by metrics, observers and storage.
type Sample struct {
	Time       float64 `json:"time"`
	Dt         float64 `json:"dt"`
	Target     float64 `json:"target"`
	Measured   float64 `json:"measured"`
	Control    float64 `json:"control"`
	Correction float64 `json:"correction"`
}

// Error returns target minus measured.
func (s Sample) Error() float64 {
	return s.Target - s.Measured
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt            float64
	Duration      float64
	Target        float64
	Seed          int64
	ValidateState bool
	// DivergeAt stops the run with ErrUnstable once |measured| exceeds it.
	// Zero disables the check.
	DivergeAt float64
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.1,
		Duration:      10.0,
		Target:        1.0,
		Seed:          20,
		ValidateState: true,
		DivergeAt:     1e9,
	}
}

// MaxSteps bounds the tick count of a single run.
const MaxSteps = 50_000_000

// Steps returns the number of ticks a run of cfg takes, or 0 when cfg does
// not validate.
func (c Config) Steps() int {
	if c.Validate() != nil {
		return 0
	}
	return int(math.Round(c.Duration / c.Dt))
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt=%v", ErrInvalidTimestep, c.Dt)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive and finite, got %v", ErrParameterBounds, c.Duration)
	}
	if n := math.Round(c.Duration / c.Dt); n > MaxSteps {
		return fmt.Errorf("%w: %g ticks exceeds %d", ErrParameterBounds, n, MaxSteps)
	}
	return nil
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Series extracts one column of the samples.
func (r *Result) Series(field func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = field(s)
	}
	return out
}

// Final returns the last sample, or the zero Sample for an empty run.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}
