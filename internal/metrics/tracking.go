package metrics

import (
	"math"

	"github.com/san-kum/apid/internal/dynamo"
)

// IAE integrates |target - measured| over time.
type IAE struct {
	sum float64
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s dynamo.Sample) {
	m.sum += math.Abs(s.Error()) * s.Dt
}

func (m *IAE) Value() float64 { return m.sum }
func (m *IAE) Reset()         { m.sum = 0 }

// ISE integrates the squared tracking error over time.
type ISE struct {
	sum float64
}

func NewISE() *ISE { return &ISE{} }

func (m *ISE) Name() string { return "ise" }

func (m *ISE) Observe(s dynamo.Sample) {
	e := s.Error()
	m.sum += e * e * s.Dt
}

func (m *ISE) Value() float64 { return m.sum }
func (m *ISE) Reset()         { m.sum = 0 }

// FinalError is |target - measured| at the last tick.
type FinalError struct {
	last float64
}

func NewFinalError() *FinalError { return &FinalError{} }

func (m *FinalError) Name() string            { return "final_error" }
func (m *FinalError) Observe(s dynamo.Sample) { m.last = math.Abs(s.Error()) }
func (m *FinalError) Value() float64          { return m.last }
func (m *FinalError) Reset()                  { m.last = 0 }
