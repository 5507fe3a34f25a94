package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/apid/internal/dynamo"
)

// CorrectionRMS is the root mean square of the approximator's contribution
// to the control signal. It stays zero for controllers without one.
type CorrectionRMS struct {
	values []float64
}

func NewCorrectionRMS() *CorrectionRMS { return &CorrectionRMS{} }

func (c *CorrectionRMS) Name() string { return "correction_rms" }

func (c *CorrectionRMS) Observe(s dynamo.Sample) {
	c.values = append(c.values, s.Correction)
}

func (c *CorrectionRMS) Value() float64 {
	if len(c.values) == 0 {
		return 0
	}
	return floats.Norm(c.values, 2) / math.Sqrt(float64(len(c.values)))
}

func (c *CorrectionRMS) Reset() { c.values = c.values[:0] }
