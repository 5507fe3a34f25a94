package metrics

import (
	"math"

	"github.com/san-kum/apid/internal/dynamo"
)

// Overshoot is the largest excursion past the target, as a fraction of
// |target|. A zero target reports the absolute excursion instead.
type Overshoot struct {
	peak float64
	ref  float64
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (o *Overshoot) Name() string { return "overshoot" }

func (o *Overshoot) Observe(s dynamo.Sample) {
	o.ref = s.Target
	past := s.Measured - s.Target
	if s.Target < 0 {
		past = -past
	}
	o.peak = math.Max(o.peak, past)
}

func (o *Overshoot) Value() float64 {
	if o.ref == 0 {
		return o.peak
	}
	return o.peak / math.Abs(o.ref)
}

func (o *Overshoot) Reset() {
	o.peak = 0
	o.ref = 0
}

// SettlingTime is the time after which the measurement stays within Band
// (relative to |target|, absolute when the target is zero). A run that ends
// outside the band reports -1.
type SettlingTime struct {
	Band float64

	lastOutside float64
	outside     bool
	samples     int
}

func NewSettlingTime(band float64) *SettlingTime {
	return &SettlingTime{Band: band}
}

func (st *SettlingTime) Name() string { return "settling_time" }

func (st *SettlingTime) Observe(s dynamo.Sample) {
	st.samples++
	tol := st.Band * math.Abs(s.Target)
	if s.Target == 0 {
		tol = st.Band
	}
	st.outside = math.Abs(s.Error()) > tol
	if st.outside {
		st.lastOutside = s.Time + s.Dt
	}
}

func (st *SettlingTime) Value() float64 {
	if st.samples == 0 || st.outside {
		return -1
	}
	return st.lastOutside
}

func (st *SettlingTime) Reset() {
	st.lastOutside = 0
	st.outside = false
	st.samples = 0
}
