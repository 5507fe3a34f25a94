package analysis

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/apid/internal/dynamo"
)

type Spectrum struct {
	// Freq is in Hz, Power is |X(f)|² normalized by the sample count.
	Freq  []float64
	Power []float64
}

// ErrorSpectrum returns the one-sided power spectrum of the tracking error
// with its mean removed. Samples must share one timestep.
func ErrorSpectrum(samples []dynamo.Sample) (*Spectrum, error) {
	if len(samples) < 4 {
		return nil, fmt.Errorf("analysis: need at least 4 samples, got %d", len(samples))
	}
	dt := samples[0].Dt
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt=%v", dynamo.ErrInvalidTimestep, dt)
	}

	series := make([]float64, len(samples))
	for i, s := range samples {
		series[i] = s.Error()
	}
	mean := stat.Mean(series, nil)
	for i := range series {
		series[i] -= mean
	}

	fft := fourier.NewFFT(len(series))
	coeff := fft.Coefficients(nil, series)

	n := float64(len(series))
	spec := &Spectrum{
		Freq:  make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		spec.Freq[i] = fft.Freq(i) / dt
		a := cmplx.Abs(c)
		spec.Power[i] = a * a / n
	}
	return spec, nil
}

// DominantOscillation returns the frequency and power of the largest
// non-DC spectral peak.
func DominantOscillation(s *Spectrum) (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			freq, power = s.Freq[i], s.Power[i]
		}
	}
	return freq, power
}
