// Package metrics scores closed-loop runs tick by tick.
package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/apid/internal/dynamo"
)

const DefaultSettlingBand = 0.02

// Default returns a fresh set of every metric the CLI reports.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewIAE(),
		NewISE(),
		NewControlEffort(),
		NewOvershoot(),
		NewSettlingTime(DefaultSettlingBand),
		NewCorrectionRMS(),
		NewFinalError(),
	}
}

// Names lists the metric names of Default in order.
func Names() []string {
	ms := Default()
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	return names
}

// ErrorStats returns the mean and sample standard deviation of the
// tracking error over a finished run.
func ErrorStats(r *dynamo.Result) (mean, std float64) {
	if len(r.Samples) < 2 {
		return r.Final().Error(), 0
	}
	errs := r.Series(dynamo.Sample.Error)
	return stat.MeanStdDev(errs, nil)
}

// Score recomputes every default metric over a stored trajectory.
func Score(samples []dynamo.Sample) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range Default() {
		for _, s := range samples {
			m.Observe(s)
		}
		out[m.Name()] = m.Value()
	}
	return out
}
