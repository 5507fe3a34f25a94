package report

import (
	"io"
	"maps"
	"slices"

	"github.com/bsm/openmetrics"

	"github.com/san-kum/apid/internal/storage"
)

// WriteOpenMetrics exposes the stored metrics of runs as OpenMetrics text,
// one gauge sample per run and metric.
func WriteOpenMetrics(w io.Writer, runs []storage.RunMetadata) error {
	reg := openmetrics.NewRegistry()

	score := reg.Gauge(openmetrics.Desc{
		Name:   "apid_run_metric",
		Help:   "Closed-loop performance metric of a stored run",
		Labels: []string{"run", "plant", "controller", "metric"},
	})
	steps := reg.Gauge(openmetrics.Desc{
		Name:   "apid_run_steps",
		Help:   "Number of completed control ticks",
		Labels: []string{"run", "plant", "controller"},
	})
	gains := reg.Gauge(openmetrics.Desc{
		Name:   "apid_run_gain",
		Help:   "PID gains the run was configured with",
		Labels: []string{"run", "term"},
	})

	for _, run := range runs {
		for _, name := range slices.Sorted(maps.Keys(run.Metrics)) {
			score.With(run.ID, run.Plant, run.Controller, name).Set(run.Metrics[name])
		}
		steps.With(run.ID, run.Plant, run.Controller).Set(float64(run.Steps))
		gains.With(run.ID, "kp").Set(run.Kp)
		gains.With(run.ID, "ki").Set(run.Ki)
		gains.With(run.ID, "kd").Set(run.Kd)
	}

	_, err := reg.WriteTo(w)
	return err
}
