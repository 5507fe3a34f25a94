package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/apid/internal/dynamo"
)

// maxPrealloc caps the sample buffer allocated up front; longer runs grow it.
const maxPrealloc = 1 << 16

type Simulator struct {
	plant      dynamo.Plant
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        *zap.Logger
}

func New(p dynamo.Plant, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		plant:      p,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        zap.NewNop(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// Run closes the loop for cfg.Duration at a fixed target. The result holds
// every completed tick even when an error stops the run early.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.plant.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d entries, plant wants %d",
			dynamo.ErrDimensionMismatch, len(x0), s.plant.StateDim())
	}

	steps := cfg.Steps()
	result := &dynamo.Result{
		Samples: make([]dynamo.Sample, 0, min(steps, maxPrealloc)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	loop := NewLoop(s.plant, s.integrator, s.controller, x0)
	loop.Validate = cfg.ValidateState

	s.log.Debug("run started",
		zap.Int("steps", steps),
		zap.Float64("dt", cfg.Dt),
		zap.Float64("target", cfg.Target))

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		sample, err := loop.Step(cfg.Target, cfg.Dt)
		if err != nil {
			runErr = err
			break
		}

		for _, m := range s.metrics {
			m.Observe(sample)
		}
		for _, obs := range s.observers {
			obs.OnStep(sample)
		}

		result.Samples = append(result.Samples, sample)
		result.StepsTaken++

		if cfg.DivergeAt > 0 && math.Abs(sample.Measured) > cfg.DivergeAt {
			runErr = &dynamo.SimulationError{
				Step:    i,
				Time:    sample.Time,
				State:   loop.State(),
				Wrapped: fmt.Errorf("%w: |y|=%g", dynamo.ErrUnstable, math.Abs(sample.Measured)),
			}
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if runErr != nil {
		result.Errors = append(result.Errors, runErr)
		s.log.Debug("run stopped", zap.Int("step", result.StepsTaken), zap.Error(runErr))
		return result, runErr
	}

	s.log.Debug("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("final_measured", result.Final().Measured))
	return result, nil
}
