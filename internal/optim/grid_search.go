// Package optim tunes controller parameters by exhaustive grid search.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/apid/internal/experiment"
)

var ErrNoTrial = errors.New("optim: no trial completed")

type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Result struct {
	Best      map[string]float64
	BestValue float64
	Trials    []Trial
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds how many trials run at once.
func (g *GridSearch) SetWorkers(n int) *GridSearch {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Search runs one experiment per grid point and minimizes metricName.
// Trials that fail to build or stop early are recorded and skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d parameter names for %d ranges", len(g.paramNames), len(g.ranges))
	}

	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, params := range points {
		eg.Go(func() error {
			trials[i] = runTrial(ctx, buildExperiment, params, metricName)
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &Result{BestValue: math.Inf(1), Trials: trials}
	for _, tr := range trials {
		if tr.Err == nil && tr.Value < res.BestValue {
			res.BestValue = tr.Value
			res.Best = tr.Params
		}
	}
	if res.Best == nil {
		return res, ErrNoTrial
	}
	return res, nil
}

func runTrial(
	ctx context.Context,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	params map[string]float64,
	metricName string,
) Trial {
	tr := Trial{Params: params, Value: math.NaN()}

	exp, err := buildExperiment(params)
	if err != nil {
		tr.Err = err
		return tr
	}

	result, err := exp.Run(ctx)
	if err != nil {
		tr.Err = err
		return tr
	}

	val, ok := result.Metrics[metricName]
	if !ok {
		tr.Err = fmt.Errorf("optim: metric %q not recorded", metricName)
		return tr
	}
	tr.Value = val
	return tr
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.enumerate(depth+1, newParams, out)
	}
}

// Apply sets the named tuning parameters on a copy of cfg. Known names are
// kp, ki, kd, sigma, learning_rate and centers.
func Apply(cfg experiment.Config, params map[string]float64) (experiment.Config, error) {
	for name, v := range params {
		switch name {
		case "kp":
			cfg.Params.Kp = v
		case "ki":
			cfg.Params.Ki = v
		case "kd":
			cfg.Params.Kd = v
		case "sigma":
			cfg.Params.Sigma = v
		case "learning_rate":
			cfg.Params.LearningRate = v
		case "centers":
			cfg.Params.Centers = int(math.Round(v))
		default:
			return cfg, fmt.Errorf("optim: unknown parameter %q", name)
		}
	}
	return cfg, nil
}
