// Package automation runs batches of experiments: scripted scenarios from
// YAML, plant parameter sweeps and Monte Carlo trials over the initial
// state.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/apid/internal/config"
	"github.com/san-kum/apid/internal/dynamo"
	"github.com/san-kum/apid/internal/experiment"
)

// Scenario is a named sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Keys it leaves out keep the values of the named
// preset, or the defaults when no preset is given.
type ScenarioStep struct {
	Preset string
	Label  string
	Config *config.Config
}

func (s *ScenarioStep) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Preset string `yaml:"preset"`
		Label  string `yaml:"label"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if head.Preset != "" {
		if cfg = config.GetPreset(head.Preset); cfg == nil {
			return fmt.Errorf("unknown preset %q", head.Preset)
		}
	}
	if err := node.Decode(cfg); err != nil {
		return err
	}

	s.Preset = head.Preset
	s.Label = head.Label
	s.Config = cfg
	return nil
}

// Name returns the label, or plant/controller when the step has none.
func (s ScenarioStep) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Config.Plant + "/" + s.Config.Controller
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: no steps", path)
	}

	return &scenario, nil
}

type StepResult struct {
	Step   ScenarioStep
	Result *dynamo.Result
	Err    error
}

// RunScenario executes the steps in order. A step that stops early is
// recorded and the scenario continues; a step that cannot be built or a
// canceled context ends it.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("scenario step",
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", step.Name()))

		exp := experiment.New(step.Config.Experiment())
		if err := exp.Build(registry); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp.SetLogger(log)

		result, err := exp.Run(ctx)
		if fatal(result, err) {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err != nil {
			log.Warn("step stopped early", zap.String("name", step.Name()), zap.Error(err))
		}
		results = append(results, StepResult{Step: step, Result: result, Err: err})
	}

	return results, nil
}

// ParameterSweep reruns one configuration across evenly spaced values of a
// plant parameter.
type ParameterSweep struct {
	Base      experiment.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Final      dynamo.Sample
	Stable     bool
	Err        error
}

// RunSweep executes a parameter sweep. Runs that stop early are reported
// as unstable rather than failing the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("%w: sweep needs at least 2 steps, got %d", dynamo.ErrParameterBounds, sweep.NumSteps)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base
		cfg.PlantParams = make(map[string]float64, len(sweep.Base.PlantParams)+1)
		for k, v := range sweep.Base.PlantParams {
			cfg.PlantParams[k] = v
		}
		cfg.PlantParams[sweep.ParamName] = paramVal

		exp := experiment.New(cfg)
		if err := exp.Build(registry); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		result, err := exp.Run(ctx)
		if fatal(result, err) {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Metrics:    result.Metrics,
			Final:      result.Final(),
			Stable:     err == nil,
			Err:        err,
		})
	}

	return results, nil
}

// MonteCarloConfig perturbs the initial state uniformly by ±Perturbation in
// every coordinate. An empty BaseState falls back to Base.InitState.
type MonteCarloConfig struct {
	Base         experiment.Config
	BaseState    []float64
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID   int
	InitState dynamo.State
	Final     dynamo.Sample
	IAE       float64
	Stable    bool
}

// RunMonteCarlo executes trials with perturbed initial states. The
// approximator seed stays fixed so only the start point varies.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	rng := rand.New(rand.NewSource(cfg.Seed))
	baseState := cfg.BaseState
	if len(baseState) == 0 {
		baseState = cfg.Base.InitState
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		initState := make([]float64, len(baseState))
		for i, v := range baseState {
			initState[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}

		expCfg := cfg.Base
		expCfg.InitState = initState

		exp := experiment.New(expCfg)
		if err := exp.Build(registry); err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		result, err := exp.Run(ctx)
		if fatal(result, err) {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		results = append(results, MonteCarloResult{
			TrialID:   trial,
			InitState: initState,
			Final:     result.Final(),
			IAE:       result.Metrics["iae"],
			Stable:    err == nil,
		})
	}

	return results, nil
}

// fatal reports errors that end a batch: the run never started, or the
// context is done.
func fatal(result *dynamo.Result, err error) bool {
	if result == nil && err != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// IAEStats returns the mean and standard deviation of IAE over the stable
// trials. Both are NaN when no trial was stable.
func IAEStats(results []MonteCarloResult) (mean, std float64) {
	var iae []float64
	for _, r := range results {
		if r.Stable {
			iae = append(iae, r.IAE)
		}
	}
	if len(iae) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.MeanStdDev(iae, nil)
}
