package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/apid/internal/experiment"
	"github.com/san-kum/apid/internal/rbf"
)

const (
	DefaultDt       = 0.1
	DefaultDuration = 10.0
	DefaultTarget   = 1.0
	DefaultSeed     = 20
	DefaultKp       = 4.0
	DefaultKi       = 0.1
	DefaultKd       = 0.01
	DefaultCenters  = 5
)

type Config struct {
	Plant            string             `yaml:"plant"`
	Integrator       string             `yaml:"integrator"`
	Controller       string             `yaml:"controller"`
	Dt               float64            `yaml:"dt"`
	Duration         float64            `yaml:"duration"`
	Target           float64            `yaml:"target"`
	Seed             int64              `yaml:"seed"`
	InitState        []float64          `yaml:"init_state,omitempty"`
	ControllerParams ControllerConfig   `yaml:"controller_params"`
	Approximator     ApproximatorConfig `yaml:"approximator"`
	PlantParams      map[string]float64 `yaml:"plant_params,omitempty"`
}

type ControllerConfig struct {
	Kp          float64 `yaml:"kp"`
	Ki          float64 `yaml:"ki"`
	Kd          float64 `yaml:"kd"`
	OutputLimit float64 `yaml:"output_limit,omitempty"`
}

type ApproximatorConfig struct {
	Centers      int     `yaml:"centers"`
	Sigma        float64 `yaml:"sigma"`
	LearningRate float64 `yaml:"learning_rate"`
	GridCenters  bool    `yaml:"grid_centers,omitempty"`
	ZeroWeights  bool    `yaml:"zero_weights,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant:      "first_order",
		Integrator: "euler",
		Controller: "adaptive",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Target:     DefaultTarget,
		Seed:       DefaultSeed,
		ControllerParams: ControllerConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
		Approximator: ApproximatorConfig{
			Centers:      DefaultCenters,
			Sigma:        rbf.DefaultSigma,
			LearningRate: rbf.DefaultLearningRate,
		},
	}
}

// Load reads a YAML file over the defaults; keys it omits keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Experiment converts the file form into an experiment configuration.
func (c *Config) Experiment() experiment.Config {
	plantParams := make(map[string]float64, len(c.PlantParams))
	for k, v := range c.PlantParams {
		plantParams[k] = v
	}
	return experiment.Config{
		Plant:      c.Plant,
		Integrator: c.Integrator,
		Controller: c.Controller,
		InitState:  append([]float64(nil), c.InitState...),
		Dt:         c.Dt,
		Duration:   c.Duration,
		Target:     c.Target,
		Seed:       c.Seed,
		Params: experiment.ControllerParams{
			Kp:           c.ControllerParams.Kp,
			Ki:           c.ControllerParams.Ki,
			Kd:           c.ControllerParams.Kd,
			Centers:      c.Approximator.Centers,
			Sigma:        c.Approximator.Sigma,
			LearningRate: c.Approximator.LearningRate,
			GridCenters:  c.Approximator.GridCenters,
			ZeroWeights:  c.Approximator.ZeroWeights,
			OutputLimit:  c.ControllerParams.OutputLimit,
		},
		PlantParams: plantParams,
	}
}

// Clone returns a deep copy, so presets can be edited without touching
// the shared table.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = append([]float64(nil), c.InitState...)
	if c.PlantParams != nil {
		out.PlantParams = make(map[string]float64, len(c.PlantParams))
		for k, v := range c.PlantParams {
			out.PlantParams[k] = v
		}
	}
	return &out
}
