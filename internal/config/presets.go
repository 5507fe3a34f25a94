package config

import (
	"maps"
	"slices"
)

func preset(mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	mutate(cfg)
	return cfg
}

var Presets = map[string]*Config{
	"reference": DefaultConfig(),
	"grid": preset(func(c *Config) {
		c.Approximator.GridCenters = true
		c.Approximator.ZeroWeights = true
	}),
	"nonlinear": preset(func(c *Config) {
		c.Plant = "nonlinear"
		c.Integrator = "rk4"
		c.Dt = 0.05
		c.Duration = 20.0
		c.Target = 0.8
	}),
	"servo": preset(func(c *Config) {
		c.Plant = "second_order"
		c.Integrator = "rk4"
		c.Dt = 0.01
		c.Duration = 15.0
		c.ControllerParams = ControllerConfig{Kp: 20.0, Ki: 2.0, Kd: 4.0}
		c.PlantParams = map[string]float64{"damping": 2.0}
	}),
	"slow": preset(func(c *Config) {
		c.Duration = 40.0
		c.PlantParams = map[string]float64{"tau": 5.0}
	}),
	"baseline": preset(func(c *Config) {
		c.Controller = "pid"
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
