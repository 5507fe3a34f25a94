package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/apid/internal/config"
)

// resolveConfig layers the scenario: defaults, then --preset, then
// --config, then any flag set on the command line. An optional first
// argument names the plant.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 && args[0] != "" {
		cfg.Plant = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("target") {
		cfg.Target = target
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("kp") {
		cfg.ControllerParams.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.ControllerParams.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.ControllerParams.Kd = kd
	}
	if flags.Changed("centers") {
		cfg.Approximator.Centers = centers
	}
	if flags.Changed("sigma") {
		cfg.Approximator.Sigma = sigma
	}
	if flags.Changed("eta") {
		cfg.Approximator.LearningRate = learningRate
	}
	if flags.Changed("grid-centers") {
		cfg.Approximator.GridCenters = gridCenters
	}
	if flags.Changed("zero-weights") {
		cfg.Approximator.ZeroWeights = zeroWeights
	}

	return cfg, nil
}
