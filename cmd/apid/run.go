package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/apid/internal/config"
	"github.com/san-kum/apid/internal/experiment"
	"github.com/san-kum/apid/internal/metrics"
	"github.com/san-kum/apid/internal/optim"
	"github.com/san-kum/apid/internal/sim"
	"github.com/san-kum/apid/internal/storage"
	"github.com/san-kum/apid/internal/viz"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func metadataFor(cfg *config.Config) storage.RunMetadata {
	meta := storage.RunMetadata{
		Plant:      cfg.Plant,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Target:     cfg.Target,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Kp:         cfg.ControllerParams.Kp,
		Ki:         cfg.ControllerParams.Ki,
		Kd:         cfg.ControllerParams.Kd,
	}
	if cfg.Controller == "adaptive" {
		meta.Centers = cfg.Approximator.Centers
		meta.Sigma = cfg.Approximator.Sigma
		meta.LearningRate = cfg.Approximator.LearningRate
	}
	return meta
}

func printMetrics(m map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, name := range metrics.Names() {
		if val, ok := m[name]; ok {
			fmt.Printf("  %-15s %.6f\n", name, val)
		}
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg.Experiment())
	if err := exp.Build(experiment.NewRegistry()); err != nil {
		return err
	}
	exp.SetLogger(log)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s under %s...\n", cfg.Plant, cfg.Controller)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	if runErr != nil {
		log.Warn("run stopped early", zap.Int("steps", result.StepsTaken), zap.Error(runErr))
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	final := result.Final()
	fmt.Printf("final: measured=%.6f error=%.6f u=%.6f\n", final.Measured, final.Error(), final.Control)
	printMetrics(result.Metrics)
	errMean, errStd := metrics.ErrorStats(result)
	fmt.Printf("  %-15s %.6f ± %.6f\n", "error", errMean, errStd)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(metadataFor(cfg), result)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
		log.Debug("run stored", zap.String("id", runID), zap.String("dir", dataDir))
	}

	return runErr
}

func compareControllers(cmd *cobra.Command, args []string) error {
	var plantArgs []string
	if len(args) > 0 {
		plantArgs = args[:1]
	}
	cfg, err := resolveConfig(cmd, plantArgs)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	controllers := reg.ListControllers()
	if len(args) > 1 {
		controllers = args[1:]
	}

	ctx, cancel := signalContext()
	defer cancel()

	names := metrics.Names()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CTRL\t%s\tSTATUS\n", strings.ToUpper(strings.Join(names, "\t")))

	for _, name := range controllers {
		ec := cfg.Experiment()
		ec.Controller = name

		exp := experiment.New(ec)
		if err := exp.Build(reg); err != nil {
			return err
		}
		exp.SetLogger(log)

		result, runErr := exp.Run(ctx)
		if result == nil || errors.Is(runErr, context.Canceled) {
			return runErr
		}

		status := "ok"
		if runErr != nil {
			status = "stopped: " + runErr.Error()
		}

		row := []string{name}
		for _, m := range names {
			row = append(row, strconv.FormatFloat(result.Metrics[m], 'f', 4, 64))
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(row, "\t"), status)
	}

	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ec := cfg.Experiment()
	probe := experiment.New(ec)
	if err := probe.Build(experiment.NewRegistry()); err != nil {
		return err
	}

	ens := sim.NewEnsemble(experiment.EnsembleFactory(experiment.NewRegistry(), ec, log), numRuns, cfg.Seed)
	ens.SetLogger(log)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %d seeds from %d...\n", numRuns, cfg.Seed)
	start := time.Now()
	results, err := ens.Run(ctx, probe.InitState(), ec.SimConfig())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range metrics.Names() {
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = r.Metrics[name]
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			std = 0
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", name, mean, std, slices.Min(vals), slices.Max(vals))
	}
	return w.Flush()
}

func parseRange(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("bad range value %q: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, p := range []struct{ name, spec string }{
		{"kp", kpRange},
		{"ki", kiRange},
		{"kd", kdRange},
		{"sigma", sigmaRange},
	} {
		vals, err := parseRange(p.spec)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		if len(vals) > 0 {
			names = append(names, p.name)
			ranges = append(ranges, vals)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("nothing to tune: all ranges are empty")
	}

	reg := experiment.NewRegistry()
	base := cfg.Experiment()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		ec, err := optim.Apply(base, params)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(ec)
		if err := exp.Build(reg); err != nil {
			return nil, err
		}
		return exp, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := optim.NewGridSearch(names, ranges).Search(ctx, build, metricName)
	if err != nil {
		return err
	}

	failed := 0
	for _, tr := range res.Trials {
		if tr.Err != nil {
			failed++
			log.Debug("trial failed", zap.Any("params", tr.Params), zap.Error(tr.Err))
		}
	}

	fmt.Printf("%d trials, %d failed\n", len(res.Trials), failed)
	fmt.Printf("best %s: %.6f\n", metricName, res.BestValue)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, res.Best[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg.Experiment())
	if err := exp.Build(experiment.NewRegistry()); err != nil {
		return err
	}
	loop, err := exp.Loop()
	if err != nil {
		return err
	}

	m := viz.NewModel(loop, exp.InitState(), viz.LiveConfig{
		Name:          cfg.Plant + " / " + cfg.Controller,
		Target:        cfg.Target,
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		StepsPerFrame: frameSteps,
		Theme:         theme,
	})

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}
