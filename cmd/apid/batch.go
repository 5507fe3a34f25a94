package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/apid/internal/analysis"
	"github.com/san-kum/apid/internal/automation"
	"github.com/san-kum/apid/internal/experiment"
	"github.com/san-kum/apid/internal/storage"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tIAE\tOVERSHOOT\tSETTLING\tFINAL\tRUN")
	for _, r := range results {
		runID := "-"
		if st != nil {
			if runID, err = st.Save(metadataFor(r.Step.Config), r.Result); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.2f\t%.6f\t%s\n",
			r.Step.Name(),
			r.Result.Metrics["iae"],
			r.Result.Metrics["overshoot"],
			r.Result.Metrics["settling_time"],
			r.Result.Final().Measured,
			runID,
		)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	var plantArgs []string
	if len(args) > 1 {
		plantArgs = args[1:2]
	}
	cfg, err := resolveConfig(cmd, plantArgs)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:      cfg.Experiment(),
		ParamName: args[0],
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tIAE\tOVERSHOOT\tSETTLING\tSTABLE\n", args[0])
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%.2f\t%t\n",
			r.ParamValue, r.Metrics["iae"], r.Metrics["overshoot"], r.Metrics["settling_time"], r.Stable)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ec := cfg.Experiment()
	probe := experiment.New(ec)
	if err := probe.Build(experiment.NewRegistry()); err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		Base:         ec,
		BaseState:    probe.InitState(),
		Perturbation: perturbation,
		NumTrials:    numTrials,
		Seed:         cfg.Seed,
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	mean, std := automation.IAEStats(results)
	fmt.Printf("%d trials: %d stable, %d unstable\n", len(results), stable, unstable)
	fmt.Printf("iae: mean=%.6f std=%.6f\n", mean, std)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	spec, err := analysis.ErrorSpectrum(samples)
	if err != nil {
		return err
	}
	freq, power := analysis.DominantOscillation(spec)

	fmt.Printf("run: %s (%s / %s)\n", meta.ID, meta.Plant, meta.Controller)
	if power > 0 {
		fmt.Printf("dominant oscillation: %.4f Hz (period %.3fs, power %.3g)\n\n", freq, 1/freq, power)
	} else {
		fmt.Printf("no oscillation in the error signal\n\n")
	}

	logPower := make([]float64, len(spec.Power))
	for i, p := range spec.Power {
		logPower[i] = math.Log10(p + 1e-12)
	}
	fmt.Println(asciigraph.Plot(logPower,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption("log10 error power, 0 to "+strconv.FormatFloat(spec.Freq[len(spec.Freq)-1], 'g', 4, 64)+" Hz")))

	fmt.Println("\nerror vs error rate:")
	fmt.Print(analysis.PhasePortraitToASCII(analysis.ErrorPortrait(samples), 60, 20))
	return nil
}
