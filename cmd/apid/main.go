package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/apid/internal/logging"
)

var log = zap.NewNop()

var (
	dataDir string
	verbose bool

	dt           float64
	duration     float64
	target       float64
	seed         int64
	integrator   string
	controller   string
	kp           float64
	ki           float64
	kd           float64
	centers      int
	sigma        float64
	learningRate float64
	gridCenters  bool
	zeroWeights  bool
	configFile   string
	preset       string
	noSave       bool

	outFile    string
	showCorr   bool
	numRuns    int
	metricName string
	kpRange    string
	kiRange    string
	kdRange    string
	sigmaRange string
	frameSteps int
	theme      string

	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	perturbation float64
	numTrials    int
)

// main registers the apid commands and exits 1 when the selected command
// returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "apid",
		Short:        "adaptive PID controller lab",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(verbose)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".apid", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run a closed-loop simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	pngCmd := &cobra.Command{
		Use:   "png [run_id]",
		Short: "plot measured vs target to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE:  pngRun,
	}
	pngCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.png)")
	pngCmd.Flags().BoolVar(&showCorr, "correction", false, "also plot the approximator correction")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	metricsCmd := &cobra.Command{
		Use:   "metrics [run_id...]",
		Short: "print stored run metrics as OpenMetrics text",
		RunE:  metricsRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [plant] [controller...]",
		Short: "compare controllers on the same plant",
		Args:  cobra.ArbitraryArgs,
		RunE:  compareControllers,
	}
	addScenarioFlags(compareCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [plant]",
		Short: "run the scenario under consecutive seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addScenarioFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of seeds")

	tuneCmd := &cobra.Command{
		Use:   "tune [plant]",
		Short: "grid search controller gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&metricName, "metric", "iae", "metric to minimize")
	tuneCmd.Flags().StringVar(&kpRange, "kp-range", "1,2,4,8", "comma separated kp values")
	tuneCmd.Flags().StringVar(&kiRange, "ki-range", "0,0.1,0.5", "comma separated ki values")
	tuneCmd.Flags().StringVar(&kdRange, "kd-range", "0.01", "comma separated kd values")
	tuneCmd.Flags().StringVar(&sigmaRange, "sigma-range", "", "comma separated sigma values")

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run the closed loop with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameSteps, "steps", 1, "ticks per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "default", "color theme")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a YAML scenario in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [plant]",
		Short: "rerun the scenario across values of a plant parameter",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "last parameter value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [plant]",
		Short: "run trials from randomly perturbed initial states",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addScenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&numTrials, "runs", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 0.5, "half-width of the initial state perturbation")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "error spectrum and phase portrait of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, pngCmd, exportCSVCmd, exportJSONCmd, metricsCmd,
		presetsCmd, compareCmd, ensembleCmd, tuneCmd, liveCmd,
		scenarioCmd, sweepCmd, monteCarloCmd, analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", 0.1, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	cmd.Flags().Float64Var(&target, "target", 1.0, "setpoint")
	cmd.Flags().Int64Var(&seed, "seed", 20, "approximator seed")
	cmd.Flags().StringVar(&integrator, "integrator", "euler", "integrator")
	cmd.Flags().StringVar(&controller, "controller", "adaptive", "controller")
	cmd.Flags().Float64Var(&kp, "kp", 4.0, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", 0.1, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", 0.01, "derivative gain")
	cmd.Flags().IntVar(&centers, "centers", 5, "approximator centers")
	cmd.Flags().Float64Var(&sigma, "sigma", 1.0, "kernel bandwidth")
	cmd.Flags().Float64Var(&learningRate, "eta", 0.01, "approximator learning rate")
	cmd.Flags().BoolVar(&gridCenters, "grid-centers", false, "place centers on the diagonal instead of sampling")
	cmd.Flags().BoolVar(&zeroWeights, "zero-weights", false, "start with zero weights")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}
