package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/apid/internal/config"
	"github.com/san-kum/apid/internal/report"
	"github.com/san-kum/apid/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tTIME\tDURATION\tDT\tINTEG\tCTRL\tIAE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%.4f\n",
			run.ID,
			run.Plant,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.Metrics["iae"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s, controller: %s\n", meta.Plant, meta.Controller)
	fmt.Printf("samples: %d\n\n", len(samples))

	return report.WriteASCII(os.Stdout, meta.Plant, samples, 80, 12)
}

func pngRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = runID + ".png"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := report.DefaultPNGOptions()
	opts.Title = fmt.Sprintf("%s / %s (target %g)", meta.Plant, meta.Controller, meta.Target)
	opts.Correction = showCorr
	if err := report.WritePNG(f, samples, opts); err != nil {
		return err
	}

	log.Info("png written", zap.String("path", path))
	return nil
}

// output returns the --out file, or stdout when none was given.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	return storage.New(dataDir).ExportCSV(args[0], w)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	return storage.New(dataDir).ExportJSON(args[0], w)
}

func metricsRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	var runs []storage.RunMetadata
	if len(args) == 0 {
		all, err := st.List()
		if err != nil {
			return err
		}
		runs = all
	}
	for _, id := range args {
		meta, err := st.Load(id)
		if err != nil {
			return err
		}
		runs = append(runs, *meta)
	}

	return report.WriteOpenMetrics(os.Stdout, runs)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tPLANT\tINTEG\tCTRL\tDT\tDURATION\tTARGET")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\t%g\n",
			name, p.Plant, p.Integrator, p.Controller, p.Dt, p.Duration, p.Target)
	}
	return w.Flush()
}
