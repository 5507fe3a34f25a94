// Package storage keeps finished runs on disk: one directory per run with
// metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/apid/internal/dynamo"
)

var ErrInvalidRunID = errors.New("storage: invalid run id")

var csvHeader = []string{"time", "target", "measured", "control", "correction"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Plant        string             `json:"plant"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Target       float64            `json:"target"`
	Integrator   string             `json:"integrator"`
	Controller   string             `json:"controller"`
	Kp           float64            `json:"kp"`
	Ki           float64            `json:"ki"`
	Kd           float64            `json:"kd"`
	Centers      int                `json:"centers,omitempty"`
	Sigma        float64            `json:"sigma,omitempty"`
	LearningRate float64            `json:"learning_rate,omitempty"`
	Steps        int                `json:"steps"`
	StopReason   string             `json:"stop_reason,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes meta and the run's samples under a fresh id and returns it.
// ID, Timestamp and Steps are filled in by Save. A run that cannot be
// written completely leaves no directory behind.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", meta.Plant, uuid.NewString()[:8])

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Metrics = finite(result.Metrics)
	if len(result.Errors) > 0 && meta.StopReason == "" {
		meta.StopReason = result.Errors[0].Error()
	}

	if err := s.writeRun(meta, result.Samples); err != nil {
		return "", fmt.Errorf("save %s: %w", runID, err)
	}
	return runID, nil
}

// writeRun writes the run directory for meta.ID, removing it again if any
// file fails.
func (s *Store) writeRun(meta RunMetadata, samples []dynamo.Sample) error {
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := writeRunFiles(runDir, meta, samples); err != nil {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			return errors.Join(err, rmErr)
		}
		return err
	}
	return nil
}

func writeRunFiles(runDir string, meta RunMetadata, samples []dynamo.Sample) error {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(runDir, "states.csv"), func(w io.Writer) error {
		return WriteCSV(w, samples)
	})
}

// writeFile creates path and runs write on it. The close error is reported
// when write itself succeeded.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// finite drops values JSON cannot carry.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

// WriteCSV writes samples with the header time,target,measured,control,correction.
func WriteCSV(w io.Writer, samples []dynamo.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			formatFloat(smp.Time),
			formatFloat(smp.Target),
			formatFloat(smp.Measured),
			formatFloat(smp.Control),
			formatFloat(smp.Correction),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || runID != filepath.Base(runID) || runID == "." || runID == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadSamples reads a run's trajectory back. Dt is not stored per row and is
// restored from the metadata.
func (s *Store) LoadSamples(runID string) ([]dynamo.Sample, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(dir, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var vals [5]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d column %s: %w", runID, i+1, csvHeader[j], err)
			}
			vals[j] = v
		}
		samples = append(samples, dynamo.Sample{
			Time:       vals[0],
			Dt:         meta.Dt,
			Target:     vals[1],
			Measured:   vals[2],
			Control:    vals[3],
			Correction: vals[4],
		})
	}

	return samples, nil
}

// ExportCSV copies a run's states.csv to w.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}
	file, err := os.Open(filepath.Join(dir, "states.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}
