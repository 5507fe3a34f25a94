package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/apid/internal/dynamo"
)

func testResult() *dynamo.Result {
	return &dynamo.Result{
		Samples: []dynamo.Sample{
			{Time: 0, Dt: 0.1, Target: 1, Measured: 0.1, Control: 4.3, Correction: 0.21},
			{Time: 0.1, Dt: 0.1, Target: 1, Measured: 0.1 + 1e-17, Control: 3.9, Correction: 1.0 / 3.0},
		},
		StepsTaken: 2,
		Metrics: map[string]float64{
			"iae":     1.5,
			"bad":     math.NaN(),
			"too_big": math.Inf(1),
		},
	}
}

func testMeta() RunMetadata {
	return RunMetadata{
		Plant:      "first_order",
		Seed:       42,
		Dt:         0.1,
		Duration:   0.2,
		Target:     1,
		Integrator: "euler",
		Controller: "adaptive",
		Kp:         4,
		Ki:         0.1,
		Kd:         0.01,
		Centers:    5,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "first_order_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID || meta.Seed != 42 || meta.Steps != 2 || meta.Kp != 4 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["iae"] != 1.5 {
		t.Errorf("expected iae 1.5, got %v", meta.Metrics["iae"])
	}
	if _, ok := meta.Metrics["bad"]; ok {
		t.Error("non-finite metric should not be stored")
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	want := testResult().Samples
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d: expected %+v, got %+v", i, want[i], samples[i])
		}
	}
}

func TestStoreStopReason(t *testing.T) {
	st := New(t.TempDir())
	result := testResult()
	result.Errors = []error{dynamo.ErrUnstable}

	runID, err := st.Save(testMeta(), result)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.StopReason != dynamo.ErrUnstable.Error() {
		t.Errorf("expected stop reason, got %q", meta.StopReason)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected oldest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	csvData, err := os.ReadFile(filepath.Join(tmpDir, runID, "states.csv"))
	if err != nil {
		t.Fatal("states.csv not created")
	}
	if !strings.HasPrefix(string(csvData), "time,target,measured,control,correction\n") {
		t.Errorf("unexpected csv header: %q", strings.SplitN(string(csvData), "\n", 2)[0])
	}
	if _, err := os.Stat(filepath.Join(tmpDir, runID, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
}

func TestStoreRejectsPathIDs(t *testing.T) {
	st := New(t.TempDir())
	for _, id := range []string{"", "..", "../etc", "a/b"} {
		if _, err := st.Load(id); !errors.Is(err, ErrInvalidRunID) {
			t.Errorf("id %q: expected ErrInvalidRunID, got %v", id, err)
		}
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(runID, &buf); err != nil {
		t.Fatalf("export json failed: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.ID != runID || len(data.Samples) != 2 || data.Controller != "adaptive" {
		t.Errorf("unexpected export %+v", data)
	}

	buf.Reset()
	if err := st.ExportCSV(runID, &buf); err != nil {
		t.Fatalf("export csv failed: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines", lines)
	}
}

func TestStoreFailedWriteLeavesNoRun(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	meta := testMeta()
	meta.ID = "first_order_0badc0de"
	runDir := filepath.Join(tmpDir, meta.ID)
	// a directory where states.csv should go makes the second file fail
	if err := os.MkdirAll(filepath.Join(runDir, "states.csv"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := st.writeRun(meta, testResult().Samples); err == nil {
		t.Fatal("expected write error")
	}
	if _, err := os.Stat(runDir); !os.IsNotExist(err) {
		t.Errorf("run directory left behind: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
