package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/apid/internal/experiment"
)

func buildFrom(base experiment.Config) func(map[string]float64) (*experiment.Experiment, error) {
	reg := experiment.NewRegistry()
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := Apply(base, params)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(cfg)
		if err := exp.Build(reg); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

func TestGridSearchPicksLowestIAE(t *testing.T) {
	base := experiment.DefaultConfig()
	base.Controller = "pid"

	g := NewGridSearch([]string{"kp", "ki"}, [][]float64{{0.5, 4.0}, {0, 0.1}})
	res, err := g.Search(context.Background(), buildFrom(base), "iae")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(res.Trials) != 4 {
		t.Errorf("expected 4 trials, got %d", len(res.Trials))
	}
	if res.Best["kp"] != 4.0 {
		t.Errorf("expected the stiffer gain to win, got %v", res.Best)
	}
	for _, tr := range res.Trials {
		if tr.Err == nil && tr.Value < res.BestValue {
			t.Errorf("trial %v beats reported best %v", tr.Params, res.BestValue)
		}
	}
}

func TestGridSearchSkipsFailedTrials(t *testing.T) {
	base := experiment.DefaultConfig()

	g := NewGridSearch([]string{"centers"}, [][]float64{{0, 5}}).SetWorkers(1)
	res, err := g.Search(context.Background(), buildFrom(base), "iae")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if res.Trials[0].Err == nil {
		t.Error("expected the zero-center trial to fail")
	}
	if res.Best["centers"] != 5 {
		t.Errorf("expected centers 5, got %v", res.Best)
	}
}

func TestGridSearchNoTrial(t *testing.T) {
	g := NewGridSearch([]string{"bogus"}, [][]float64{{1}})
	if _, err := g.Search(context.Background(), buildFrom(experiment.DefaultConfig()), "iae"); !errors.Is(err, ErrNoTrial) {
		t.Errorf("expected ErrNoTrial, got %v", err)
	}
}

func TestGridSearchMismatchedRanges(t *testing.T) {
	g := NewGridSearch([]string{"kp", "ki"}, [][]float64{{1}})
	if _, err := g.Search(context.Background(), buildFrom(experiment.DefaultConfig()), "iae"); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}

func TestGridSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"kp"}, [][]float64{{1, 2}})
	if _, err := g.Search(ctx, buildFrom(experiment.DefaultConfig()), "iae"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestApply(t *testing.T) {
	cfg, err := Apply(experiment.DefaultConfig(), map[string]float64{"kd": 0.5, "centers": 7.2, "sigma": 2})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params.Kd != 0.5 || cfg.Params.Centers != 7 || cfg.Params.Sigma != 2 {
		t.Errorf("unexpected params %+v", cfg.Params)
	}
}
