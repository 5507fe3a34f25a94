package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	quiet, err := New(false)
	if err != nil {
		t.Fatal(err)
	}
	if quiet.Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug disabled without verbose")
	}
	if !quiet.Core().Enabled(zap.InfoLevel) {
		t.Error("expected info enabled")
	}

	loud, err := New(true)
	if err != nil {
		t.Fatal(err)
	}
	if !loud.Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug enabled with verbose")
	}
}
