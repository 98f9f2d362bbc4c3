package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPassesValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulation.Seed != Default().Simulation.Seed {
		t.Fatalf("expected default seed, got %d", cfg.Simulation.Seed)
	}
}

func TestLoadOverlaysFileOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "simulation:\n  seed: 42\n  horizon_seconds: 10\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulation.Seed != 42 {
		t.Fatalf("expected overlay seed 42, got %d", cfg.Simulation.Seed)
	}
	if cfg.Sweep.ServerCount != Default().Sweep.ServerCount {
		t.Fatalf("fields absent from the overlay should keep their default value")
	}
}

func TestValidateAccumulatesMultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Topology.GatewayAddress = ""
	cfg.Sweep.Strategies = []string{"made_up_strategy"}
	cfg.Sweep.ClientCounts = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Errors) < 3 {
		t.Fatalf("expected at least 3 accumulated errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestValidateRejectsInvertedUniformRange(t *testing.T) {
	cfg := Default()
	cfg.Topology.ServerServiceTime = DistributionConfig{Family: "uniform", Low: 5, High: 1}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected a validation error for inverted uniform range")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Seed = 7

	path := filepath.Join(t.TempDir(), "roundtrip.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Simulation.Seed != 7 {
		t.Fatalf("expected seed 7 after round trip, got %d", loaded.Simulation.Seed)
	}
}
