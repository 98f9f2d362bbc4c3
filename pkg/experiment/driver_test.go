package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nsimlab/loadsim/pkg/config"
	"github.com/nsimlab/loadsim/pkg/report"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.HorizonSeconds = 20
	cfg.Sweep.ClientCounts = []int{3}
	cfg.Sweep.Strategies = []string{"round_robin"}
	cfg.Sweep.LBTopologies = []string{"gateway"}
	cfg.Sweep.ServiceTimeTiers = map[string]float64{"low": 0.05}
	cfg.Sweep.CacheTimeTiers = map[string]float64{"low": 5}
	cfg.Sweep.ServerCount = 2
	return cfg
}

func TestExpandMatrixProducesCartesianProduct(t *testing.T) {
	cfg := smallConfig()
	cfg.Sweep.ClientCounts = []int{1, 2}
	cfg.Sweep.Strategies = []string{"round_robin", "random"}

	points := expandMatrix(cfg.Sweep)
	if len(points) != 2*2*1*1*1 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
}

func TestRunPointProducesARow(t *testing.T) {
	cfg := smallConfig()
	d := New(cfg, nil, nil)

	result, err := d.RunPoint(Point{
		NumClients:      cfg.Sweep.ClientCounts[0],
		Strategy:        cfg.Sweep.Strategies[0],
		Topology:        cfg.Sweep.LBTopologies[0],
		ServiceTimeTier: "low",
		CacheTimeTier:   "low",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Row.NumClients != 3 {
		t.Fatalf("expected row to carry the point's client count, got %d", result.Row.NumClients)
	}
	if d.state != StateCompleted {
		t.Fatalf("expected driver state to end at Completed, got %v", d.state)
	}
}

func TestRunPointRejectsUnknownServiceTimeTier(t *testing.T) {
	cfg := smallConfig()
	d := New(cfg, nil, nil)

	_, err := d.RunPoint(Point{
		NumClients:      1,
		Strategy:        "round_robin",
		Topology:        "gateway",
		ServiceTimeTier: "does-not-exist",
		CacheTimeTier:   "low",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown service-time tier")
	}
}

func TestSweepWritesOneRowPerPoint(t *testing.T) {
	cfg := smallConfig()
	cfg.Sweep.ClientCounts = []int{2, 4}

	path := filepath.Join(t.TempDir(), "results.csv")
	writer, err := report.NewCSVWriter(path)
	if err != nil {
		t.Fatalf("failed to create csv writer: %v", err)
	}

	d := New(cfg, nil, nil)
	results, err := d.Sweep(writer)
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	writer.Close()

	if len(results) != 2 {
		t.Fatalf("expected 2 sweep points, got %d", len(results))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read csv output: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty csv output")
	}
}
