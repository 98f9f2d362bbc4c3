package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nsimlab/loadsim/pkg/config"
	"github.com/nsimlab/loadsim/pkg/control"
	"github.com/nsimlab/loadsim/pkg/experiment"
	"github.com/nsimlab/loadsim/pkg/report"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Args:  cobra.NoArgs,
	Short: "Run the configured parameter sweep",
	Long:  `Loads a sweep configuration and runs every point of its parameter matrix, appending one CSV row per point.`,
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().String("output", "", "CSV output path (overrides reporting.output_csv_path)")
	sweepCmd.Flags().Bool("dry-run", false, "validate configuration and print the sweep matrix size without running it")
	sweepCmd.Flags().Bool("stop-on-signal", true, "abort the sweep cleanly on SIGINT/SIGTERM")
}

func runSweep(cmd *cobra.Command, args []string) error {
	outputOverride, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	stopOnSignal, _ := cmd.Flags().GetBool("stop-on-signal")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if outputOverride != "" {
		cfg.Reporting.OutputCSVPath = outputOverride
	}

	logLevel := report.LogLevelInfo
	if verbose {
		logLevel = report.LogLevelDebug
	}
	logger := report.NewLogger(report.LoggerConfig{
		Level:  logLevel,
		Format: report.LogFormat(cfg.Logging.Format),
		Output: os.Stdout,
	})

	logger.Info("loadsim starting", "version", version)

	abortCtrl := control.New(control.Config{EnableSignalHandlers: stopOnSignal})
	driver := experiment.New(cfg, logger, abortCtrl)
	points := driver.Points()
	logger.Info("sweep matrix assembled", "points", len(points))

	if dryRun {
		fmt.Printf("✅ configuration is valid (dry-run mode): %d sweep points\n", len(points))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	abortCtrl.Start(ctx)
	abortCtrl.OnStop(func() { cancel() })

	writer, err := report.NewCSVWriter(cfg.Reporting.OutputCSVPath)
	if err != nil {
		return fmt.Errorf("failed to create csv writer: %w", err)
	}
	defer writer.Close()

	logger.Info("running sweep", "output", cfg.Reporting.OutputCSVPath)
	results, err := driver.Sweep(writer)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	if cfg.Reporting.EnablePlots {
		if err := renderPlots(cfg, results); err != nil {
			logger.Warn("failed to render plots", "error", err.Error())
		}
	}

	logger.Info("sweep completed", "points_run", len(results))
	return nil
}

// renderPlots writes one latency plot per sweep point, plus one queue-depth
// plot per server that recorded samples, into cfg.Reporting.PlotDir, named after the point's parameters so a
// directory listing doubles as an index.
func renderPlots(cfg *config.Config, results []experiment.PointResult) error {
	if err := os.MkdirAll(cfg.Reporting.PlotDir, 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	for _, result := range results {
		stem := fmt.Sprintf("clients-%d_%s_%s_svc-%s_cache-%s",
			result.Point.NumClients, result.Point.Strategy, result.Point.Topology,
			result.Point.ServiceTimeTier, result.Point.CacheTimeTier)

		if err := plotLatency(cfg, result, stem); err != nil {
			return err
		}
		if err := plotServerQueues(cfg, result, stem); err != nil {
			return err
		}
	}
	return nil
}

func plotLatency(cfg *config.Config, result experiment.PointResult, stem string) error {
	samples := result.Metrics.LatencySeries()
	if len(samples) == 0 {
		return nil
	}
	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.StartedAt
		y[i] = s.Latency
	}
	series := report.Series{
		Title:  "client latency — " + stem,
		XLabel: "request start (s)",
		YLabel: "latency (s)",
		X:      x,
		Y:      y,
	}
	path := filepath.Join(cfg.Reporting.PlotDir, stem+"-latency")
	return report.PlotSeries(series, path, report.PlotFormatPNG, 20)
}

func plotServerQueues(cfg *config.Config, result experiment.PointResult, stem string) error {
	for _, addr := range result.Metrics.ServerAddresses() {
		samples := result.Metrics.ServerQueueSeries(addr)
		if len(samples) == 0 {
			continue
		}
		x := make([]float64, len(samples))
		y := make([]float64, len(samples))
		for i, s := range samples {
			x[i] = s.At
			y[i] = float64(s.Depth)
		}
		series := report.Series{
			Title:  fmt.Sprintf("queue depth — %s (%s)", addr, stem),
			XLabel: "time (s)",
			YLabel: "queue depth",
			X:      x,
			Y:      y,
		}
		path := filepath.Join(cfg.Reporting.PlotDir, fmt.Sprintf("%s-queue-%s", stem, addr))
		if err := report.PlotSeries(series, path, report.PlotFormatPNG, 20); err != nil {
			return err
		}
	}
	return nil
}
