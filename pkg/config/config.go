// Package config loads and validates the YAML document describing one
// sweep: the experiment matrix plus every simulation parameter the
// topology needs. Load follows a defaults-then-overlay shape; Validate
// accumulates every problem it finds rather than stopping at the first.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full sweep configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Topology   TopologyConfig   `yaml:"topology"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Reporting  ReportingConfig  `yaml:"reporting"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// SimulationConfig fixes the run's clock and reproducibility.
type SimulationConfig struct {
	HorizonSeconds float64 `yaml:"horizon_seconds"`
	Seed           int64   `yaml:"seed"`
}

// TopologyConfig describes the fixed part of the simulated network: its
// addresses, buffer sizes, transport delays, and the distributions each
// actor draws its own service time from. The strategy and LB topology are
// swept (see SweepConfig) rather than fixed here.
type TopologyConfig struct {
	GatewayAddress string `yaml:"gateway_address"`
	DNSAddress     string `yaml:"dns_address"`

	ServerBufferSize int `yaml:"server_buffer_size"`
	LBBufferSize     int `yaml:"lb_buffer_size"`
	DNSBufferSize    int `yaml:"dns_buffer_size"`

	ArrivalIntervalMean  float64 `yaml:"arrival_interval_mean"`
	ClientTerminationP   float64 `yaml:"client_termination_probability"`

	// CacheInvalidationSec is the cache window used for every sweep point
	// when sweep.cache_time_tiers is left empty, i.e. when the cache-time
	// axis isn't part of the sweep at all.
	CacheInvalidationSec float64 `yaml:"cache_invalidation_seconds"`

	ServerServiceTime   DistributionConfig            `yaml:"server_service_time"`
	DNSServiceTime      DistributionConfig            `yaml:"dns_service_time"`
	LBProcessingTime    DistributionConfig            `yaml:"lb_processing_time"`
	StrategyProcessing  map[string]DistributionConfig `yaml:"strategy_processing_time"`
	ClientThinkTime     []DistributionConfig          `yaml:"client_think_time"`
	TransportDelays     []TransportDelayConfig        `yaml:"transport_delays"`
}

// DistributionConfig names one of pkg/distribution's Family values plus its
// parameters; fields not relevant to Family are ignored.
type DistributionConfig struct {
	Family string  `yaml:"family"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
	Low    float64 `yaml:"low"`
	High   float64 `yaml:"high"`
	Shape  float64 `yaml:"shape"`
	Rate   float64 `yaml:"rate"`
	K      float64 `yaml:"k"`
}

// TransportDelayConfig sets the one-way delay for one (source kind,
// destination kind) edge; kinds are the lowercase netfabric.EntityKind
// names (client, dns, lb, server).
type TransportDelayConfig struct {
	From  string  `yaml:"from"`
	To    string  `yaml:"to"`
	Delay float64 `yaml:"delay"`
}

// SweepConfig is the Cartesian product iterated once per sweep: client
// count × strategy × LB topology × service-time tier × cache-time tier.
// Tiers are named buckets, not raw numbers, so the CSV row can carry a
// readable label instead of a bare float.
type SweepConfig struct {
	ClientCounts     []int              `yaml:"client_counts"`
	Strategies       []string           `yaml:"strategies"`
	LBTopologies     []string           `yaml:"lb_topologies"`
	ServiceTimeTiers map[string]float64 `yaml:"service_time_tiers"`
	CacheTimeTiers   map[string]float64 `yaml:"cache_time_tiers"`
	ServerCount      int                `yaml:"server_count"`
}

// ReportingConfig controls the sweep's CSV and optional plot output.
type ReportingConfig struct {
	OutputCSVPath string `yaml:"output_csv_path"`
	PlotDir       string `yaml:"plot_dir"`
	EnablePlots   bool   `yaml:"enable_plots"`
}

// LoggingConfig configures pkg/report's zerolog wrapper.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the optional live Prometheus exporter.
type MetricsConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusAddr    string `yaml:"prometheus_addr"`
}

// Default returns a complete configuration: four servers, modest buffers,
// and a sweep over three client counts, all three strategies, both LB
// topologies, and two service-time and two cache-time tiers.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			HorizonSeconds: 600,
			Seed:           1,
		},
		Topology: TopologyConfig{
			GatewayAddress:       "lb-0",
			DNSAddress:           "dns-0",
			ServerBufferSize:     16,
			LBBufferSize:         32,
			DNSBufferSize:        16,
			ArrivalIntervalMean:  0.5,
			ClientTerminationP:   0.01,
			CacheInvalidationSec: 30,
			ServerServiceTime:    DistributionConfig{Family: "normal", Mean: 0.2, StdDev: 0.05},
			DNSServiceTime:       DistributionConfig{Family: "exponential", Mean: 0.01},
			LBProcessingTime:     DistributionConfig{Family: "exponential", Mean: 0.005},
			StrategyProcessing: map[string]DistributionConfig{
				"round_robin":       {Family: "burst", Mean: 0},
				"least_connections": {Family: "exponential", Mean: 0.04},
				"random":            {Family: "burst", Mean: 0},
			},
			ClientThinkTime: []DistributionConfig{
				{Family: "exponential", Mean: 1.0},
				{Family: "burst", Mean: 0.1},
			},
			TransportDelays: []TransportDelayConfig{
				{From: "client", To: "dns", Delay: 0.01},
				{From: "dns", To: "client", Delay: 0.01},
				{From: "client", To: "lb", Delay: 0.01},
				{From: "lb", To: "client", Delay: 0.01},
				{From: "lb", To: "server", Delay: 0.005},
				{From: "server", To: "lb", Delay: 0.005},
				{From: "client", To: "server", Delay: 0.01},
				{From: "server", To: "client", Delay: 0.01},
				{From: "dns", To: "server", Delay: 0.005},
			},
		},
		Sweep: SweepConfig{
			ClientCounts:     []int{10, 50, 100},
			Strategies:       []string{"round_robin", "least_connections", "random"},
			LBTopologies:     []string{"gateway", "dns"},
			ServiceTimeTiers: map[string]float64{"low": 0.1, "high": 0.4},
			CacheTimeTiers:   map[string]float64{"low": 5, "high": 60},
			ServerCount:      4,
		},
		Reporting: ReportingConfig{
			OutputCSVPath: "./results.csv",
			PlotDir:       "./plots",
			EnablePlots:   false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			PrometheusEnabled: false,
			PrometheusAddr:    ":9464",
		},
	}
}

// Load reads path, overlaying its contents onto Default(). A missing file
// is not an error: the caller gets the default configuration back. Any
// ${VAR}-style environment reference in the file is expanded via
// os.ExpandEnv before parsing.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidationError aggregates every problem Validate finds instead of
// failing on the first.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %d validation error(s): %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

var validStrategies = map[string]bool{"round_robin": true, "least_connections": true, "random": true}
var validTopologies = map[string]bool{"gateway": true, "dns": true}
var validFamilies = map[string]bool{"normal": true, "exponential": true, "uniform": true, "gamma": true, "chi_squared": true, "burst": true}

// Validate walks c and returns a *ValidationError naming every problem
// found, or nil if c is usable as-is. Returning nil is required for the
// error to compare equal to a plain nil error value to callers; a
// non-empty *ValidationError is always returned as an error interface with
// at least one entry.
func (c *Config) Validate() error {
	verr := &ValidationError{}

	if c.Simulation.HorizonSeconds <= 0 {
		verr.add("simulation.horizon_seconds must be positive")
	}

	if c.Topology.GatewayAddress == "" {
		verr.add("topology.gateway_address is required")
	}
	if c.Topology.DNSAddress == "" {
		verr.add("topology.dns_address is required")
	}
	if c.Topology.ServerBufferSize <= 0 {
		verr.add("topology.server_buffer_size must be positive")
	}
	if c.Topology.LBBufferSize <= 0 {
		verr.add("topology.lb_buffer_size must be positive")
	}
	if c.Topology.DNSBufferSize <= 0 {
		verr.add("topology.dns_buffer_size must be positive")
	}
	if c.Topology.ArrivalIntervalMean <= 0 {
		verr.add("topology.arrival_interval_mean must be positive")
	}
	if c.Topology.ClientTerminationP < 0 || c.Topology.ClientTerminationP > 1 {
		verr.add("topology.client_termination_probability must be in [0, 1]")
	}
	if c.Topology.CacheInvalidationSec <= 0 {
		verr.add("topology.cache_invalidation_seconds must be positive")
	}
	validateDistribution(verr, "topology.server_service_time", c.Topology.ServerServiceTime)
	validateDistribution(verr, "topology.dns_service_time", c.Topology.DNSServiceTime)
	validateDistribution(verr, "topology.lb_processing_time", c.Topology.LBProcessingTime)
	for name, d := range c.Topology.StrategyProcessing {
		validateDistribution(verr, fmt.Sprintf("topology.strategy_processing_time[%s]", name), d)
	}
	if len(c.Topology.ClientThinkTime) == 0 {
		verr.add("topology.client_think_time must name at least one distribution")
	}
	for i, d := range c.Topology.ClientThinkTime {
		validateDistribution(verr, fmt.Sprintf("topology.client_think_time[%d]", i), d)
	}
	for i, e := range c.Topology.TransportDelays {
		if e.Delay < 0 {
			verr.add("topology.transport_delays[%d] delay must be non-negative", i)
		}
	}

	if len(c.Sweep.ClientCounts) == 0 {
		verr.add("sweep.client_counts must name at least one value")
	}
	if c.Sweep.ServerCount <= 0 {
		verr.add("sweep.server_count must be positive")
	}
	if len(c.Sweep.Strategies) == 0 {
		verr.add("sweep.strategies must name at least one value")
	}
	for _, s := range c.Sweep.Strategies {
		if !validStrategies[s] {
			verr.add("sweep.strategies: unknown strategy %q", s)
		}
	}
	if len(c.Sweep.LBTopologies) == 0 {
		verr.add("sweep.lb_topologies must name at least one value")
	}
	for _, topo := range c.Sweep.LBTopologies {
		if !validTopologies[topo] {
			verr.add("sweep.lb_topologies: unknown topology %q", topo)
		}
	}
	if len(c.Sweep.ServiceTimeTiers) == 0 {
		verr.add("sweep.service_time_tiers must name at least one tier")
	}
	// cache_time_tiers may be left empty: RunPoint falls back to a single
	// "default" tier drawn from topology.cache_invalidation_seconds.

	if c.Reporting.OutputCSVPath == "" {
		verr.add("reporting.output_csv_path is required")
	}

	if c.Metrics.PrometheusEnabled && c.Metrics.PrometheusAddr == "" {
		verr.add("metrics.prometheus_addr is required when metrics.prometheus_enabled is true")
	}

	if len(verr.Errors) == 0 {
		return nil
	}
	return verr
}

func validateDistribution(verr *ValidationError, path string, d DistributionConfig) {
	if !validFamilies[d.Family] {
		verr.add("%s: unknown distribution family %q", path, d.Family)
		return
	}
	if d.Family == "uniform" && d.High < d.Low {
		verr.add("%s: uniform high %g < low %g", path, d.High, d.Low)
	}
}
