// Package experiment drives the outer sweep: a Cartesian product of client
// count, strategy, LB topology, service-time tier, and cache-time tier.
// Driver owns one run's lifecycle (Setup→Run→Teardown→Report) through an
// explicit state machine, one point at a time, since a simulated run has
// no containers or sidecars to discover.
package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/nsimlab/loadsim/pkg/actor"
	"github.com/nsimlab/loadsim/pkg/config"
	"github.com/nsimlab/loadsim/pkg/control"
	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/metrics"
	"github.com/nsimlab/loadsim/pkg/netfabric"
	"github.com/nsimlab/loadsim/pkg/report"
	"github.com/nsimlab/loadsim/pkg/simtime"
	"github.com/nsimlab/loadsim/pkg/strategy"
)

// defaultCacheTier is the sweep-matrix cache-tier label used when
// cfg.Sweep.CacheTimeTiers is left empty, i.e. when a config doesn't sweep
// the cache-time axis at all. Its window comes from
// cfg.Topology.CacheInvalidationSec instead of a named tier.
const defaultCacheTier = "default"

// prometheusSyncInterval is how often, in virtual seconds, a running point
// pushes its Registry's latest values into the live Prometheus exporter.
const prometheusSyncInterval = 1.0

// RunState is the current stage of one sweep point's lifecycle.
type RunState int

const (
	StateSetup RunState = iota
	StateRunning
	StateTeardown
	StateReport
	StateCompleted
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateSetup:
		return "SETUP"
	case StateRunning:
		return "RUNNING"
	case StateTeardown:
		return "TEARDOWN"
	case StateReport:
		return "REPORT"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Point is one cell of the sweep's parameter matrix.
type Point struct {
	NumClients      int
	Strategy        string
	Topology        string // "gateway" or "dns"
	ServiceTimeTier string
	CacheTimeTier   string
}

// Driver runs one sweep point at a time, rebuilding the entire simulated
// topology from cfg for each point so runs never leak state into each
// other; each point gets a new Registry, so no Registry.Clear() call is
// needed. The Prometheus exporter, when enabled, is the one piece of
// state that survives across points: its HTTP endpoint stays up and its
// counters stay cumulative for the whole sweep, the way a real scrape
// target would behave across many short-lived jobs.
type Driver struct {
	cfg      *config.Config
	logger   *report.Logger
	abort    *control.Controller
	state    RunState
	exporter *metrics.PrometheusExporter
}

// New constructs a Driver. abort may be nil if the caller does not need a
// way to halt the sweep between points. If cfg.Metrics.PrometheusEnabled is
// set, Sweep serves its /metrics endpoint on cfg.Metrics.PrometheusAddr for
// the lifetime of the sweep.
func New(cfg *config.Config, logger *report.Logger, abort *control.Controller) *Driver {
	d := &Driver{cfg: cfg, logger: logger, abort: abort}
	if cfg.Metrics.PrometheusEnabled {
		d.exporter = metrics.NewPrometheusExporter()
	}
	return d
}

// PointResult is everything one sweep point produced: the summary row plus
// the raw series, for callers that also want to render plots.
type PointResult struct {
	Point   Point
	Row     report.Row
	Metrics *metrics.Registry
}

// Sweep iterates the Cartesian product of cfg.Sweep's axes, running each
// point in turn and appending its row to csv. It stops early, returning the
// results gathered so far, if the driver's abort controller fires between
// points.
func (d *Driver) Sweep(csv *report.CSVWriter) ([]PointResult, error) {
	points := expandMatrix(d.cfg.Sweep)
	results := make([]PointResult, 0, len(points))

	if d.exporter != nil {
		ctx, cancel := context.WithCancel(context.Background())
		serveErr := make(chan error, 1)
		go func() { serveErr <- d.exporter.Serve(ctx, d.cfg.Metrics.PrometheusAddr) }()
		d.logf("prometheus exporter listening on %s", d.cfg.Metrics.PrometheusAddr)
		defer func() {
			cancel()
			if err := <-serveErr; err != nil {
				d.logf("prometheus exporter shutdown error: %v", err)
			}
		}()
	}

	for i, point := range points {
		if d.abort != nil {
			select {
			case <-d.abort.Done():
				d.logf("sweep aborted before point %d/%d", i+1, len(points))
				return results, nil
			default:
			}
		}

		d.logf("running sweep point %d/%d: clients=%d strategy=%s topology=%s service=%s cache=%s",
			i+1, len(points), point.NumClients, point.Strategy, point.Topology, point.ServiceTimeTier, point.CacheTimeTier)

		result, err := d.RunPoint(point)
		if err != nil {
			return results, fmt.Errorf("experiment: sweep point %d/%d failed: %w", i+1, len(points), err)
		}
		if err := csv.Append(result.Row); err != nil {
			return results, fmt.Errorf("experiment: failed to append csv row: %w", err)
		}
		results = append(results, result)
	}

	return results, nil
}

// expandMatrix enumerates the Cartesian product in a fixed, deterministic
// order (client count outermost, cache tier innermost) so that identical
// configs always produce identically ordered sweeps.
func expandMatrix(s config.SweepConfig) []Point {
	serviceKeys := sortedKeys(s.ServiceTimeTiers)
	cacheKeys := sortedKeys(s.CacheTimeTiers)
	if len(cacheKeys) == 0 {
		cacheKeys = []string{defaultCacheTier}
	}

	var points []Point
	for _, n := range s.ClientCounts {
		for _, strat := range s.Strategies {
			for _, topo := range s.LBTopologies {
				for _, svc := range serviceKeys {
					for _, cache := range cacheKeys {
						points = append(points, Point{
							NumClients:      n,
							Strategy:        strat,
							Topology:        topo,
							ServiceTimeTier: svc,
							CacheTimeTier:   cache,
						})
					}
				}
			}
		}
	}
	return points
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Points returns the sweep matrix the driver will run, without running it —
// used by the CLI's --dry-run mode to report the matrix size up front.
func (d *Driver) Points() []Point {
	return expandMatrix(d.cfg.Sweep)
}

// RunPoint builds a fresh scheduler, fabric, and actor population for
// point, runs the simulation to the configured horizon, and reduces the
// resulting metrics into one CSV row.
func (d *Driver) RunPoint(point Point) (PointResult, error) {
	d.state = StateSetup

	sched := simtime.New()
	fabric := netfabric.New(sched)
	registry := metrics.New()
	sink := metrics.NewSink(registry, d.exporter)

	sampler := distribution.NewSampler(d.cfg.Simulation.Seed)

	for _, e := range d.cfg.Topology.TransportDelays {
		srcKind, err := parseKind(e.From)
		if err != nil {
			d.state = StateFailed
			return PointResult{}, err
		}
		dstKind, err := parseKind(e.To)
		if err != nil {
			d.state = StateFailed
			return PointResult{}, err
		}
		fabric.SetDelay(srcKind, dstKind, e.Delay)
	}

	serviceTime := toSpec(d.cfg.Topology.ServerServiceTime)
	serviceMean, ok := d.cfg.Sweep.ServiceTimeTiers[point.ServiceTimeTier]
	if !ok {
		d.state = StateFailed
		return PointResult{}, fmt.Errorf("experiment: unknown service-time tier %q", point.ServiceTimeTier)
	}
	serviceTime.Mean = serviceMean

	cacheWindow, ok := d.cfg.Sweep.CacheTimeTiers[point.CacheTimeTier]
	if !ok {
		if point.CacheTimeTier != defaultCacheTier {
			d.state = StateFailed
			return PointResult{}, fmt.Errorf("experiment: unknown cache-time tier %q", point.CacheTimeTier)
		}
		cacheWindow = d.cfg.Topology.CacheInvalidationSec
	}

	strategyDelaySpec := toSpec(d.cfg.Topology.StrategyProcessing[point.Strategy])

	servers := make([]*actor.Server, 0, d.cfg.Sweep.ServerCount)
	serverByAddress := make(map[string]*actor.Server)

	strat, err := strategy.New(point.Strategy, sampler, func(address string) int {
		if s, ok := serverByAddress[address]; ok {
			return s.QueueDepth()
		}
		return 0
	})
	if err != nil {
		d.state = StateFailed
		return PointResult{}, err
	}

	var lb *actor.LoadBalancer
	gateway := point.Topology == "gateway"
	if gateway {
		lb = actor.NewLoadBalancer(d.cfg.Topology.GatewayAddress, fabric, sched, sink, sampler, strat,
			d.cfg.Topology.LBBufferSize, d.cfg.Topology.LBBufferSize,
			toSpec(d.cfg.Topology.LBProcessingTime), toSpec(d.cfg.Topology.LBProcessingTime), strategyDelaySpec)
	}

	lbAddress := ""
	if lb != nil {
		lbAddress = d.cfg.Topology.GatewayAddress
	}
	for i := 0; i < d.cfg.Sweep.ServerCount; i++ {
		addr := fmt.Sprintf("server-%d", i)
		srv := actor.NewServer(addr, lbAddress, fabric, sched, sink, sampler, serviceTime, d.cfg.Topology.ServerBufferSize)
		servers = append(servers, srv)
		serverByAddress[addr] = srv
		strat.Register(addr)
	}

	topology := actor.Gateway
	if !gateway {
		topology = actor.DNSLB
	}
	actor.NewDNSServer(d.cfg.Topology.DNSAddress, fabric, sched, sink, sampler,
		toSpec(d.cfg.Topology.DNSServiceTime), d.cfg.Topology.DNSBufferSize, topology,
		d.cfg.Topology.GatewayAddress, strat, strategyDelaySpec)

	families := make([]distribution.Family, 0, len(d.cfg.Topology.ClientThinkTime))
	specs := make(map[distribution.Family]distribution.Spec, len(d.cfg.Topology.ClientThinkTime))
	for _, tc := range d.cfg.Topology.ClientThinkTime {
		spec := toSpec(tc)
		families = append(families, spec.Family)
		specs[spec.Family] = spec
	}
	think := actor.ThinkTime{Families: families, Specs: specs}

	clientSpec := actor.ClientSpec{
		DNSAddress:  d.cfg.Topology.DNSAddress,
		CacheWindow: cacheWindow,
		TermProb:    d.cfg.Topology.ClientTerminationP,
		ThinkTime:   think,
	}

	if d.exporter != nil {
		var syncTick simtime.Action
		syncTick = func(now float64) {
			d.exporter.Sync(registry)
			sched.ScheduleAfter(prometheusSyncInterval, syncTick)
		}
		sched.ScheduleAfter(0, syncTick)
	}

	d.state = StateRunning
	actor.SpawnArrivals(sched, fabric, sink, sampler, point.NumClients, d.cfg.Topology.ArrivalIntervalMean, "client", clientSpec)
	sched.RunUntil(d.cfg.Simulation.HorizonSeconds)

	d.state = StateTeardown
	for _, srv := range servers {
		sink.RecordUtilization(srv.Address(), srv.Utilization(sched.Now()))
	}
	if d.exporter != nil {
		d.exporter.Sync(registry)
	}

	d.state = StateReport
	summary := registry.Summarize()
	row := report.Row{
		NumClients:        point.NumClients,
		Strategy:          point.Strategy,
		Topology:          point.Topology,
		ServiceTimeTier:   point.ServiceTimeTier,
		CacheTimeTier:     point.CacheTimeTier,
		ServerUtilization: summary.AvgServerUtilization,
		ClientLatency:     summary.AvgClientLatency,
		ServerQueueLength: summary.AvgServerQueueLength,
		DroppedRequests:   summary.TotalDropped,
	}

	d.state = StateCompleted
	return PointResult{Point: point, Row: row, Metrics: registry}, nil
}

func (d *Driver) logf(format string, args ...interface{}) {
	if d.logger == nil {
		return
	}
	d.logger.Info(fmt.Sprintf(format, args...))
}

func parseKind(name string) (netfabric.EntityKind, error) {
	switch name {
	case "client":
		return netfabric.KindClient, nil
	case "dns":
		return netfabric.KindDNS, nil
	case "lb":
		return netfabric.KindLB, nil
	case "server":
		return netfabric.KindServer, nil
	default:
		return 0, fmt.Errorf("experiment: unknown entity kind %q in transport_delays", name)
	}
}

func toSpec(d config.DistributionConfig) distribution.Spec {
	return distribution.Spec{
		Family: distribution.Family(d.Family),
		Mean:   d.Mean,
		StdDev: d.StdDev,
		Low:    d.Low,
		High:   d.High,
		Shape:  d.Shape,
		Rate:   d.Rate,
		K:      d.K,
	}
}
