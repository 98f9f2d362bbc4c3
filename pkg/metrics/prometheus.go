package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exposes the currently running sweep point's live state
// — queue depths, drop counters, the concurrent-client gauge — as a second
// observability surface alongside the CSV file, not a replacement for it.
// Metric instruments are built once with promauto against a private
// registry, served over HTTP by
// promhttp.HandlerFor. Unlike kubePulse's exporter, which drives its own
// event-consumption loop against a live event bus, this one is driven
// synchronously by the metrics.Registry it wraps, since the simulation
// itself has no asynchronous event source to subscribe to.
type PrometheusExporter struct {
	registry *prometheus.Registry
	server   *http.Server

	serverQueueDepth *prometheus.GaugeVec
	serverDrops      *prometheus.CounterVec
	lbRequestQueue   prometheus.Gauge
	lbResponseQueue  prometheus.Gauge
	lbRequestDrops   prometheus.Counter
	lbResponseDrops  prometheus.Counter
	dnsQueueDepth    prometheus.Gauge
	dnsDrops         prometheus.Counter
	concurrentClient prometheus.Gauge
	completions      prometheus.Counter
}

// NewPrometheusExporter builds an exporter with its own private registry,
// one per Driver, so a test process that builds more than one Driver never
// collides on promauto's default global registry.
func NewPrometheusExporter() *PrometheusExporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusExporter{
		registry: reg,
		serverQueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loadsim_server_queue_depth",
			Help: "Current backend server request-queue depth.",
		}, []string{"server"}),
		serverDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loadsim_server_drops_total",
			Help: "Total requests dropped by a backend server's full queue.",
		}, []string{"server"}),
		lbRequestQueue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loadsim_lb_request_queue_depth",
			Help: "Current load balancer request-queue depth.",
		}),
		lbResponseQueue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loadsim_lb_response_queue_depth",
			Help: "Current load balancer response-queue depth.",
		}),
		lbRequestDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadsim_lb_request_drops_total",
			Help: "Total requests dropped by a full load balancer request queue.",
		}),
		lbResponseDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadsim_lb_response_drops_total",
			Help: "Total responses dropped by a full load balancer response queue.",
		}),
		dnsQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loadsim_dns_queue_depth",
			Help: "Current DNS server request-queue depth.",
		}),
		dnsDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadsim_dns_drops_total",
			Help: "Total requests dropped by the DNS server's full queue.",
		}),
		concurrentClient: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loadsim_concurrent_clients",
			Help: "Current number of live simulated clients.",
		}),
		completions: factory.NewCounter(prometheus.CounterOpts{
			Name: "loadsim_completed_requests_total",
			Help: "Total requests that completed with a response.",
		}),
	}
}

// Serve starts the metrics HTTP endpoint on addr and blocks until ctx is
// cancelled, then shuts the server down gracefully.
func (e *PrometheusExporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))

	e.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- e.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Sync pushes the Registry's latest point-in-time values into the exported
// gauges and counters. The experiment driver schedules this on a recurring
// virtual-time tick plus once more after a point's run loop ends, so a live
// /metrics scrape sees the sweep point currently in flight.
func (e *PrometheusExporter) Sync(r *Registry) {
	for _, addr := range r.ServerAddresses() {
		samples := r.ServerQueueSeries(addr)
		if len(samples) > 0 {
			e.serverQueueDepth.WithLabelValues(addr).Set(float64(samples[len(samples)-1].Depth))
		}
		drops := r.ServerDropSeries(addr)
		if len(drops) > 0 {
			e.serverDrops.WithLabelValues(addr).Add(0) // ensure the series exists even at zero
		}
	}

	if q := r.LBRequestQueueSeries(); len(q) > 0 {
		e.lbRequestQueue.Set(float64(q[len(q)-1].Depth))
	}
	if q := r.LBResponseQueueSeries(); len(q) > 0 {
		e.lbResponseQueue.Set(float64(q[len(q)-1].Depth))
	}
	if q := r.DNSQueueSeries(); len(q) > 0 {
		e.dnsQueueDepth.Set(float64(q[len(q)-1].Depth))
	}

	e.concurrentClient.Set(float64(r.ConcurrentClients()))
	e.completions.Add(0) // keep the series registered even before the first completion
}

// RecordServerDrop increments the exported per-server drop counter. The
// Registry only keeps cumulative series, so the exporter's own counters are
// driven directly by the same call sites that call Registry.RecordServerDrop.
func (e *PrometheusExporter) RecordServerDrop(address string) {
	e.serverDrops.WithLabelValues(address).Inc()
}

// RecordLBRequestDrop increments the exported LB request-drop counter.
func (e *PrometheusExporter) RecordLBRequestDrop() { e.lbRequestDrops.Inc() }

// RecordLBResponseDrop increments the exported LB response-drop counter.
func (e *PrometheusExporter) RecordLBResponseDrop() { e.lbResponseDrops.Inc() }

// RecordDNSDrop increments the exported DNS drop counter.
func (e *PrometheusExporter) RecordDNSDrop() { e.dnsDrops.Inc() }

// RecordCompletion increments the exported completed-request counter.
func (e *PrometheusExporter) RecordCompletion() { e.completions.Inc() }
