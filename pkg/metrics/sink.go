package metrics

// Sink is the collector handle actors are given: every Record* call updates
// the run's Registry and, when a live Prometheus exporter is attached,
// also updates its gauges/counters. Actors depend on this instead of a
// global singleton so the experiment driver can hand each run a fresh,
// independent collector — matching the design note that metrics should be
// "an injected collector object per scheduler instance rather than global
// singletons".
type Sink struct {
	Registry   *Registry
	Prometheus *PrometheusExporter // nil when no live exporter is configured
}

// NewSink wraps registry with an optional exporter. exporter may be nil.
func NewSink(registry *Registry, exporter *PrometheusExporter) *Sink {
	return &Sink{Registry: registry, Prometheus: exporter}
}

func (s *Sink) RecordServerQueueDepth(address string, at float64, depth int) {
	s.Registry.RecordServerQueueDepth(address, at, depth)
}

func (s *Sink) RecordServerDrop(address string, at float64) {
	s.Registry.RecordServerDrop(address, at)
	if s.Prometheus != nil {
		s.Prometheus.RecordServerDrop(address)
	}
}

func (s *Sink) RecordLBRequestQueueDepth(at float64, depth int) {
	s.Registry.RecordLBRequestQueueDepth(at, depth)
}

func (s *Sink) RecordLBResponseQueueDepth(at float64, depth int) {
	s.Registry.RecordLBResponseQueueDepth(at, depth)
}

func (s *Sink) RecordLBRequestDrop(at float64) {
	s.Registry.RecordLBRequestDrop(at)
	if s.Prometheus != nil {
		s.Prometheus.RecordLBRequestDrop()
	}
}

func (s *Sink) RecordLBResponseDrop(at float64) {
	s.Registry.RecordLBResponseDrop(at)
	if s.Prometheus != nil {
		s.Prometheus.RecordLBResponseDrop()
	}
}

func (s *Sink) RecordDNSQueueDepth(at float64, depth int) {
	s.Registry.RecordDNSQueueDepth(at, depth)
}

func (s *Sink) RecordDNSDrop(at float64) {
	s.Registry.RecordDNSDrop(at)
	if s.Prometheus != nil {
		s.Prometheus.RecordDNSDrop()
	}
}

func (s *Sink) RecordLatency(startedAt, latency, at float64) {
	s.Registry.RecordLatency(startedAt, latency, at)
	if s.Prometheus != nil {
		s.Prometheus.RecordCompletion()
	}
}

func (s *Sink) RecordClientBirth(at float64) { s.Registry.RecordClientBirth(at) }
func (s *Sink) RecordClientDeath(at float64) { s.Registry.RecordClientDeath(at) }

func (s *Sink) RecordUtilization(address string, utilization float64) {
	s.Registry.RecordUtilization(address, utilization)
}
