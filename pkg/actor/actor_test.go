package actor

import (
	"testing"

	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/metrics"
	"github.com/nsimlab/loadsim/pkg/netfabric"
	"github.com/nsimlab/loadsim/pkg/simtime"
	"github.com/nsimlab/loadsim/pkg/strategy"
)

func newHarness(seed int64) (*simtime.Scheduler, *netfabric.Fabric, *metrics.Sink, *distribution.Sampler) {
	sched := simtime.New()
	fabric := netfabric.New(sched)
	sink := metrics.NewSink(metrics.New(), nil)
	sampler := distribution.NewSampler(seed)
	return sched, fabric, sink, sampler
}

func fastSpec(mean float64) distribution.Spec {
	return distribution.Spec{Family: distribution.Burst, Mean: mean}
}

// TestHappyPathGatewayRoundRobin: one client resolves the gateway address,
// the load balancer round-robins to a backend, and the response flows back
// through the load balancer to the client, completing exactly one latency
// sample.
func TestHappyPathGatewayRoundRobin(t *testing.T) {
	sched, fabric, sink, sampler := newHarness(1)

	strat := strategy.NewRoundRobin()
	_ = NewLoadBalancer("lb-0", fabric, sched, sink, sampler, strat, 8, 8, fastSpec(0), fastSpec(0), fastSpec(0))
	srv := NewServer("srv-0", "lb-0", fabric, sched, sink, sampler, fastSpec(1), 8)
	strat.Register(srv.address)

	_ = NewDNSServer("dns-0", fabric, sched, sink, sampler, fastSpec(0), 8, Gateway, "lb-0", nil, distribution.Spec{})

	think := ThinkTime{
		Families: []distribution.Family{distribution.Burst},
		Specs:    map[distribution.Family]distribution.Spec{distribution.Burst: fastSpec(1000)},
	}
	client := NewClient("client-0", "client-addr-0", "dns-0", 0, 0, think, fabric, sched, sink, sampler)
	client.Start(0)

	sched.RunUntil(100)

	summary := sink.Registry.Summarize()
	if summary.TotalDropped != 0 {
		t.Fatalf("expected no drops, got %d", summary.TotalDropped)
	}
	latencies := sink.Registry.LatencySeries()
	if len(latencies) != 1 {
		t.Fatalf("expected exactly one completed request, got %d", len(latencies))
	}
}

// TestDNSCacheHonouredWithinWindow verifies a second cycle within the cache
// window skips DNS resolution entirely: the DNS server never sees a second
// dns_request.
func TestDNSCacheHonouredWithinWindow(t *testing.T) {
	sched, fabric, sink, sampler := newHarness(2)

	strat := strategy.NewRoundRobin()
	lb := NewLoadBalancer("lb-0", fabric, sched, sink, sampler, strat, 8, 8, fastSpec(0), fastSpec(0), fastSpec(0))
	srv := NewServer("srv-0", "lb-0", fabric, sched, sink, sampler, fastSpec(1), 8)
	strat.Register(srv.address)

	dns := NewDNSServer("dns-0", fabric, sched, sink, sampler, fastSpec(0), 8, Gateway, "lb-0", nil, distribution.Spec{})

	think := ThinkTime{
		Families: []distribution.Family{distribution.Burst},
		Specs:    map[distribution.Family]distribution.Spec{distribution.Burst: fastSpec(5)},
	}
	client := NewClient("client-0", "client-addr-0", "dns-0", 1000, 0, think, fabric, sched, sink, sampler)
	client.Start(0)

	sched.RunUntil(50)

	latencies := sink.Registry.LatencySeries()
	if len(latencies) < 2 {
		t.Fatalf("expected at least two completed cycles, got %d", len(latencies))
	}
	if dns.QueueDepth() != 0 {
		t.Fatalf("dns server queue should be drained, got depth %d", dns.QueueDepth())
	}
	// One dns_request yields exactly two DNS queue samples (enqueue, dequeue).
	if got := len(sink.Registry.DNSQueueSeries()); got != 2 {
		t.Fatalf("expected exactly one dns_request (2 queue samples), got %d samples", got)
	}
	_ = lb
}

// TestServerOverflowNotifiesClient: a server with zero capacity drops the
// very first request and the client must observe it as a drop_server, not
// silence or a hang.
func TestServerOverflowNotifiesClient(t *testing.T) {
	sched, fabric, sink, sampler := newHarness(3)

	strat := strategy.NewRoundRobin()
	_ = NewLoadBalancer("lb-0", fabric, sched, sink, sampler, strat, 8, 8, fastSpec(0), fastSpec(0), fastSpec(0))
	srv := NewServer("srv-0", "lb-0", fabric, sched, sink, sampler, fastSpec(1000), 0)
	strat.Register(srv.address)

	dns := NewDNSServer("dns-0", fabric, sched, sink, sampler, fastSpec(0), 8, Gateway, "lb-0", nil, distribution.Spec{})

	think := ThinkTime{
		Families: []distribution.Family{distribution.Burst},
		Specs:    map[distribution.Family]distribution.Spec{distribution.Burst: fastSpec(1000)},
	}
	client := NewClient("client-0", "client-addr-0", "dns-0", 0, 0, think, fabric, sched, sink, sampler)
	client.Start(0)

	sched.RunUntil(100)

	summary := sink.Registry.Summarize()
	if summary.TotalDropped != 1 {
		t.Fatalf("expected exactly one dropped request, got %d", summary.TotalDropped)
	}
	if len(sink.Registry.LatencySeries()) != 0 {
		t.Fatalf("a dropped request must not record a latency sample")
	}
	_ = dns
}

// TestLBResponseQueueOverflowNotifiesClient: the request path succeeds but
// the response queue is too small to hold the reply, so the client sees a
// drop rather than a completed cycle.
func TestLBResponseQueueOverflowNotifiesClient(t *testing.T) {
	sched, fabric, sink, sampler := newHarness(4)

	strat := strategy.NewRoundRobin()
	lb := NewLoadBalancer("lb-0", fabric, sched, sink, sampler, strat, 8, 0, fastSpec(0), fastSpec(0), fastSpec(0))
	srv := NewServer("srv-0", "lb-0", fabric, sched, sink, sampler, fastSpec(1), 8)
	strat.Register(srv.address)

	dns := NewDNSServer("dns-0", fabric, sched, sink, sampler, fastSpec(0), 8, Gateway, "lb-0", nil, distribution.Spec{})

	think := ThinkTime{
		Families: []distribution.Family{distribution.Burst},
		Specs:    map[distribution.Family]distribution.Spec{distribution.Burst: fastSpec(1000)},
	}
	client := NewClient("client-0", "client-addr-0", "dns-0", 0, 0, think, fabric, sched, sink, sampler)
	client.Start(0)

	sched.RunUntil(100)

	summary := sink.Registry.Summarize()
	if summary.TotalDropped != 1 {
		t.Fatalf("expected exactly one dropped response, got %d", summary.TotalDropped)
	}
	_ = dns
	_ = lb
}

// TestClientTerminatesAndUnregisters: once the termination draw fires, the
// client must leave the fabric so any further delivery to its address is a
// silent no-op rather than a panic.
func TestClientTerminatesAndUnregisters(t *testing.T) {
	sched, fabric, sink, sampler := newHarness(5)

	dns := NewDNSServer("dns-0", fabric, sched, sink, sampler, fastSpec(0), 8, Gateway, "lb-0", nil, distribution.Spec{})
	strat := strategy.NewRoundRobin()
	lb := NewLoadBalancer("lb-0", fabric, sched, sink, sampler, strat, 8, 8, fastSpec(0), fastSpec(0), fastSpec(0))

	think := ThinkTime{
		Families: []distribution.Family{distribution.Burst},
		Specs:    map[distribution.Family]distribution.Spec{distribution.Burst: fastSpec(1)},
	}
	client := NewClient("client-0", "client-addr-0", "dns-0", 0, 1, think, fabric, sched, sink, sampler)
	client.Start(0)

	if client.Alive() {
		t.Fatalf("client with termProb=1 should terminate on its first cycle")
	}
	if _, ok := fabric.Lookup("client-addr-0"); ok {
		t.Fatalf("terminated client must unregister from the fabric")
	}
	_ = dns
	_ = lb
}

// TestSpawnArrivalsCreatesExactlyCount verifies a fixed population, not an
// unbounded arrival process: exactly count clients are created regardless
// of how far the scheduler runs past the last arrival.
func TestSpawnArrivalsCreatesExactlyCount(t *testing.T) {
	sched, fabric, sink, sampler := newHarness(6)

	dns := NewDNSServer("dns-0", fabric, sched, sink, sampler, fastSpec(0), 64, Gateway, "lb-0", nil, distribution.Spec{})
	strat := strategy.NewRoundRobin()
	_ = NewLoadBalancer("lb-0", fabric, sched, sink, sampler, strat, 64, 64, fastSpec(0), fastSpec(0), fastSpec(0))
	srv := NewServer("srv-0", "lb-0", fabric, sched, sink, sampler, fastSpec(1), 64)
	strat.Register(srv.address)

	think := ThinkTime{
		Families: []distribution.Family{distribution.Burst},
		Specs:    map[distribution.Family]distribution.Spec{distribution.Burst: fastSpec(1000)},
	}
	spec := ClientSpec{DNSAddress: "dns-0", CacheWindow: 0, TermProb: 0, ThinkTime: think}
	clients := SpawnArrivals(sched, fabric, sink, sampler, 5, 2, "client", spec)

	sched.RunUntil(1000)

	if len(clients) != 5 {
		t.Fatalf("expected exactly 5 clients spawned, got %d", len(clients))
	}
	if got := sink.Registry.ConcurrentClients(); got != 5 {
		t.Fatalf("expected exactly 5 clients born, got %d", got)
	}
	_ = dns
}
