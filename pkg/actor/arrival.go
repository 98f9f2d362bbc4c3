package actor

import (
	"fmt"

	"github.com/nsimlab/loadsim/pkg/distribution"
	"github.com/nsimlab/loadsim/pkg/metrics"
	"github.com/nsimlab/loadsim/pkg/netfabric"
	"github.com/nsimlab/loadsim/pkg/simtime"
)

// ClientSpec configures every client spawned by SpawnArrivals; only the id
// and the address (addressPrefix plus the client's index) vary per client.
type ClientSpec struct {
	DNSAddress  string
	CacheWindow float64
	TermProb    float64
	ThinkTime   ThinkTime
}

// SpawnArrivals creates exactly count clients, one at a time, spaced by
// draws from an exponential with mean arrivalInterval, including the delay
// before the very first client: the simulated population is a fixed total
// that trickles in, not an unbounded arrival process that runs for the
// whole horizon.
// The returned slice is pre-sized to count and filled in by index as each
// client is actually spawned, so callers that only read it back after
// driving the scheduler (tests, mainly) see every client without needing a
// second return channel.
func SpawnArrivals(sched *simtime.Scheduler, fabric *netfabric.Fabric, sink *metrics.Sink, sampler *distribution.Sampler, count int, arrivalInterval float64, addressPrefix string, spec ClientSpec) []*Client {
	clients := make([]*Client, count)
	interval := distribution.Spec{Family: distribution.Exponential, Mean: arrivalInterval}

	var spawnNext func(i int, at float64)
	spawnNext = func(i int, at float64) {
		if i >= count {
			return
		}
		id := fmt.Sprintf("client-%d", i)
		address := fmt.Sprintf("%s-%d", addressPrefix, i)
		c := NewClient(id, address, spec.DNSAddress, spec.CacheWindow, spec.TermProb, spec.ThinkTime, fabric, sched, sink, sampler)
		clients[i] = c
		c.Start(at)

		if i+1 < count {
			gap := sampler.Sample(interval)
			sched.ScheduleAfter(gap, func(now float64) {
				spawnNext(i+1, now)
			})
		}
	}

	firstGap := sampler.Sample(interval)
	sched.ScheduleAfter(firstGap, func(now float64) {
		spawnNext(0, now)
	})

	return clients
}
