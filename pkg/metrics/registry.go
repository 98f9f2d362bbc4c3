// Package metrics collects the time-stamped samples the simulator produces
// during one run — queue depths, drops, latencies, utilization, concurrent
// clients — and reduces them to the summary a parameter sweep reports.
// The scheduler that drives every write is single-threaded, so unlike a
// collector built for a real-time polling goroutine this one carries no
// mutex.
package metrics

import "sort"

// QueueSample is one (time, depth) observation of a bounded queue, taken on
// every enqueue and dequeue.
type QueueSample struct {
	At    float64
	Depth int
}

// LatencySample is one completed request's end-to-end latency, keyed by the
// virtual time its cycle started.
type LatencySample struct {
	StartedAt float64
	Latency   float64
}

// CountSample is a (time, cumulative count) observation, used for the drop,
// completion, and concurrent-client time series.
type CountSample struct {
	At    float64
	Count int
}

// Registry is the process-wide (per run) collector. Create one per
// scheduler instance and call Clear between runs of a parameter sweep
// rather than relying on a global singleton, so the sweep driver gets
// clean per-run state without action at a distance.
type Registry struct {
	serverQueue map[string][]QueueSample
	serverDrops map[string][]CountSample
	serverDropN map[string]int

	lbReqQueue []QueueSample
	lbResQueue []QueueSample
	lbReqDrops []CountSample
	lbResDrops []CountSample
	lbReqDropN int
	lbResDropN int

	dnsQueue []QueueSample
	dnsDrops []CountSample
	dnsDropN int

	latencies []LatencySample

	completions    []CountSample
	completedCount int

	concurrentClients      []CountSample
	concurrentClientsCount int

	utilization map[string]float64
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{}
	r.Clear()
	return r
}

// Clear resets every series to empty, preparing the Registry for the next
// run in a parameter sweep.
func (r *Registry) Clear() {
	r.serverQueue = make(map[string][]QueueSample)
	r.serverDrops = make(map[string][]CountSample)
	r.serverDropN = make(map[string]int)
	r.lbReqQueue = nil
	r.lbResQueue = nil
	r.lbReqDrops = nil
	r.lbResDrops = nil
	r.lbReqDropN = 0
	r.lbResDropN = 0
	r.dnsQueue = nil
	r.dnsDrops = nil
	r.dnsDropN = 0
	r.latencies = nil
	r.completions = nil
	r.completedCount = 0
	r.concurrentClients = nil
	r.concurrentClientsCount = 0
	r.utilization = make(map[string]float64)
}

// RecordServerQueueDepth samples a backend server's request-queue length.
func (r *Registry) RecordServerQueueDepth(address string, at float64, depth int) {
	r.serverQueue[address] = append(r.serverQueue[address], QueueSample{At: at, Depth: depth})
}

// RecordServerDrop increments a backend server's drop counter and appends a
// point to its cumulative drop time series.
func (r *Registry) RecordServerDrop(address string, at float64) {
	r.serverDropN[address]++
	r.serverDrops[address] = append(r.serverDrops[address], CountSample{At: at, Count: r.serverDropN[address]})
}

// RecordLBRequestQueueDepth samples the load balancer's request queue.
func (r *Registry) RecordLBRequestQueueDepth(at float64, depth int) {
	r.lbReqQueue = append(r.lbReqQueue, QueueSample{At: at, Depth: depth})
}

// RecordLBResponseQueueDepth samples the load balancer's response queue.
func (r *Registry) RecordLBResponseQueueDepth(at float64, depth int) {
	r.lbResQueue = append(r.lbResQueue, QueueSample{At: at, Depth: depth})
}

// RecordLBRequestDrop records an overflow of the load balancer's request queue.
func (r *Registry) RecordLBRequestDrop(at float64) {
	r.lbReqDropN++
	r.lbReqDrops = append(r.lbReqDrops, CountSample{At: at, Count: r.lbReqDropN})
}

// RecordLBResponseDrop records an overflow of the load balancer's response queue.
func (r *Registry) RecordLBResponseDrop(at float64) {
	r.lbResDropN++
	r.lbResDrops = append(r.lbResDrops, CountSample{At: at, Count: r.lbResDropN})
}

// RecordDNSQueueDepth samples the DNS server's request queue.
func (r *Registry) RecordDNSQueueDepth(at float64, depth int) {
	r.dnsQueue = append(r.dnsQueue, QueueSample{At: at, Depth: depth})
}

// RecordDNSDrop records an overflow of the DNS server's request queue.
func (r *Registry) RecordDNSDrop(at float64) {
	r.dnsDropN++
	r.dnsDrops = append(r.dnsDrops, CountSample{At: at, Count: r.dnsDropN})
}

// RecordLatency records one completed request's end-to-end latency and
// advances the cumulative-completions series.
func (r *Registry) RecordLatency(startedAt, latency float64, at float64) {
	r.latencies = append(r.latencies, LatencySample{StartedAt: startedAt, Latency: latency})
	r.completedCount++
	r.completions = append(r.completions, CountSample{At: at, Count: r.completedCount})
}

// RecordClientBirth increments the concurrent-client gauge.
func (r *Registry) RecordClientBirth(at float64) {
	r.concurrentClientsCount++
	r.concurrentClients = append(r.concurrentClients, CountSample{At: at, Count: r.concurrentClientsCount})
}

// RecordClientDeath decrements the concurrent-client gauge.
func (r *Registry) RecordClientDeath(at float64) {
	r.concurrentClientsCount--
	r.concurrentClients = append(r.concurrentClients, CountSample{At: at, Count: r.concurrentClientsCount})
}

// RecordUtilization stores a backend server's final busy_time/elapsed
// ratio, computed by the server actor at the end of a run.
func (r *Registry) RecordUtilization(address string, utilization float64) {
	r.utilization[address] = utilization
}

// ConcurrentClients returns the current value of the concurrent-client gauge.
func (r *Registry) ConcurrentClients() int { return r.concurrentClientsCount }

// CompletedCount returns the number of completed requests recorded so far.
func (r *Registry) CompletedCount() int { return r.completedCount }

// Summary is the reduced view a parameter-sweep row reports.
type Summary struct {
	AvgServerQueueLength float64
	AvgClientLatency     float64
	AvgServerUtilization float64
	TotalDropped         int
}

// Summarize reduces every series collected so far to the four fields a
// sweep row reports.
func (r *Registry) Summarize() Summary {
	return Summary{
		AvgServerQueueLength: r.avgServerQueueLength(),
		AvgClientLatency:     r.avgLatency(),
		AvgServerUtilization: r.avgUtilization(),
		TotalDropped:         r.totalDropped(),
	}
}

func (r *Registry) avgServerQueueLength() float64 {
	var sum float64
	var n int
	for _, samples := range r.serverQueue {
		for _, s := range samples {
			sum += float64(s.Depth)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (r *Registry) avgLatency() float64 {
	if len(r.latencies) == 0 {
		return 0
	}
	var sum float64
	for _, l := range r.latencies {
		sum += l.Latency
	}
	return sum / float64(len(r.latencies))
}

func (r *Registry) avgUtilization() float64 {
	if len(r.utilization) == 0 {
		return 0
	}
	var sum float64
	for _, u := range r.utilization {
		sum += u
	}
	return sum / float64(len(r.utilization))
}

func (r *Registry) totalDropped() int {
	total := r.lbReqDropN + r.lbResDropN + r.dnsDropN
	for _, n := range r.serverDropN {
		total += n
	}
	return total
}

// ServerQueueSeries returns the recorded queue-depth series for a backend
// server, for plotting.
func (r *Registry) ServerQueueSeries(address string) []QueueSample {
	return r.serverQueue[address]
}

// ServerDropSeries returns the cumulative drop series for a backend server,
// for plotting.
func (r *Registry) ServerDropSeries(address string) []CountSample {
	return r.serverDrops[address]
}

// LBRequestQueueSeries returns the load balancer's request-queue series.
func (r *Registry) LBRequestQueueSeries() []QueueSample { return r.lbReqQueue }

// LBResponseQueueSeries returns the load balancer's response-queue series.
func (r *Registry) LBResponseQueueSeries() []QueueSample { return r.lbResQueue }

// LBRequestDropSeries returns the load balancer's cumulative request-drop series.
func (r *Registry) LBRequestDropSeries() []CountSample { return r.lbReqDrops }

// LBResponseDropSeries returns the load balancer's cumulative response-drop series.
func (r *Registry) LBResponseDropSeries() []CountSample { return r.lbResDrops }

// DNSQueueSeries returns the DNS server's queue-depth series.
func (r *Registry) DNSQueueSeries() []QueueSample { return r.dnsQueue }

// DNSDropSeries returns the DNS server's cumulative drop series.
func (r *Registry) DNSDropSeries() []CountSample { return r.dnsDrops }

// LatencySeries returns every recorded latency sample, in completion order.
func (r *Registry) LatencySeries() []LatencySample { return r.latencies }

// CompletionSeries returns the cumulative-completions series.
func (r *Registry) CompletionSeries() []CountSample { return r.completions }

// ConcurrentClientSeries returns the concurrent-client gauge's history.
func (r *Registry) ConcurrentClientSeries() []CountSample { return r.concurrentClients }

// ServerAddresses returns the addresses of every server that has recorded
// at least one queue-depth sample, for iterating per-server plots.
func (r *Registry) ServerAddresses() []string {
	addrs := make([]string, 0, len(r.serverQueue))
	for addr := range r.serverQueue {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}
