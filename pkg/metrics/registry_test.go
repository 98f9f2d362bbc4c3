package metrics_test

import (
	"testing"

	"github.com/nsimlab/loadsim/pkg/metrics"
)

func TestSummarizeReducesAcrossSeries(t *testing.T) {
	r := metrics.New()
	r.RecordServerQueueDepth("s1", 0, 2)
	r.RecordServerQueueDepth("s1", 1, 4)
	r.RecordServerDrop("s1", 2)
	r.RecordLBRequestDrop(3)
	r.RecordDNSDrop(4)
	r.RecordLatency(0, 1.5, 1.5)
	r.RecordUtilization("s1", 0.5)
	r.RecordUtilization("s2", 0.25)

	sum := r.Summarize()
	if sum.AvgServerQueueLength != 3 {
		t.Fatalf("avg queue length = %g, want 3", sum.AvgServerQueueLength)
	}
	if sum.AvgClientLatency != 1.5 {
		t.Fatalf("avg latency = %g, want 1.5", sum.AvgClientLatency)
	}
	if sum.AvgServerUtilization != 0.375 {
		t.Fatalf("avg utilization = %g, want 0.375", sum.AvgServerUtilization)
	}
	if sum.TotalDropped != 3 {
		t.Fatalf("total dropped = %d, want 3", sum.TotalDropped)
	}
}

func TestClearResetsAllSeries(t *testing.T) {
	r := metrics.New()
	r.RecordServerQueueDepth("s1", 0, 5)
	r.RecordLatency(0, 1, 1)
	r.RecordClientBirth(0)

	r.Clear()

	sum := r.Summarize()
	if sum.AvgServerQueueLength != 0 || sum.AvgClientLatency != 0 || sum.TotalDropped != 0 {
		t.Fatalf("Clear left residual state: %+v", sum)
	}
	if r.ConcurrentClients() != 0 {
		t.Fatalf("concurrent clients = %d, want 0 after Clear", r.ConcurrentClients())
	}
}

func TestConcurrentClientGaugeTracksBirthsAndDeaths(t *testing.T) {
	r := metrics.New()
	r.RecordClientBirth(0)
	r.RecordClientBirth(1)
	r.RecordClientDeath(2)

	if got := r.ConcurrentClients(); got != 1 {
		t.Fatalf("concurrent clients = %d, want 1", got)
	}
	series := r.ConcurrentClientSeries()
	if len(series) != 3 {
		t.Fatalf("series length = %d, want 3", len(series))
	}
}

func TestCompletionSeriesIsCumulative(t *testing.T) {
	r := metrics.New()
	r.RecordLatency(0, 1, 1)
	r.RecordLatency(1, 1, 2)

	series := r.CompletionSeries()
	if len(series) != 2 || series[0].Count != 1 || series[1].Count != 2 {
		t.Fatalf("unexpected completion series: %+v", series)
	}
}
