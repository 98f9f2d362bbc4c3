package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVHeader is the sweep's fixed output header.
var CSVHeader = []string{
	"no_of_clients",
	"strategy",
	"type",
	"service_time",
	"cache_time",
	"server_utilization",
	"client_latency",
	"server_queue_length",
	"dropped_requests",
}

// Row is one sweep data point: one parameter combination plus its reduced
// metrics, in the order CSVHeader names.
type Row struct {
	NumClients         int
	Strategy           string
	Topology           string
	ServiceTimeTier    string
	CacheTimeTier      string
	ServerUtilization  float64
	ClientLatency      float64
	ServerQueueLength  float64
	DroppedRequests    int
}

func (r Row) fields() []string {
	return []string{
		fmt.Sprintf("%d", r.NumClients),
		r.Strategy,
		r.Topology,
		r.ServiceTimeTier,
		r.CacheTimeTier,
		fmt.Sprintf("%v", r.ServerUtilization),
		fmt.Sprintf("%v", r.ClientLatency),
		fmt.Sprintf("%v", r.ServerQueueLength),
		fmt.Sprintf("%d", r.DroppedRequests),
	}
}

// CSVWriter accumulates Rows and flushes them to a file, writing the header
// exactly once regardless of how many rows are appended across a sweep.
type CSVWriter struct {
	w           *csv.Writer
	closer      io.Closer
	wroteHeader bool
}

// NewCSVWriter creates (or truncates) path and prepares it for Append calls.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: failed to create csv file: %w", err)
	}
	return &CSVWriter{w: csv.NewWriter(f), closer: f}, nil
}

// Append writes row to the underlying file, writing the header row first if
// this is the first call.
func (c *CSVWriter) Append(row Row) error {
	if !c.wroteHeader {
		if err := c.w.Write(CSVHeader); err != nil {
			return fmt.Errorf("report: failed to write csv header: %w", err)
		}
		c.wroteHeader = true
	}
	if err := c.w.Write(row.fields()); err != nil {
		return fmt.Errorf("report: failed to write csv row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes any buffered output and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	return c.closer.Close()
}
