// Package metrics exposes cookd's operational counters and gauges over
// Prometheus, the nearest pack example of a daemon exporting its own
// metrics (gcsfuse and rclone both carry github.com/prometheus/client_golang
// for this purpose).
package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the counters and gauges cookd's engine updates as it
// scans, monitors, and rescans.
type Registry struct {
	registry *prometheus.Registry

	ScanDuration       prometheus.Histogram
	RescanQueueDepth   prometheus.Gauge
	JournalRecordsRead prometheus.Counter
	FilesTombstoned    prometheus.Counter
	FilesRevived       prometheus.Counter
	CommandsCreated    prometheus.Counter
}

// New creates a Registry with all of cookd's metrics registered under it.
func New() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cookd",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of a drive's initial directory scan.",
			Buckets:   prometheus.DefBuckets,
		}),
		RescanQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cookd",
			Subsystem: "rescan",
			Name:      "queue_depth",
			Help:      "Number of files currently awaiting a rescan retry.",
		}),
		JournalRecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cookd",
			Subsystem: "journal",
			Name:      "records_read_total",
			Help:      "Total number of change-journal records processed.",
		}),
		FilesTombstoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cookd",
			Subsystem: "index",
			Name:      "files_tombstoned_total",
			Help:      "Total number of files marked deleted.",
		}),
		FilesRevived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cookd",
			Subsystem: "index",
			Name:      "files_revived_total",
			Help:      "Total number of tombstoned files revived at the same path.",
		}),
		CommandsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cookd",
			Subsystem: "cooking",
			Name:      "commands_created_total",
			Help:      "Total number of times the cooking system was asked to create commands for a file.",
		}),
	}

	registry.MustRegister(
		r.ScanDuration,
		r.RescanQueueDepth,
		r.JournalRecordsRead,
		r.FilesTombstoned,
		r.FilesRevived,
		r.CommandsCreated,
	)

	return r
}

// IncJournalRecordsRead implements drive.Metrics.
func (r *Registry) IncJournalRecordsRead() { r.JournalRecordsRead.Inc() }

// IncFilesTombstoned implements drive.Metrics.
func (r *Registry) IncFilesTombstoned() { r.FilesTombstoned.Inc() }

// IncFilesRevived implements drive.Metrics.
func (r *Registry) IncFilesRevived() { r.FilesRevived.Inc() }

// IncCommandsCreated implements drive.Metrics.
func (r *Registry) IncCommandsCreated() { r.CommandsCreated.Inc() }

// ObserveScanDuration implements engine's scan-duration hook.
func (r *Registry) ObserveScanDuration(seconds float64) { r.ScanDuration.Observe(seconds) }

// SetRescanQueueDepth implements engine's rescan-depth hook.
func (r *Registry) SetRescanQueueDepth(depth float64) { r.RescanQueueDepth.Set(depth) }

// Serve runs an HTTP server exposing the registry at /metrics until ctx is
// canceled. A single endpoint doesn't warrant a router dependency, so this
// uses net/http directly.
func (r *Registry) Serve(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: address, Handler: mux}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		return server.Close()
	case err := <-errs:
		return err
	}
}
