// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to the server's accept loop, worker pool, and
// request processor.
//
// When defining new operations or metrics, these are helpful values to track:
//   - things coming into or go out of the system: requests, files, bytes.
//   - the success or error status of any of the above.
//   - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkersActive tracks the number of in-flight request-processing
	// workers, i.e. admitted connections that have not yet sent their
	// response and closed.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quickft_workers_active",
			Help: "Number of worker goroutines currently processing a request.",
		},
	)

	// FramesTotal counts frames sent or received, by message kind and
	// direction ("rx"/"tx").
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickft_frames_total",
			Help: "Total number of QuickFT frames processed.",
		}, []string{"kind", "direction"})

	// ErrorsTotal counts failed operations by the result code that was
	// returned.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickft_errors_total",
			Help: "Total number of operations that ended in a non-success result code.",
		}, []string{"code"})

	// RequestDuration tracks end-to-end latency of a single request, from
	// accept to response sent, by message kind.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quickft_request_duration_seconds",
			Help:    "Request processing latency distribution (seconds), from accept to response sent.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"})

	// BytesTransferredTotal counts payload bytes moved by SEND and RECEIVE
	// operations, measured as the gzip-compressed, base64-armored content
	// carried in the frame (not the on-disk file size).
	BytesTransferredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quickft_bytes_transferred_total",
			Help: "Total bytes transferred, by operation kind.",
		}, []string{"kind"})

	// ConnectionsAcceptedTotal counts connections accepted by the server.
	ConnectionsAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickft_connections_accepted_total",
			Help: "Total number of TCP connections accepted by the server.",
		},
	)

	// ConnectionsRejectedTotal counts connections that were accepted at
	// the TCP layer but rejected before spawning a worker because the
	// admission-control semaphore was saturated.
	ConnectionsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quickft_connections_rejected_total",
			Help: "Total number of connections rejected due to the concurrent-worker admission limit.",
		},
	)
)

// init logs that the metrics package has loaded and its prometheus metrics
// have auto-registered, matching the startup-visibility behavior this
// codebase's metrics package has always had.
func init() {
	log.Println("Prometheus metrics in quickft.metrics are registered.")
}
