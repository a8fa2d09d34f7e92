package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentlist_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentlist_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Upload pipeline
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentlist_uploads_total",
			Help: "Upload attempts by outcome",
		},
		[]string{"outcome"}, // success, rejected, failed
	)

	UploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentlist_upload_duration_seconds",
			Help:    "Time to parse, distribute and store one upload",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	RecordsDistributed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentlist_records_distributed_total",
			Help: "Total records assigned to agents",
		},
	)

	// Auth
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentlist_login_attempts_total",
			Help: "Admin login attempts by outcome",
		},
		[]string{"outcome"},
	)

	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentlist_http_panics_total",
			Help: "Handler panics turned into 500 responses",
		},
		[]string{"route"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentlist_websocket_clients",
			Help: "Connected dashboard websocket clients",
		},
	)
)
