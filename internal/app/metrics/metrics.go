package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	connections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "user_service",
			Subsystem: "listener",
			Name:      "connections_total",
			Help:      "Accepted connections by outcome.",
		},
		[]string{"result"},
	)

	inflightConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "user_service",
			Subsystem: "listener",
			Name:      "inflight_connections",
			Help:      "Connections currently being served.",
		},
	)

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "user_service",
			Subsystem: "router",
			Name:      "requests_total",
			Help:      "Dispatched requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "user_service",
			Subsystem: "router",
			Name:      "request_duration_seconds",
			Help:      "Time spent dispatching a request, lock wait included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"route"},
	)

	lockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "user_service",
			Subsystem: "users",
			Name:      "handle_lock_wait_seconds",
			Help:      "Time spent waiting for the shared service handle.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)
)

func init() {
	Registry.MustRegister(
		connections,
		inflightConnections,
		requests,
		requestDuration,
		lockWait,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Connection outcomes.
const (
	ConnServed   = "served"
	ConnReadErr  = "read_error"
	ConnWriteErr = "write_error"
	ConnTooLarge = "too_large"
)

// RecordConnection counts one finished connection.
func RecordConnection(result string) {
	connections.WithLabelValues(result).Inc()
}

// ConnectionOpened tracks a connection until the returned func is called.
func ConnectionOpened() func() {
	inflightConnections.Inc()
	return inflightConnections.Dec
}

// RecordRequest records a dispatched request.
func RecordRequest(route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordLockWait records how long a caller waited for the service handle.
func RecordLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}
