package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	gradingOutcomes     *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	socketClientsActive prometheus.Gauge
	pointsAwardedTotal  *prometheus.CounterVec
	badgesGrantedTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradingOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_outcomes_total",
			Help: "Graded attempts by flow and final status.",
		}, []string{"flow", "status"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications delivered to subscribers by type.",
		}, []string{"type"})

		socketClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_socket_clients_active",
			Help: "Number of connected notification websocket clients.",
		})

		pointsAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Points credited to users by mission.",
		}, []string{"mission"})

		badgesGrantedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badges_granted_total",
			Help: "Badges unlocked by name.",
		}, []string{"badge"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingOutcomes,
			notificationsTotal,
			socketClientsActive,
			pointsAwardedTotal,
			badgesGrantedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingOutcomes counts graded attempts per flow (practice, contest, assessment).
func GradingOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingOutcomes
}

// NotificationsPublishedTotal counts delivered notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// SocketClientsActive tracks connected notification sockets.
func SocketClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return socketClientsActive
}

// PointsAwarded counts credited points.
func PointsAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return pointsAwardedTotal
}

// BadgesGranted counts unlocked badges.
func BadgesGranted() *prometheus.CounterVec {
	RegisterMetrics()
	return badgesGrantedTotal
}
