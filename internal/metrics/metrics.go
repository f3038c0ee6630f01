package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	transitionsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_transitions_accepted_total",
			Help: "Accepted lead status transitions by target category",
		},
		[]string{"category"},
	)

	transitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_transitions_rejected_total",
			Help: "Rejected lead status transitions by validation kind",
		},
		[]string{"kind"},
	)

	assignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_assignments_total",
			Help: "Claim and reassign attempts by outcome",
		},
		[]string{"op", "result"},
	)

	conversions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_conversions_total",
			Help: "Leads converted to customers",
		},
	)
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordTransitionAccepted(category string) {
	transitionsAccepted.WithLabelValues(category).Inc()
}

func RecordTransitionRejected(kind string) {
	transitionsRejected.WithLabelValues(kind).Inc()
}

func RecordAssignment(op, result string) {
	assignments.WithLabelValues(op, result).Inc()
}

func RecordConversion() {
	conversions.Inc()
}
