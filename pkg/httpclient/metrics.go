package httpclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Total number of backend HTTP requests issued by the client",
		},
		[]string{"client", "method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_backend_request_duration_seconds",
			Help:    "Backend HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client", "method"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_retries_total",
			Help: "Total number of retried backend HTTP requests",
		},
		[]string{"client"},
	)
)

func observe(client, method, status string, start time.Time) {
	requestsTotal.WithLabelValues(client, method, status).Inc()
	requestDuration.WithLabelValues(client, method).Observe(time.Since(start).Seconds())
}
