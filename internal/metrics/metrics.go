// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iliyamo/cinema-catalog/internal/model"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_operations_total",
			Help: "Catalog and scheduling operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"type", "outcome"},
	)
)

// Outcome classifies an operation result for the Operations counter.
func Outcome(err error) string {
	var (
		ve *model.ValidationError
		nf *model.NotFoundError
		ce *model.ConflictError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ce):
		return "conflict"
	}
	return "error"
}

// ObserveOperation counts one operation.
func ObserveOperation(op string, err error) {
	Operations.WithLabelValues(op, Outcome(err)).Inc()
}
