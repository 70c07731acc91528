package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec

	backendRequestsTotal  *prometheus.CounterVec
	backendLatencySeconds *prometheus.HistogramVec

	gradingDraftsOpened       *prometheus.CounterVec
	gradingSubmissionsTotal   *prometheus.CounterVec
	gradingValidationFailures prometheus.Counter
	gradingDroppedAnswers     prometheus.Counter

	eventsPublishedTotal *prometheus.CounterVec
	cacheLookupsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the admin API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		backendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Requests sent to the hiring platform backend by operation and status.",
		}, []string{"operation", "status"})

		backendLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backend_latency_seconds",
			Help:    "Latency distribution for hiring platform backend calls.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"operation"})

		gradingDraftsOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_drafts_opened_total",
			Help: "Grading drafts opened, split by whether an existing draft was resumed.",
		}, []string{"source"})

		gradingSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_submissions_total",
			Help: "Grade submissions by outcome.",
		}, []string{"outcome"})

		gradingValidationFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_validation_failures_total",
			Help: "Grade submissions blocked by score validation.",
		})

		gradingDroppedAnswers = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_dropped_answers_total",
			Help: "Submitted answers that did not resolve to an assignment question.",
		})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_events_published_total",
			Help: "Admin events published by type and transport.",
		}, []string{"type", "transport"})

		cacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and result.",
		}, []string{"cache", "result"})

		prometheus.MustRegister(
			adminRequestsTotal, adminLatencySeconds, adminErrorsTotal,
			backendRequestsTotal, backendLatencySeconds,
			gradingDraftsOpened, gradingSubmissionsTotal, gradingValidationFailures, gradingDroppedAnswers,
			eventsPublishedTotal, cacheLookupsTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// BackendRequests counts upstream calls by operation and status.
func BackendRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return backendRequestsTotal
}

// BackendLatency exposes the upstream latency histogram.
func BackendLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return backendLatencySeconds
}

// GradingDraftsOpened counts opened drafts; source is "fresh" or "resumed".
func GradingDraftsOpened() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingDraftsOpened
}

// GradingSubmissions counts submit attempts; outcome is "graded", "invalid" or "failed".
func GradingSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingSubmissionsTotal
}

func GradingValidationFailures() prometheus.Counter {
	RegisterMetrics()
	return gradingValidationFailures
}

func GradingDroppedAnswers() prometheus.Counter {
	RegisterMetrics()
	return gradingDroppedAnswers
}

// EventsPublished counts admin events fanned out per transport.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// CacheLookups counts hits and misses for the redis-backed caches.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookupsTotal
}
