// Package metrics defines the Prometheus collectors the server exposes on
// /metrics.
//
// Collectors live on a private registry rather than the global default, so
// tests can build as many independent instances as they like.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devmarket"

// Metrics groups every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ProjectEvents          *prometheus.CounterVec
	HackathonRegistrations *prometheus.CounterVec
	PostsCreated           *prometheus.CounterVec
	Logins                 *prometheus.CounterVec
}

// New creates and registers every collector, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		ProjectEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "project_events_total",
			Help:      "Project lifecycle events (created, updated, viewed, downloaded, purchased).",
		}, []string{"event"}),

		HackathonRegistrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hackathon_registrations_total",
			Help:      "Hackathon registration attempts by outcome.",
		}, []string{"outcome"}),

		PostsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_created_total",
			Help:      "Buyer posts created by kind.",
		}, []string{"kind"}),

		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by method and outcome.",
		}, []string{"method", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.ProjectEvents,
		m.HackathonRegistrations,
		m.PostsCreated,
		m.Logins,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Project event labels.
const (
	ProjectCreated    = "created"
	ProjectUpdated    = "updated"
	ProjectViewed     = "viewed"
	ProjectDownloaded = "downloaded"
	ProjectPurchased  = "purchased"
)

func (m *Metrics) ProjectEvent(event string) {
	if m == nil {
		return
	}
	m.ProjectEvents.WithLabelValues(event).Inc()
}

// Registration outcomes.
const (
	RegistrationAdded     = "added"
	RegistrationDuplicate = "duplicate"
	RegistrationFull      = "full"
)

func (m *Metrics) HackathonRegistration(outcome string) {
	if m == nil {
		return
	}
	m.HackathonRegistrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PostCreated(kind string) {
	if m == nil {
		return
	}
	m.PostsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) Login(method string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.Logins.WithLabelValues(method, outcome).Inc()
}
