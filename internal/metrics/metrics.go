// Package metrics exposes the Prometheus collectors of the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthEventsTotal counts signup and token exchanges by outcome.
	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_auth_events_total",
			Help: "Total number of authentication flow events",
		},
		[]string{"event", "outcome"},
	)

	// AuthzDeniedTotal counts rejected requests by policy outcome.
	AuthzDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_authz_denied_total",
			Help: "Total number of authorization denials",
		},
		[]string{"reason"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"backend"},
	)

	MailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_mail_sent_total",
			Help: "Total number of outgoing emails by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthEvent records event ("signup", "token") with outcome
// ("success", "invalid", "not_found", "error").
func RecordAuthEvent(event, outcome string) {
	AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

func RecordAuthzDenied(reason string) {
	AuthzDeniedTotal.WithLabelValues(reason).Inc()
}

func RecordRateLimited(backend string) {
	RateLimitedTotal.WithLabelValues(backend).Inc()
}

func RecordMail(err error) {
	if err != nil {
		MailSentTotal.WithLabelValues("error").Inc()
		return
	}
	MailSentTotal.WithLabelValues("success").Inc()
}
