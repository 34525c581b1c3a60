package handlers

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twolaunch",
			Name:      "registrations_total",
			Help:      "Accounts registered, by whether the welcome email was sent.",
		}, []string{"sent_email"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twolaunch",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twolaunch",
			Name:      "auth_failures_total",
			Help:      "Rejected bearer-authenticated requests by reason.",
		}, []string{"reason"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "twolaunch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.registrations, m.logins, m.authFailures, m.requestDuration)
	return m
}

func (m *Metrics) observeRegistration(sentEmail bool) {
	m.registrations.WithLabelValues(strconv.FormatBool(sentEmail)).Inc()
}

func (m *Metrics) observeLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) observeAuthFailure(reason string) {
	m.authFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeRequest(method, route string, status int, seconds float64) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
