// Package prom records resolver and verification outcomes as Prometheus
// counters.
package prom

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

const namespace = "siteassist"

// Metrics holds the counters. Each instance owns its registry so tests
// and multiple servers never collide on registration.
type Metrics struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	transitions *prometheus.CounterVec
	otpChecks   *prometheus.CounterVec
}

// New creates the counters on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Resolved queries by winning source and whether an answer was found.",
			},
			[]string{"source", "found"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_transitions_total",
				Help:      "Verification state changes.",
			},
			[]string{"from", "to"},
		),
		otpChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "otp_checks_total",
				Help:      "SMS code checks by outcome.",
			},
			[]string{"reason"},
		),
	}
}

// ObserveResolution counts a resolved query.
func (m *Metrics) ObserveResolution(source domain.AnswerSource, found bool) {
	m.resolutions.WithLabelValues(source.String(), strconv.FormatBool(found)).Inc()
}

// ObserveTransition counts a verification state change.
func (m *Metrics) ObserveTransition(from, to domain.VerificationState) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveOTPCheck counts an SMS code check.
func (m *Metrics) ObserveOTPCheck(reason domain.OTPReason) {
	m.otpChecks.WithLabelValues(string(reason)).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
