// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcome labels
const (
	OutcomeSuccess           = "success"
	OutcomeInvalid           = "invalid_credentials"
	OutcomeLocked            = "locked"
	OutcomeDisabled          = "disabled"
	OutcomeTwoFactorRequired = "two_factor_required"
	OutcomeInvalidTwoFactor  = "invalid_two_factor"
	OutcomeError             = "error"
)

// AuthMetrics groups the counters recorded by the auth services.
// A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	registry        *prometheus.Registry
	logins          *prometheus.CounterVec
	lockouts        prometheus.Counter
	refreshes       *prometheus.CounterVec
	backupCodes     prometheus.Counter
	twoFactorEvents *prometheus.CounterVec
	registrations   prometheus.Counter
}

// New registers the auth counters and the Go runtime collectors on a private registry
func New() *AuthMetrics {
	m := &AuthMetrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mybiotracker",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mybiotracker",
			Subsystem: "auth",
			Name:      "account_lockouts_total",
			Help:      "Accounts locked after repeated failures.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mybiotracker",
			Subsystem: "auth",
			Name:      "token_refresh_total",
			Help:      "Refresh token exchanges by result.",
		}, []string{"result"}),
		backupCodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mybiotracker",
			Subsystem: "auth",
			Name:      "backup_codes_consumed_total",
			Help:      "Backup codes consumed in place of a TOTP code.",
		}),
		twoFactorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mybiotracker",
			Subsystem: "auth",
			Name:      "two_factor_events_total",
			Help:      "Two-factor lifecycle events.",
		}, []string{"event"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mybiotracker",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Accounts created.",
		}),
	}

	m.registry.MustRegister(
		m.logins, m.lockouts, m.refreshes, m.backupCodes, m.twoFactorEvents, m.registrations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *AuthMetrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *AuthMetrics) Lockout() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}

func (m *AuthMetrics) Refresh(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) BackupCodeConsumed() {
	if m == nil {
		return
	}
	m.backupCodes.Inc()
}

// TwoFactor counts "setup", "enabled" and "disabled" events
func (m *AuthMetrics) TwoFactor(event string) {
	if m == nil {
		return
	}
	m.twoFactorEvents.WithLabelValues(event).Inc()
}

func (m *AuthMetrics) Registration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *AuthMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
