package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for identity gating operations.
type Metrics struct {
	SignupChecks           *prometheus.CounterVec
	LoginAttempts          *prometheus.CounterVec
	EmailChecks            *prometheus.CounterVec
	BlocklistHits          prometheus.Counter
	Lockouts               prometheus.Counter
	AccountsDisabled       prometheus.Counter
	AccountsEnabled        prometheus.Counter
	DirectoryPatchFailures prometheus.Counter
}

// New registers and returns identity metrics collectors.
func New() *Metrics {
	return &Metrics{
		SignupChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idguard_signup_checks_total",
			Help: "Total number of signup gating decisions by outcome",
		}, []string{"outcome"}),
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idguard_login_attempts_total",
			Help: "Total number of login attempt decisions by outcome",
		}, []string{"outcome"}),
		EmailChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idguard_email_checks_total",
			Help: "Total number of standalone email checks by outcome",
		}, []string{"outcome"}),
		BlocklistHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idguard_blocklist_hits_total",
			Help: "Total number of addresses denied by the blocklist",
		}),
		Lockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idguard_lockouts_total",
			Help: "Total number of accounts locked by the attempt threshold",
		}),
		AccountsDisabled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idguard_accounts_disabled_total",
			Help: "Total number of directory accounts disabled after a blocklist hit",
		}),
		AccountsEnabled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idguard_accounts_enabled_total",
			Help: "Total number of directory accounts re-enabled after activation",
		}),
		DirectoryPatchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idguard_directory_patch_failures_total",
			Help: "Total number of failed directory state writes",
		}),
	}
}
