package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// loginAttempts counts password logins.
	// Labels:
	//   - outcome: "success", "failure", "error"
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelcrm_auth_login_attempts_total",
			Help: "Total number of password login attempts",
		},
		[]string{"outcome"},
	)

	// authFailures counts requests whose credential could not be resolved to a principal.
	authFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelcrm_auth_failures_total",
			Help: "Total number of rejected credentials by reason",
		},
		[]string{"reason"},
	)

	// authzDecisions counts guard decisions.
	// Labels:
	//   - decision: "allow", "deny"
	//   - requirement: permission or role set that was checked
	authzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelcrm_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"decision", "requirement"},
	)

	tokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelcrm_auth_token_refresh_total",
			Help: "Total number of refresh token exchanges",
		},
		[]string{"outcome"},
	)
)
