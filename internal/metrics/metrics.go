package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubauth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by method and outcome.",
	}, []string{"method", "outcome"})

	RefreshRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubauth",
		Name:      "refresh_rotations_total",
		Help:      "Refresh token rotation attempts by outcome.",
	}, []string{"outcome"})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubauth",
		Name:      "registrations_total",
		Help:      "Successfully registered users.",
	})

	TokensPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubauth",
		Name:      "refresh_tokens_purged_total",
		Help:      "Refresh token rows removed by the periodic purge.",
	})
)

const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeProviderErr = "provider_error"
	OutcomeStoreErr    = "store_error"
)
