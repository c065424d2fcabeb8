package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/refitlabs/refit/pkg/domain"
)

var (
	phaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refit_phase_transitions_total",
		Help: "Phase status transitions, labeled by phase name and resulting status.",
	}, []string{"phase", "to"})

	runsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refit_runs_created_total",
		Help: "Runs created.",
	})
)

// Hooks returns lifecycle hooks that feed the prometheus counters.
func Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, ev *domain.TransitionEvent) {
			phaseTransitions.WithLabelValues(domain.PhaseName(ev.Phase), string(ev.To)).Inc()
		},
	}
}

// RunCreated counts one new run.
func RunCreated() {
	runsCreated.Inc()
}
