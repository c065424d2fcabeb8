package domain

import (
	"context"
	"time"
)

// TransitionEvent describes one phase status change within a run.
type TransitionEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	RunID     string      `json:"run_id"`
	Phase     int         `json:"phase"`
	From      PhaseStatus `json:"from"`
	To        PhaseStatus `json:"to"`
}

// LifecycleHooks defines callbacks for controller observability. Hooks run
// synchronously after the corresponding state write; nil hooks are skipped.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
}

// Fire invokes the transition hook if set.
func (h LifecycleHooks) Fire(ctx context.Context, ev *TransitionEvent) {
	if h.OnTransition != nil {
		h.OnTransition(ctx, ev)
	}
}
