package domain

import "time"

// PhaseState captures the status and timing of one phase within a run.
type PhaseState struct {
	Status    PhaseStatus `json:"status"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
}

// DecisionKind is the outcome recorded at a human gate.
type DecisionKind string

const (
	DecisionApprove DecisionKind = "approve"
	DecisionRevise  DecisionKind = "revise"
	DecisionSkip    DecisionKind = "skip"
)

// Decision is one entry of a run's decision log.
type Decision struct {
	Phase     int          `json:"phase"`
	Kind      DecisionKind `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
	Feedback  string       `json:"feedback,omitempty"`
}

// StateRecord is the authoritative snapshot of a run. It is the single source
// of truth for resumption and must never be inferred from artifact presence.
type StateRecord struct {
	RunID        string                 `json:"run_id"`
	CreatedAt    time.Time              `json:"created_at"`
	CurrentPhase int                    `json:"current_phase"`
	Phases       [PhaseCount]PhaseState `json:"phases"`
	Decisions    []Decision             `json:"decisions"`
}

// NewStateRecord creates a fresh record with all phases pending.
func NewStateRecord(runID string, createdAt time.Time) *StateRecord {
	rec := &StateRecord{
		RunID:     runID,
		CreatedAt: createdAt,
		Decisions: []Decision{},
	}
	for i := range rec.Phases {
		rec.Phases[i].Status = StatusPending
	}
	return rec
}

// Phase returns a pointer to the state of the 1-based phase index.
func (r *StateRecord) Phase(index int) *PhaseState {
	return &r.Phases[index-1]
}

// Status returns the status of the 1-based phase index.
func (r *StateRecord) Status(index int) PhaseStatus {
	return r.Phases[index-1].Status
}

// ActivePhase returns the index of the phase currently running or awaiting
// approval, or 0 if no phase is active.
func (r *StateRecord) ActivePhase() int {
	for i := range r.Phases {
		if r.Phases[i].Status.Active() {
			return i + 1
		}
	}
	return 0
}

// Succeeded reports whether the run reached terminal success: the final phase
// is approved (earlier phases may be skipped).
func (r *StateRecord) Succeeded() bool {
	return r.Phases[PhaseCount-1].Status == StatusApproved ||
		r.Phases[PhaseCount-1].Status == StatusSkipped && r.allSettled()
}

// Failed reports whether any phase is recorded failed.
func (r *StateRecord) Failed() bool {
	for i := range r.Phases {
		if r.Phases[i].Status == StatusFailed {
			return true
		}
	}
	return false
}

// Terminal reports whether the run has ended, successfully or not. Terminal
// runs remain readable but cannot advance without an explicit phase restart.
func (r *StateRecord) Terminal() bool {
	return r.Succeeded() || r.Failed()
}

// Decide appends an entry to the decision log.
func (r *StateRecord) Decide(phase int, kind DecisionKind, at time.Time, feedback string) {
	r.Decisions = append(r.Decisions, Decision{
		Phase:     phase,
		Kind:      kind,
		Timestamp: at,
		Feedback:  feedback,
	})
}

// allSettled reports whether every phase is approved or skipped.
func (r *StateRecord) allSettled() bool {
	for i := range r.Phases {
		if s := r.Phases[i].Status; s != StatusApproved && s != StatusSkipped {
			return false
		}
	}
	return true
}
