package domain

import "fmt"

// PhaseCount is the number of pipeline phases. The set is fixed: refit is not a
// general-purpose scheduler.
const PhaseCount = 5

// Phase indices, 1-based. Index 0 is never a valid phase.
const (
	PhaseScan     = 1
	PhaseCritique = 2
	PhasePlan     = 3
	PhaseExecute  = 4
	PhaseValidate = 5
)

var phaseNames = [PhaseCount]string{"scan", "critique", "plan", "execute", "validate"}

// PhaseName returns the canonical lowercase name for a phase index.
// It panics on an out-of-range index; callers must validate first via ValidPhase.
func PhaseName(index int) string {
	if !ValidPhase(index) {
		panic(fmt.Sprintf("domain: phase index %d out of range", index))
	}
	return phaseNames[index-1]
}

// ValidPhase reports whether index is within 1..PhaseCount.
func ValidPhase(index int) bool {
	return index >= 1 && index <= PhaseCount
}

// PhaseStatus defines the state of a single phase within a run.
type PhaseStatus string

const (
	StatusPending          PhaseStatus = "pending"
	StatusRunning          PhaseStatus = "running"
	StatusAwaitingApproval PhaseStatus = "awaiting-approval"
	StatusApproved         PhaseStatus = "approved"
	StatusFailed           PhaseStatus = "failed"
	StatusSkipped          PhaseStatus = "skipped"
)

// Active reports whether the status denotes an in-flight phase (running or
// parked at the human gate). A run has at most one active phase at any instant.
func (s PhaseStatus) Active() bool {
	return s == StatusRunning || s == StatusAwaitingApproval
}
