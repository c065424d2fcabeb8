package domain

import "time"

// Artifact is the output content produced by one successful phase execution,
// plus a short human-readable summary. Re-execution after a revision request
// produces a new artifact superseding the prior one; Revision counts upward
// from 1.
type Artifact struct {
	RunID     string    `json:"run_id"`
	Phase     int       `json:"phase"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Revision  int       `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
}
