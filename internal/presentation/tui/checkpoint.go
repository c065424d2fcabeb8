package tui

import (
	"fmt"
	"strings"

	"github.com/refitlabs/refit/pkg/domain"
)

// statusGlyphs give the phase table a scannable left edge.
var statusGlyphs = map[domain.PhaseStatus]string{
	domain.StatusPending:          " ",
	domain.StatusRunning:          "~",
	domain.StatusAwaitingApproval: "?",
	domain.StatusApproved:         "x",
	domain.StatusFailed:           "!",
	domain.StatusSkipped:          "-",
}

// CheckpointMarkdown builds the human-readable summary printed at the
// suspension boundary, as markdown for the glamour renderer.
func CheckpointMarkdown(rec *domain.StateRecord, artifact *domain.Artifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", rec.RunID)
	for i := 1; i <= domain.PhaseCount; i++ {
		ps := rec.Phase(i)
		fmt.Fprintf(&b, "- [%s] **%s** — %s\n", statusGlyphs[ps.Status], domain.PhaseName(i), ps.Status)
	}

	if artifact != nil {
		fmt.Fprintf(&b, "\n## Phase %d (%s) output, revision %d\n\n%s\n",
			artifact.Phase, domain.PhaseName(artifact.Phase), artifact.Revision, artifact.Summary)
	}

	if active := rec.ActivePhase(); active != 0 && rec.Status(active) == domain.StatusAwaitingApproval {
		fmt.Fprintf(&b, "\nAwaiting your decision on phase %d (%s): `refit approve` or `refit revise -m <feedback>`.\n",
			active, domain.PhaseName(active))
	}
	if rec.Succeeded() {
		b.WriteString("\nRun complete.\n")
	}
	if rec.Failed() {
		fmt.Fprintf(&b, "\nRun failed at phase %d. Re-run `refit phase %d` to retry.\n",
			rec.CurrentPhase, rec.CurrentPhase)
	}

	return b.String()
}
