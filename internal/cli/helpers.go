package cli

import (
	"encoding/json"
	"fmt"

	"github.com/refitlabs/refit/internal/presentation/tui"
	"github.com/refitlabs/refit/pkg/domain"
)

// checkpointOutput is the JSON shape emitted at every suspension boundary
// when machine-readable output is requested.
type checkpointOutput struct {
	Record   *domain.StateRecord `json:"record"`
	Artifact *domain.Artifact    `json:"artifact,omitempty"`
}

// emitCheckpoint prints the run summary at the suspension boundary: JSON in
// machine mode, glamour-rendered markdown otherwise.
func (a *App) emitCheckpoint(rec *domain.StateRecord, artifact *domain.Artifact) error {
	if a.jsonOut {
		return a.emitJSON(checkpointOutput{Record: rec, Artifact: artifact})
	}

	markdown := tui.CheckpointMarkdown(rec, artifact)
	if a.render == nil {
		a.render = tui.NewRenderer()
	}
	out, err := a.render(markdown)
	if err != nil {
		// Degrade to the raw markdown rather than hiding the checkpoint.
		out = markdown
	}
	fmt.Fprint(a.stdout, out)
	return nil
}

func (a *App) emitJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecord writes the plain-text inspection view: per-phase status lines
// followed by the decision log.
func (a *App) printRecord(rec *domain.StateRecord) {
	fmt.Fprintf(a.stdout, "run %s (created %s)\n", rec.RunID, rec.CreatedAt.Format("2006-01-02 15:04:05"))
	for i := 1; i <= domain.PhaseCount; i++ {
		ps := rec.Phase(i)
		line := fmt.Sprintf("  %d %-10s %s", i, domain.PhaseName(i), ps.Status)
		if ps.StartedAt != nil {
			line += "  started " + ps.StartedAt.Format("15:04:05")
		}
		if ps.EndedAt != nil {
			line += "  ended " + ps.EndedAt.Format("15:04:05")
		}
		fmt.Fprintln(a.stdout, line)
	}

	if len(rec.Decisions) > 0 {
		fmt.Fprintln(a.stdout, "decisions:")
		for _, d := range rec.Decisions {
			line := fmt.Sprintf("  %s phase %d %s", d.Timestamp.Format("15:04:05"), d.Phase, d.Kind)
			if d.Feedback != "" {
				line += fmt.Sprintf(" %q", d.Feedback)
			}
			fmt.Fprintln(a.stdout, line)
		}
	}
}

// describeRun summarizes a record in one short phrase for run listings.
func describeRun(rec *domain.StateRecord) string {
	switch {
	case rec.Succeeded():
		return "complete"
	case rec.Failed():
		return fmt.Sprintf("failed at %s", domain.PhaseName(rec.CurrentPhase))
	default:
		if active := rec.ActivePhase(); active != 0 {
			return fmt.Sprintf("%s %s", domain.PhaseName(active), rec.Status(active))
		}
		return "pending"
	}
}
