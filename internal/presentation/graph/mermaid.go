package graph

import (
	"fmt"
	"strings"

	"github.com/refitlabs/refit/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a run's phase progression.
// Phases are chained left to right; each node carries a status class so the
// rendered diagram shows at a glance where the run stands.
func GenerateMermaid(rec *domain.StateRecord) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for i := 1; i <= domain.PhaseCount; i++ {
		name := domain.PhaseName(i)
		status := rec.Status(i)

		// Node shape: the gate phase is a parallelogram (waiting on input),
		// everything else a rectangle.
		opener, closer := "[", "]"
		if status == domain.StatusAwaitingApproval {
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s<br/>%s\"%s\n", name, opener, name, status, closer))

		if i < domain.PhaseCount {
			arrow := "-->"
			if rec.Status(i+1) == domain.StatusSkipped {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", name, arrow, domain.PhaseName(i+1)))
		}
	}

	sb.WriteString("\n    %% Status Styles\n")
	// Force black text (color:#000) for high contrast regardless of theme.
	sb.WriteString("    classDef approved fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:3,color:#000;\n")

	for i := 1; i <= domain.PhaseCount; i++ {
		name := domain.PhaseName(i)
		switch status := rec.Status(i); {
		case status == domain.StatusApproved:
			sb.WriteString(fmt.Sprintf("    class %s approved;\n", name))
		case status.Active():
			sb.WriteString(fmt.Sprintf("    class %s active;\n", name))
		case status == domain.StatusFailed:
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", name))
		case status == domain.StatusSkipped:
			sb.WriteString(fmt.Sprintf("    class %s skipped;\n", name))
		}
	}

	return sb.String()
}
