package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/refitlabs/refit/pkg/domain"
)

// phaseCmd executes one explicit phase against a run.
var phaseCmd = &cobra.Command{
	Use:   "phase <index|name>",
	Short: "Execute a single phase of a run",
	Long: `Executes one phase by index (1-5) or name (scan, critique, plan, execute,
validate). Without --run the latest run is used; a fresh run is created when
none exists. Under the default strict policy the preceding phase must already
be approved or skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		phase, err := parsePhase(args[0])
		if err != nil {
			return err
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		selector, _ := cmd.Flags().GetString("run")

		ctx, cancel := signalContext()
		defer cancel()
		return app.RunPhase(ctx, selector, phase)
	},
}

func init() {
	rootCmd.AddCommand(phaseCmd)
	phaseCmd.Flags().String("run", "", "Run selector (ID or 'latest')")
}

// parsePhase accepts a 1-based index or a canonical phase name.
func parsePhase(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if !domain.ValidPhase(n) {
			return 0, fmt.Errorf("phase index %d out of range 1-%d", n, domain.PhaseCount)
		}
		return n, nil
	}
	for i := 1; i <= domain.PhaseCount; i++ {
		if domain.PhaseName(i) == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}
