package main

import (
	"github.com/spf13/cobra"

	"github.com/refitlabs/refit/internal/presentation/tui"
)

// runCmd starts a fresh run in full mode: phase one executes and the process
// exits at the first approval gate.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a fresh run and execute the scan phase",
	Long: `Creates a new run, executes the scan phase and stops at its approval gate.
Continue with 'refit approve', 'refit revise' or 'refit resume'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); !jsonOut {
			tui.PrintBanner()
		}

		ctx, cancel := signalContext()
		defer cancel()
		return app.RunFull(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
