package main

import (
	"github.com/spf13/cobra"
)

// resumeCmd continues the selected run from its persisted state.
var resumeCmd = &cobra.Command{
	Use:   "resume [run]",
	Short: "Continue a run from where it stopped",
	Long: `Re-reads the run's persisted state and continues it. A phase waiting at
its approval gate is presented again unchanged; resuming is always safe to
repeat. A failed phase is restarted only with --rerun.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		selector := ""
		if len(args) > 0 {
			selector = args[0]
		}
		rerun, _ := cmd.Flags().GetBool("rerun")

		ctx, cancel := signalContext()
		defer cancel()
		return app.Resume(ctx, selector, rerun)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().Bool("rerun", false, "Restart the failed phase")
}
