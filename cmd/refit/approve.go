package main

import (
	"github.com/spf13/cobra"
)

// approveCmd accepts the phase waiting at the run's approval gate.
var approveCmd = &cobra.Command{
	Use:   "approve [run]",
	Short: "Approve the phase waiting at the gate",
	Long: `Records an approval for the phase parked at the run's approval gate and,
unless --no-advance is given, immediately executes the next phase up to its
own gate. Without an argument the latest run is used.`,
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
		feedback, _ := cmd.Flags().GetString("message")
		noAdvance, _ := cmd.Flags().GetBool("no-advance")

		ctx, cancel := signalContext()
		defer cancel()
		return app.Approve(ctx, selector, feedback, !noAdvance)
	},
}

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().StringP("message", "m", "", "Optional note recorded with the approval")
	approveCmd.Flags().Bool("no-advance", false, "Approve without starting the next phase")
}
