package main

import (
	"github.com/spf13/cobra"
)

// reviseCmd re-runs the gated phase with operator feedback.
var reviseCmd = &cobra.Command{
	Use:   "revise [run]",
	Short: "Request a revision of the phase waiting at the gate",
	Long: `Sends the gated phase back to its executor together with your feedback.
The new output supersedes the previous artifact and waits at the same gate.`,
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

		ctx, cancel := signalContext()
		defer cancel()
		return app.Revise(ctx, selector, feedback)
	},
}

func init() {
	rootCmd.AddCommand(reviseCmd)
	reviseCmd.Flags().StringP("message", "m", "", "Feedback handed to the phase executor")
	reviseCmd.MarkFlagRequired("message")
}
