package main

import (
	"github.com/spf13/cobra"
)

// quickCmd runs the scan phase only, approving it automatically.
var quickCmd = &cobra.Command{
	Use:   "quick",
	Short: "Run the scan phase without gates and skip the rest",
	Long: `Creates a fresh run, executes the scan phase, approves its output
automatically and marks every later phase skipped. The run ends complete
with exactly one artifact.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()
		return app.RunQuick(ctx)
	},
}

func init() {
	rootCmd.AddCommand(quickCmd)
}
