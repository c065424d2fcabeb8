package main

import (
	"github.com/spf13/cobra"
)

// serveCmd exposes the read-only inspection API over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only inspection API",
	Long: `Starts an HTTP server exposing run state, artifacts and prometheus
metrics. The API never mutates a run; all decisions stay on the CLI.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")

		ctx, cancel := signalContext()
		defer cancel()
		return app.Serve(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8137)")
}
