package main

import (
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored runs",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all runs with their status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return app.ListRuns(ctx)
	},
}

var runsInspectCmd = &cobra.Command{
	Use:   "inspect [run]",
	Short: "Show the full state record of a run, decision log included",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		selector := ""
		if len(args) > 0 {
			selector = args[0]
		}
		asGraph, _ := cmd.Flags().GetBool("graph")
		ctx, cancel := signalContext()
		defer cancel()
		return app.InspectRun(ctx, selector, asGraph)
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm [run...]",
	Short: "Delete runs and their artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return cmd.Help()
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return app.RemoveRuns(ctx, args, all)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd)
	runsCmd.AddCommand(runsInspectCmd)
	runsCmd.AddCommand(runsRmCmd)

	runsInspectCmd.Flags().Bool("graph", false, "Render the run as a Mermaid flowchart")
	runsRmCmd.Flags().Bool("all", false, "Delete every run")
}
