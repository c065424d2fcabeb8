package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/refitlabs/refit/internal/cli"
	"github.com/refitlabs/refit/internal/config"
	"github.com/refitlabs/refit/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "refit",
	Short: "Refit drives a five-phase refactoring pipeline with human gates",
	Long: `Refit orchestrates the phases scan, critique, plan, execute and validate,
pausing after each one until you approve the output or request a revision.
State is persisted between invocations, so a run can be resumed at any time.

Running refit with no subcommand starts a fresh run (same as 'refit run').`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", "", "Directory holding run state (default .refit/runs)")
	rootCmd.PersistentFlags().String("config", "refit.yaml", "Path to the config file")
	rootCmd.PersistentFlags().String("redis", "", "Redis address; selects the Redis backend")
	rootCmd.PersistentFlags().Bool("json", false, "Emit machine-readable JSON instead of rendered output")
	rootCmd.PersistentFlags().Bool("trust", false, "Skip precedence re-validation on explicit phase starts")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	// Bare 'refit' starts a fresh run.
	rootCmd.RunE = runCmd.RunE
}

// newApp builds the application from the config file layered under the
// persistent flags.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.RunsDir = dir
	}
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		cfg.RedisAddr = addr
	}
	if trust, _ := cmd.Flags().GetBool("trust"); trust {
		cfg.Precedence = "trust"
	}

	levelName, _ := cmd.Flags().GetString("log-level")
	logger := logging.New(logging.ParseLevel(levelName))
	jsonOut, _ := cmd.Flags().GetBool("json")

	return cli.NewApp(cfg,
		cli.WithLogger(logger),
		cli.WithJSONOutput(jsonOut),
		cli.WithVersion(version()),
	)
}

// signalContext cancels on SIGINT or SIGTERM so an in-flight phase command
// is interrupted cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
