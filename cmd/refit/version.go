package main

import (
	"fmt"

	"github.com/spf13/cobra"

	refit "github.com/refitlabs/refit"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of refit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("refit version %s\n", version())
	},
}

func version() string {
	return refit.Version
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
