// Package main is the entry point for the pimonitor agent.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const defaultConfigPath = "config.json"

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pimonitor [minutes]",
		Short: "Raspberry Pi resource monitor",
		Long: `pimonitor samples CPU load, RAM, SoC temperature and disk usage, compares
them with configured limits and mails the operator when a limit is reached.

Without arguments it runs a single monitoring cycle. With a number of minutes
it pauses alert mail for that long.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runPause(cmd, args[0])
			}
			return runCycle(cmd)
		},
	}

	cmd.PersistentFlags().String("config", configPathFromEnv(), "path to the JSON or YAML config file")

	cmd.AddCommand(newPingCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pimonitor %s\n", Version)
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}

// configPathFromEnv returns PIMONITOR_CONFIG or the default path.
func configPathFromEnv() string {
	if p := os.Getenv("PIMONITOR_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
