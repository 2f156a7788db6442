// Package main provides the ravlbench command, a benchmark and audit driver
// for the ravl map.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ravlbench",
		Short: "Benchmark and audit the ravl lock-free relaxed AVL map",
		Long: `ravlbench drives a ravl map with a configurable workload.

Commands:
  run       Concurrent throughput benchmark
  verify    Sequential audit against a reference map`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default .ravlbench.yaml in . or $HOME)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-encoding", "", "log encoding: console, json")
	rootCmd.PersistentFlags().IntP("violation-bound", "d", 0, "violations tolerated on an update path before rebalancing")

	rootCmd.AddCommand(newRunCommand(&configPath))
	rootCmd.AddCommand(newVerifyCommand(&configPath))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ravlbench %s\n", version)
		},
	}
}
