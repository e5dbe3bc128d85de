// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the crosscheck CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/crosscheck/internal/config"
	"github.com/pdiddy/crosscheck/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg holds the configuration loaded before every command runs.
var cfg *types.Config

// rootCmd is the base command for the crosscheck CLI.
var rootCmd = &cobra.Command{
	Use:   "crosscheck",
	Short: "Reconcile answers from multiple AI providers",
	Long: `crosscheck compares the answers several AI providers gave to the same
query. It reports where they agree, where they take opposing positions, and
what to do next, and keeps a history of every run.

The providers are called elsewhere; crosscheck reads their collected results
from a YAML or JSON result file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return config.InitLogger(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./crosscheck.yaml or ~/.config/crosscheck/crosscheck.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
