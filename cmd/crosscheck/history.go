// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/crosscheck/internal/history"
	"github.com/pdiddy/crosscheck/internal/index"
	"github.com/pdiddy/crosscheck/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs (recent, search, stats, export)",
	Long: `History reads the verification records written by synthesize.
Search and stats look at the most recent 100 records only; use the index
commands to query the full history.`,
}

// --- recent subcommand ---

var historyRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent runs, newest first",
	RunE:  runHistoryRecent,
}

func runHistoryRecent(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	recs, err := store.Recent(limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return report.FormatJSON(cmd.OutOrStdout(), recs)
	}
	report.FormatRecords(cmd.OutOrStdout(), recs)
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search TEXT",
	Short: "Find recent runs whose query contains TEXT, ignoring case",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	recs, err := store.Find(strings.Join(args, " "))
	if err != nil {
		return err
	}

	if jsonOutput {
		return report.FormatJSON(cmd.OutOrStdout(), recs)
	}
	report.FormatRecords(cmd.OutOrStdout(), recs)
	return nil
}

// --- stats subcommand ---

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize success rate and response time over recent runs",
	RunE:  runHistoryStats,
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	stats, err := store.Stats()
	if err != nil {
		return err
	}

	if jsonOutput {
		return report.FormatJSON(cmd.OutOrStdout(), stats)
	}
	report.FormatStats(cmd.OutOrStdout(), stats)
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every recorded run to a single YAML or JSON file",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	format, err := index.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if output == "" {
		output = "history-export." + string(format)
	}

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	recs, err := store.All()
	if err != nil {
		return err
	}
	if err := index.WriteRecords(output, format, recs); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(recs), output)
	return nil
}

func init() {
	historyRecentCmd.Flags().Int("limit", 10, "maximum number of records")
	historyRecentCmd.Flags().Bool("json", false, "output as JSON")
	historySearchCmd.Flags().Bool("json", false, "output as JSON")
	historyStatsCmd.Flags().Bool("json", false, "output as JSON")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "output file (default: history-export.<format>)")

	historyCmd.AddCommand(historyRecentCmd, historySearchCmd, historyStatsCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
