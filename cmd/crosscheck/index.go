// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/crosscheck/internal/history"
	"github.com/pdiddy/crosscheck/internal/index"
	"github.com/pdiddy/crosscheck/internal/report"
	"github.com/pdiddy/crosscheck/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite history index (build, query, export)",
	Long: `Index maintains a SQLite database over every recorded run. Unlike the
history commands, which sample the most recent 100 records, index queries
cover the full history. Run "index build" to pick up new runs.`,
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Ingest recorded runs into the index",
	Long: `Build reads every record from the history store and adds the ones not yet
indexed. Already indexed records are skipped, so repeated builds are cheap.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	recs, err := store.All()
	if err != nil {
		return err
	}

	ix, err := index.Open(cfg.Index)
	if err != nil {
		return err
	}
	defer ix.Close()

	summary, err := ix.Ingest(cmd.Context(), recs, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query indexed runs by text, provider, and success rate",
	RunE:  runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ix, err := index.Open(cfg.Index)
	if err != nil {
		return err
	}
	defer ix.Close()

	recs, err := ix.Query(cmd.Context(), queryOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	if jsonOutput {
		return report.FormatJSON(cmd.OutOrStdout(), recs)
	}
	report.FormatRecords(cmd.OutOrStdout(), recs)
	return nil
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export [text]",
	Short: "Export indexed runs to YAML or JSON",
	Long: `Export writes the indexed runs (or a filtered subset) to export.yaml or
export.json in the index directory. Supports the same filter flags as query.`,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := index.ParseFormat(formatName)
	if err != nil {
		return err
	}

	ix, err := index.Open(cfg.Index)
	if err != nil {
		return err
	}
	defer ix.Close()

	opts := queryOptsFromFlags(cmd, args)
	var path string
	switch format {
	case index.FormatJSON:
		path, err = ix.ExportJSON(cmd.Context(), opts)
	default:
		path, err = ix.ExportYAML(cmd.Context(), opts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	provider, _ := cmd.Flags().GetString("provider")
	minRate, _ := cmd.Flags().GetFloat64("min-success-rate")
	limit, _ := cmd.Flags().GetInt("limit")

	return index.QueryOptions{
		Text:           strings.Join(args, " "),
		Provider:       types.Provider(strings.ToLower(provider)),
		MinSuccessRate: minRate,
		MaxResults:     limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "only runs in which this provider was attempted")
	cmd.Flags().Float64("min-success-rate", 0, "only runs with at least this success rate (0-1)")
}

func init() {
	addFilterFlags(indexQueryCmd)
	indexQueryCmd.Flags().Int("limit", 0, "maximum number of results (default: index.max_results)")
	indexQueryCmd.Flags().Bool("json", false, "output as JSON")

	addFilterFlags(indexExportCmd)
	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	indexCmd.AddCommand(indexBuildCmd, indexQueryCmd, indexExportCmd)
	rootCmd.AddCommand(indexCmd)
}
