// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/crosscheck/internal/history"
	"github.com/pdiddy/crosscheck/internal/report"
	"github.com/pdiddy/crosscheck/internal/resultfile"
	"github.com/pdiddy/crosscheck/internal/synthesize"
	"github.com/pdiddy/crosscheck/pkg/types"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Synthesize a report from collected provider results",
	Long: `Synthesize reads a result file (the query plus each provider's result),
detects consensus and conflicting evaluations, prints a recommendation, and
records the run in the history store.

Recording never fails the command; a storage problem is logged and the
report is still printed.`,
	RunE: runSynthesize,
}

func init() {
	synthesizeCmd.Flags().String("input", "", "result file to read (YAML, or JSON when ending in .json)")
	synthesizeCmd.Flags().Bool("json", false, "print the report as JSON")
	synthesizeCmd.Flags().Bool("no-record", false, "do not record the run in history")
	synthesizeCmd.Flags().StringSlice("exclude", nil, "providers to leave out of this run")
	synthesizeCmd.Flags().Bool("plan-mode", true, "record the run as planning mode")
	_ = synthesizeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(synthesizeCmd)
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noRecord, _ := cmd.Flags().GetBool("no-record")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	f, err := resultfile.Read(input)
	if err != nil {
		return err
	}

	flags := f.Flags
	if cmd.Flags().Changed("plan-mode") {
		planMode, _ := cmd.Flags().GetBool("plan-mode")
		flags.PlanMode = &planMode
	}
	results := applyExclude(&flags, f.Results, exclude)

	rep := synthesize.New(nil).Synthesize(f.Query, results)

	if !noRecord {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return err
		}
		if path := store.RecordVerification(flags, results, rep); path != "" {
			zap.L().Info("recorded run", zap.String("path", path))
		}
	}

	if jsonOutput {
		return report.FormatJSON(cmd.OutOrStdout(), rep)
	}
	report.FormatReport(cmd.OutOrStdout(), rep)
	return nil
}

// applyExclude drops results from excluded providers and marks them as not
// included in flags.
func applyExclude(flags *types.RequestFlags, results []types.ProviderResult, exclude []string) []types.ProviderResult {
	if len(exclude) == 0 {
		return results
	}

	excluded := make(map[types.Provider]bool, len(exclude))
	for _, name := range exclude {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		excluded[types.Provider(name)] = true
	}

	if flags.Providers == nil {
		flags.Providers = make(map[types.Provider]bool, len(excluded))
	}
	for p := range excluded {
		flags.Providers[p] = false
	}

	kept := make([]types.ProviderResult, 0, len(results))
	for _, r := range results {
		if excluded[r.Provider] {
			zap.L().Debug("excluding provider", zap.String("provider", string(r.Provider)))
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		zap.L().Warn("every provider result was excluded", zap.Int("results", len(results)))
	}
	return kept
}
