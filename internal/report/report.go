// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders synthesis reports, history records, and history
// statistics for terminals and for machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// FormatReport writes a human-readable synthesis report to w.
func FormatReport(w io.Writer, r types.SynthesisReport) {
	fmt.Fprintf(w, "Query: %s\n", r.Query)
	fmt.Fprintf(w, "Time:  %s\n\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(w, "%-10s  %-7s  %8s  %s\n", "Provider", "Status", "Time(ms)", "Response")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, p := range sortedKeys(r.Results) {
		res := r.Results[p]
		status := "ok"
		if !res.Success {
			status = "failed"
		}
		text := res.Response
		if text == "" && res.Error != "" {
			text = "error: " + res.Error
		}
		fmt.Fprintf(w, "%-10s  %-7s  %8d  %s\n", p, status, res.ResponseTimeMs, truncate(oneLine(text), 48))
	}

	fmt.Fprintln(w, "\nConsensus:")
	if len(r.Consensus) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, line := range r.Consensus {
		fmt.Fprintf(w, "  %s\n", line)
	}

	fmt.Fprintln(w, "\nConflicts:")
	if len(r.Conflicts) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range r.Conflicts {
		fmt.Fprintf(w, "  %s\n", c.Issue)
		for _, p := range sortedKeys(c.Views) {
			fmt.Fprintf(w, "    %-10s %s\n", p, c.Views[p])
		}
	}

	fmt.Fprintf(w, "\nRecommendation: %s\n", r.Recommendation)
	fmt.Fprintf(w, "Performance: slowest %dms, success rate %.0f%%\n",
		r.Performance.TotalTimeMs, r.Performance.SuccessRate*100)
}

// FormatRecords writes history records as a table, one row per record.
func FormatRecords(out io.Writer, recs []types.VerificationRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(out, "No records found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tQUERY\tPROVIDERS\tSUCCESS\tTIME(MS)\tCONSENSUS\tCONFLICTS")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%d\t%d\t%d\n",
			r.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			truncate(oneLine(r.Query), 40),
			joinProviders(sortedKeys(r.Results)),
			r.Synthesis.SuccessRate*100,
			r.Synthesis.TotalTimeMs,
			len(r.Synthesis.Consensus),
			len(r.Synthesis.Conflicts),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d records\n", len(recs))
}

// FormatStats writes aggregate history statistics to w.
func FormatStats(out io.Writer, s types.HistoryStats) {
	fmt.Fprintf(out, "Records sampled:       %d\n", s.TotalSampled)
	fmt.Fprintf(out, "Average success rate:  %.1f%%\n", s.AverageSuccessRate*100)
	fmt.Fprintf(out, "Average response time: %.0fms\n", s.AverageResponseTimeMs)

	if len(s.AttemptsByProvider) == 0 {
		return
	}
	fmt.Fprintln(out, "\nAttempts by provider:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range sortedKeys(s.AttemptsByProvider) {
		fmt.Fprintf(w, "  %s\t%d\n", p, s.AttemptsByProvider[p])
	}
	w.Flush()
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sortedKeys returns the providers of m in name order.
func sortedKeys[V any](m map[types.Provider]V) []types.Provider {
	return slices.Sorted(maps.Keys(m))
}

func joinProviders(ps []types.Provider) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
