// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize reconciles the answers several AI providers gave to the
// same query. It detects points of agreement (shared semantic categories and
// repeated numeric tokens), detects a positive/negative evaluation split, and
// picks a recommendation for the caller. It performs no I/O.
package synthesize

import (
	"fmt"
	"time"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// IssueEvaluationDisagreement is the issue text of the aggregate conflict.
const IssueEvaluationDisagreement = "evaluation disagreement"

// Synthesizer builds SynthesisReports using an immutable Registry.
type Synthesizer struct {
	reg *Registry
	now func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithClock overrides the clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// New returns a Synthesizer over reg. A nil reg uses DefaultRegistry.
func New(reg *Registry, opts ...Option) *Synthesizer {
	if reg == nil {
		reg = DefaultRegistry()
	}
	s := &Synthesizer{reg: reg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSynthesizer = New(nil)

// Synthesize reconciles results with the default registry.
func Synthesize(query string, results []types.ProviderResult) types.SynthesisReport {
	return defaultSynthesizer.Synthesize(query, results)
}

// Synthesize reconciles the provider results for query into a report. It
// never fails: sparse or failed input is reflected in the recommendation.
// When a provider appears more than once in results, the last entry wins.
func (s *Synthesizer) Synthesize(query string, results []types.ProviderResult) types.SynthesisReport {
	byProvider := make(map[types.Provider]types.ProviderResult, len(results))
	var order []types.Provider
	for _, r := range results {
		if _, seen := byProvider[r.Provider]; !seen {
			order = append(order, r.Provider)
		}
		byProvider[r.Provider] = r
	}

	texts := make([]string, 0, len(order))
	for _, p := range order {
		if r := byProvider[p]; r.HasText() {
			texts = append(texts, r.Response)
		}
	}

	consensus := s.categoryConsensus(texts)
	consensus = append(consensus, s.numericConsensus(texts)...)
	conflicts := s.detectConflicts(byProvider)

	report := types.SynthesisReport{
		Query:       query,
		Timestamp:   s.now().UTC(),
		Results:     byProvider,
		Consensus:   consensus,
		Conflicts:   conflicts,
		Performance: performance(byProvider),
	}
	report.Recommendation = recommend(report, order)
	return report
}

// categoryConsensus emits one line per category matched by at least two
// texts, in registry order.
func (s *Synthesizer) categoryConsensus(texts []string) []string {
	lines := []string{}
	if len(texts) < 2 {
		return lines
	}
	for _, cat := range s.reg.categories {
		count := 0
		for _, t := range texts {
			if cat.Pattern.MatchString(t) {
				count++
			}
		}
		if count >= 2 {
			lines = append(lines, fmt.Sprintf("✓ %s: %d agree", cat.Label, count))
		}
	}
	return lines
}

// numericConsensus tallies every numeric token across all texts combined
// and emits one line per token seen at least twice, in first-seen order.
func (s *Synthesizer) numericConsensus(texts []string) []string {
	var lines []string
	if len(texts) < 2 {
		return lines
	}
	counts := make(map[string]int)
	var order []string
	for _, t := range texts {
		for _, tok := range s.reg.numeric.FindAllString(t, -1) {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}
	for _, tok := range order {
		if counts[tok] >= 2 {
			lines = append(lines, fmt.Sprintf("✓ numeric agreement: %q mentioned %d times", tok, counts[tok]))
		}
	}
	return lines
}

// detectConflicts returns a single aggregate conflict when at least one
// provider leans positive and another leans negative.
func (s *Synthesizer) detectConflicts(byProvider map[types.Provider]types.ProviderResult) []types.Conflict {
	views := make(map[types.Provider]types.Polarity, len(s.reg.providers)+len(byProvider))
	for _, p := range s.reg.providers {
		views[p] = types.PolarityNeutral
	}

	var positive, negative bool
	for p, r := range byProvider {
		pol := types.PolarityNeutral
		if r.HasText() {
			pol = s.reg.classify(r.Response)
		}
		views[p] = pol
		switch pol {
		case types.PolarityPositive:
			positive = true
		case types.PolarityNegative:
			negative = true
		}
	}

	if !positive || !negative {
		return []types.Conflict{}
	}
	return []types.Conflict{{Issue: IssueEvaluationDisagreement, Views: views}}
}

// classify labels text positive when it contains a positive keyword that is
// not negated, negative when it contains a negative keyword or a negated
// positive keyword, and neutral otherwise. Positive wins ties.
func (r *Registry) classify(text string) types.Polarity {
	negatedPositive := false
	for _, loc := range r.positive.FindAllStringIndex(text, -1) {
		if r.negator.MatchString(text[:loc[0]]) {
			negatedPositive = true
			continue
		}
		return types.PolarityPositive
	}
	if negatedPositive || r.negative.MatchString(text) {
		return types.PolarityNegative
	}
	return types.PolarityNeutral
}

// performance computes the slowest response time and the success ratio
// over attempted providers.
func performance(byProvider map[types.Provider]types.ProviderResult) types.Performance {
	var perf types.Performance
	if len(byProvider) == 0 {
		return perf
	}
	successes := 0
	for _, r := range byProvider {
		if r.ResponseTimeMs > perf.TotalTimeMs {
			perf.TotalTimeMs = r.ResponseTimeMs
		}
		if r.Success {
			successes++
		}
	}
	perf.SuccessRate = float64(successes) / float64(len(byProvider))
	return perf
}

// recommend walks the decision list; the first matching rule wins.
func recommend(report types.SynthesisReport, order []types.Provider) string {
	successes := successfulProviders(report.Results, order)
	n := len(successes)

	switch {
	case n == 0:
		return "all providers failed; retry the query"
	case n == 1:
		return fmt.Sprintf("only %s responded; treat as unverified and seek confirmation", successes[0])
	case len(report.Consensus) > 0 && len(report.Conflicts) == 0:
		return fmt.Sprintf("%d providers reached consensus on %d points", n, len(report.Consensus))
	case len(report.Conflicts) > 0:
		return fmt.Sprintf("%d conflicting opinions found; review each provider's view individually", len(report.Conflicts))
	default:
		return fmt.Sprintf("%d providers responded; manual review recommended", n)
	}
}

// successfulProviders returns the providers whose call succeeded, in input
// order.
func successfulProviders(results map[types.Provider]types.ProviderResult, order []types.Provider) []types.Provider {
	var out []types.Provider
	for _, p := range order {
		if results[p].Success {
			out = append(out, p)
		}
	}
	return out
}
