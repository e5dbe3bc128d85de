// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Polarity is the evaluative leaning of one provider's answer.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// Conflict records a disagreement between providers. A synthesis carries
// at most one Conflict: the aggregate evaluation disagreement.
type Conflict struct {
	// Issue describes what the providers disagree on.
	Issue string `json:"issue" yaml:"issue"`

	// Views maps each provider to its polarity. Providers without text
	// are neutral.
	Views map[Provider]Polarity `json:"views" yaml:"views"`
}

// Performance summarizes timing and success across attempted providers.
type Performance struct {
	// TotalTimeMs is the slowest attempted provider's response time.
	TotalTimeMs int64 `json:"total_time_ms" yaml:"total_time_ms"`

	// SuccessRate is successes divided by attempted providers, or 0 when
	// nothing was attempted.
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// SynthesisReport is the reconciled view of all provider answers to a query.
type SynthesisReport struct {
	Query     string    `json:"query" yaml:"query"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Results holds entries only for providers that were attempted.
	Results map[Provider]ProviderResult `json:"results" yaml:"results"`

	// Consensus lists points of agreement in detection order.
	Consensus []string `json:"consensus" yaml:"consensus"`

	// Conflicts holds zero or one entries.
	Conflicts []Conflict `json:"conflicts" yaml:"conflicts"`

	Recommendation string      `json:"recommendation" yaml:"recommendation"`
	Performance    Performance `json:"performance" yaml:"performance"`
}

// SuccessCount returns the number of attempted providers that succeeded.
func (r SynthesisReport) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}
