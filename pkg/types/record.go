// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RecordSchemaVersion is written into every verification record's metadata.
const RecordSchemaVersion = "1.0"

// RequestFlags carries the caller's per-run inclusion choices. Providers
// missing from the map and a nil PlanMode both default to true.
type RequestFlags struct {
	Providers map[Provider]bool `json:"providers,omitempty" yaml:"providers,omitempty"`
	PlanMode  *bool             `json:"plan_mode,omitempty" yaml:"plan_mode,omitempty"`
}

// ModeFlags is the resolved form of RequestFlags stored with each record.
type ModeFlags struct {
	Providers map[Provider]bool `json:"providers" yaml:"providers"`
	PlanMode  bool              `json:"plan_mode" yaml:"plan_mode"`
}

// RecordSynthesis is the subset of a SynthesisReport kept in history.
type RecordSynthesis struct {
	Consensus   []string   `json:"consensus" yaml:"consensus"`
	Conflicts   []Conflict `json:"conflicts" yaml:"conflicts"`
	TotalTimeMs int64      `json:"total_time_ms" yaml:"total_time_ms"`
	SuccessRate float64    `json:"success_rate" yaml:"success_rate"`
}

// RecordMetadata describes how a record was produced.
type RecordMetadata struct {
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`
	Environment   string `json:"environment" yaml:"environment"`
}

// VerificationRecord is the persisted, immutable unit of history: one full
// reconciliation run.
type VerificationRecord struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Sequence is set only by the journal layout, where it increases by one
	// per appended record.
	Sequence uint64 `json:"sequence,omitempty" yaml:"sequence,omitempty"`

	Query     string                      `json:"query" yaml:"query"`
	Mode      ModeFlags                   `json:"mode" yaml:"mode"`
	Results   map[Provider]ProviderResult `json:"results" yaml:"results"`
	Synthesis RecordSynthesis             `json:"synthesis" yaml:"synthesis"`
	Metadata  RecordMetadata              `json:"metadata" yaml:"metadata"`
}

// HistoryStats aggregates a sample of recent verification records.
type HistoryStats struct {
	// TotalSampled is the number of records the averages were computed
	// over, not a lifetime total.
	TotalSampled int `json:"total_sampled" yaml:"total_sampled"`

	AverageSuccessRate    float64 `json:"average_success_rate" yaml:"average_success_rate"`
	AverageResponseTimeMs float64 `json:"average_response_time_ms" yaml:"average_response_time_ms"`

	// AttemptsByProvider counts records in which each provider was
	// attempted, whether or not it succeeded.
	AttemptsByProvider map[Provider]int `json:"attempts_by_provider" yaml:"attempts_by_provider"`
}
