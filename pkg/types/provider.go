// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for crosscheck: the results
// each AI provider returned for a query, the synthesis built from them, and
// the verification records persisted to history.
package types

// Provider identifies one AI backend whose answer is being reconciled.
// Any non-empty string is a valid provider; the constants below are the
// providers crosscheck knows about out of the box.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderGemini Provider = "gemini"
	ProviderCodex  Provider = "codex"
)

// KnownProviders lists the default providers in display order.
var KnownProviders = []Provider{ProviderClaude, ProviderGemini, ProviderCodex}

// ProviderResult is the normalized outcome of calling one provider.
// A failed result may still carry partial response text.
type ProviderResult struct {
	// Provider names the backend that produced this result.
	Provider Provider `json:"provider" yaml:"provider"`

	// Success reports whether the provider call completed.
	Success bool `json:"success" yaml:"success"`

	// Response is the raw answer text. Empty means no text was returned.
	Response string `json:"response,omitempty" yaml:"response,omitempty"`

	// ResponseTimeMs is the wall-clock duration of the call in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms" yaml:"response_time_ms"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HasText reports whether the result carries non-empty response text.
func (r ProviderResult) HasText() bool {
	return r.Response != ""
}
