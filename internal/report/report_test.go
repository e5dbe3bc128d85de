package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/crosscheck/pkg/types"
)

func sampleReport() types.SynthesisReport {
	return types.SynthesisReport{
		Query:     "Should we adopt library X?",
		Timestamp: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Results: map[types.Provider]types.ProviderResult{
			types.ProviderGemini: {Provider: types.ProviderGemini, Success: false, ResponseTimeMs: 30000, Error: "timeout"},
			types.ProviderClaude: {Provider: types.ProviderClaude, Success: true, Response: "I would not\nrecommend it.", ResponseTimeMs: 1200},
		},
		Consensus: []string{"✓ recommendation: 2 agree"},
		Conflicts: []types.Conflict{{
			Issue: "evaluation disagreement",
			Views: map[types.Provider]types.Polarity{
				types.ProviderClaude: types.PolarityNegative,
				types.ProviderGemini: types.PolarityPositive,
			},
		}},
		Recommendation: "1 conflicting opinions found; review each provider's view individually",
		Performance:    types.Performance{TotalTimeMs: 30000, SuccessRate: 0.5},
	}
}

func TestFormatReport(t *testing.T) {
	var buf bytes.Buffer
	FormatReport(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "Query: Should we adopt library X?")
	assert.Contains(t, out, "I would not recommend it.")
	assert.Contains(t, out, "error: timeout")
	assert.Contains(t, out, "✓ recommendation: 2 agree")
	assert.Contains(t, out, "evaluation disagreement")
	assert.Contains(t, out, "Recommendation: 1 conflicting opinions found")
	assert.Contains(t, out, "success rate 50%")
	assert.Less(t, strings.Index(out, "claude"), strings.Index(out, "gemini"), "providers are listed by name")
}

func TestFormatReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatReport(&buf, types.SynthesisReport{Recommendation: "all providers failed; retry the query"})
	assert.Equal(t, 2, strings.Count(buf.String(), "(none)"))
}

func TestFormatRecords(t *testing.T) {
	var buf bytes.Buffer
	FormatRecords(&buf, nil)
	assert.Equal(t, "No records found.\n", buf.String())

	buf.Reset()
	FormatRecords(&buf, []types.VerificationRecord{{
		Timestamp: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Query:     strings.Repeat("very long query ", 10),
		Results: map[types.Provider]types.ProviderResult{
			types.ProviderCodex:  {},
			types.ProviderClaude: {},
		},
		Synthesis: types.RecordSynthesis{Consensus: []string{"a", "b"}, SuccessRate: 1, TotalTimeMs: 700},
	}})
	out := buf.String()
	assert.Contains(t, out, "2026-05-01 10:00:00")
	assert.Contains(t, out, "claude,codex")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "1 records")
}

func TestFormatStats(t *testing.T) {
	var buf bytes.Buffer
	FormatStats(&buf, types.HistoryStats{
		TotalSampled:          2,
		AverageSuccessRate:    0.75,
		AverageResponseTimeMs: 400,
		AttemptsByProvider:    map[types.Provider]int{types.ProviderClaude: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "Records sampled:       2")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "400ms")
	assert.Contains(t, out, "claude")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, sampleReport()))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"query\""))

	var back types.SynthesisReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "negative", string(back.Conflicts[0].Views[types.ProviderClaude]))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "성능개선...", truncate("성능개선필요합니다", 7))
}
