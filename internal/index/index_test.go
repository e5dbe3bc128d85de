package index

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/crosscheck/pkg/types"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(types.IndexConfig{Dir: filepath.Join(t.TempDir(), "index"), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

var baseTime = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func record(offset time.Duration, seq uint64, query string, rate float64, results map[types.Provider]types.ProviderResult) types.VerificationRecord {
	return types.VerificationRecord{
		Timestamp: baseTime.Add(offset),
		Sequence:  seq,
		Query:     query,
		Mode:      types.ModeFlags{Providers: map[types.Provider]bool{types.ProviderClaude: true}, PlanMode: true},
		Results:   results,
		Synthesis: types.RecordSynthesis{
			Consensus:   []string{},
			Conflicts:   []types.Conflict{},
			TotalTimeMs: 1500,
			SuccessRate: rate,
		},
		Metadata: types.RecordMetadata{SchemaVersion: types.RecordSchemaVersion, Environment: "production"},
	}
}

func sampleRecords() []types.VerificationRecord {
	return []types.VerificationRecord{
		record(0, 0, "Why is CPU usage spiking?", 1, map[types.Provider]types.ProviderResult{
			types.ProviderClaude: {Provider: types.ProviderClaude, Success: true, Response: "GC pressure from 50% allocation churn", ResponseTimeMs: 900},
		}),
		record(time.Minute, 0, "memory leak in worker", 0.5, map[types.Provider]types.ProviderResult{
			types.ProviderGemini: {Provider: types.ProviderGemini, Success: true, Response: "Heap grows 2x per hour", ResponseTimeMs: 1200},
			types.ProviderCodex:  {Provider: types.ProviderCodex, Success: false, Error: "timeout", ResponseTimeMs: 30000},
		}),
		record(2*time.Minute, 0, "Straße naming", 1, map[types.Provider]types.ProviderResult{
			types.ProviderClaude: {Provider: types.ProviderClaude, Success: true, Response: "Use ASCII identifiers", ResponseTimeMs: 700},
		}),
	}
}

func ingest(t *testing.T, ix *Index, recs []types.VerificationRecord) IngestSummary {
	t.Helper()
	var buf bytes.Buffer
	summary, err := ix.Ingest(context.Background(), recs, &buf)
	require.NoError(t, err)
	return summary
}

func queries(recs []types.VerificationRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Query
	}
	return out
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "index")
	ix, err := Open(types.IndexConfig{Dir: dir})
	require.NoError(t, err)
	defer ix.Close()

	_, err = os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, err)
	assert.Equal(t, defaultMaxResults, ix.maxResults)
}

func TestKey(t *testing.T) {
	rec := types.VerificationRecord{Timestamp: time.Date(2026, 5, 1, 10, 0, 0, 500, time.UTC), Sequence: 7}
	assert.Equal(t, "2026-05-01T10:00:00.0000005Z#7", Key(rec))
}

func TestIngestSkipsKnownRecords(t *testing.T) {
	ix := testIndex(t)

	first := ingest(t, ix, sampleRecords())
	assert.Equal(t, IngestSummary{Indexed: 3}, first)

	second := ingest(t, ix, sampleRecords())
	assert.Equal(t, IngestSummary{Skipped: 3}, second)
	assert.Equal(t, 3, second.Total())

	n, err := ix.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = os.Stat(filepath.Join(ix.Dir(), "export.yaml"))
	assert.NoError(t, err, "ingest refreshes the YAML export")
}

func TestIngestSameSecondDifferentSequence(t *testing.T) {
	ix := testIndex(t)
	recs := []types.VerificationRecord{
		record(0, 1, "first", 1, nil),
		record(0, 2, "second", 1, nil),
	}
	assert.Equal(t, IngestSummary{Indexed: 2}, ingest(t, ix, recs))

	got, err := ix.Query(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, queries(got))
}

func TestIngestCancelled(t *testing.T) {
	ix := testIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Ingest(ctx, sampleRecords(), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuery(t *testing.T) {
	ix := testIndex(t)
	ingest(t, ix, sampleRecords())

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"all newest first", QueryOptions{}, []string{"Straße naming", "memory leak in worker", "Why is CPU usage spiking?"}},
		{"query text ignores case", QueryOptions{Text: "cpu"}, []string{"Why is CPU usage spiking?"}},
		{"response text", QueryOptions{Text: "HEAP"}, []string{"memory leak in worker"}},
		{"unicode folding", QueryOptions{Text: "STRASSE"}, []string{"Straße naming"}},
		{"percent is literal", QueryOptions{Text: "50%"}, []string{"Why is CPU usage spiking?"}},
		{"underscore is literal", QueryOptions{Text: "_"}, []string{}},
		{"provider", QueryOptions{Provider: types.ProviderCodex}, []string{"memory leak in worker"}},
		{"min success rate", QueryOptions{MinSuccessRate: 0.75}, []string{"Straße naming", "Why is CPU usage spiking?"}},
		{"combined filters", QueryOptions{Text: "a", Provider: types.ProviderClaude, MinSuccessRate: 1}, []string{"Straße naming", "Why is CPU usage spiking?"}},
		{"limit", QueryOptions{MaxResults: 1}, []string{"Straße naming"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Query(context.Background(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, queries(got))
		})
	}
}

func TestQueryRestoresRecord(t *testing.T) {
	ix := testIndex(t)
	recs := sampleRecords()
	ingest(t, ix, recs)

	got, err := ix.Query(context.Background(), QueryOptions{Text: "memory"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recs[1].Results, got[0].Results)
	assert.True(t, recs[1].Timestamp.Equal(got[0].Timestamp))
	assert.Equal(t, recs[1].Metadata, got[0].Metadata)
}

func TestExport(t *testing.T) {
	ix := testIndex(t)
	ingest(t, ix, sampleRecords())
	ctx := context.Background()

	yamlPath, err := ix.ExportYAML(ctx, QueryOptions{Provider: types.ProviderClaude})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ix.Dir(), "export.yaml"), yamlPath)

	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML []types.VerificationRecord
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, []string{"Straße naming", "Why is CPU usage spiking?"}, queries(fromYAML))

	jsonPath, err := ix.ExportJSON(ctx, QueryOptions{})
	require.NoError(t, err)
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []types.VerificationRecord
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Len(t, fromJSON, 3)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}
