// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/crosscheck/pkg/types"
)

func TestJournalSameSecondKeepsBoth(t *testing.T) {
	store, clock, _ := testStore(t, types.HistoryConfig{Layout: types.LayoutJournal})

	first := store.RecordVerification(types.RequestFlags{}, nil, sampleReport("first", 1, 1))
	clock.advance(10 * time.Millisecond)
	second := store.RecordVerification(types.RequestFlags{}, nil, sampleReport("second", 1, 1))

	assert.Equal(t, filepath.Join(store.Dir(), JournalFile), first)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{JournalFile}, listFiles(t, store.Dir()))

	recs := store.GetRecent(10)
	require.Len(t, recs, 2)
	assert.Equal(t, "second", recs[0].Query)
	assert.Equal(t, uint64(2), recs[0].Sequence)
	assert.Equal(t, "first", recs[1].Query)
	assert.Equal(t, uint64(1), recs[1].Sequence)
}

func TestJournalOneRecordPerLine(t *testing.T) {
	store, _, _ := testStore(t, types.HistoryConfig{Layout: types.LayoutJournal})
	for i := 0; i < 3; i++ {
		require.NotEmpty(t, store.RecordVerification(types.RequestFlags{}, sampleResults(), sampleReport("q", 0.5, 3000)))
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), JournalFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
}

func TestJournalSequenceResumesAcrossStores(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	cfg := types.HistoryConfig{Dir: dir, Layout: types.LayoutJournal}

	first, err := NewStore(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.NotEmpty(t, first.RecordVerification(types.RequestFlags{}, nil, sampleReport("a", 1, 1)))
	require.NotEmpty(t, first.RecordVerification(types.RequestFlags{}, nil, sampleReport("b", 1, 1)))

	second, err := NewStore(cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.NotEmpty(t, second.RecordVerification(types.RequestFlags{}, nil, sampleReport("c", 1, 1)))

	recs := second.GetRecent(1)
	require.Len(t, recs, 1)
	assert.Equal(t, "c", recs[0].Query)
	assert.Equal(t, uint64(3), recs[0].Sequence)
}

func TestJournalReadSide(t *testing.T) {
	store, clock, _ := testStore(t, types.HistoryConfig{Layout: types.LayoutJournal})
	for _, q := range []string{"Why is CPU usage spiking?", "memory leak", "disk full", "cpu pinned", "network flap"} {
		require.NotEmpty(t, store.RecordVerification(types.RequestFlags{}, sampleResults(), sampleReport(q, 0.5, 3000)))
		clock.advance(time.Second)
	}

	recent := store.GetRecent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"network flap", "cpu pinned", "disk full"},
		[]string{recent[0].Query, recent[1].Query, recent[2].Query})

	assert.Len(t, store.Search("cpu"), 2)

	stats := store.GetStats()
	assert.Equal(t, 5, stats.TotalSampled)
	assert.InDelta(t, 0.5, stats.AverageSuccessRate, 1e-9)
	assert.Equal(t, 5, stats.AttemptsByProvider[types.ProviderGemini])
}

func TestJournalCorruptLine(t *testing.T) {
	tests := []struct {
		name        string
		skipCorrupt bool
		wantQueries []string
	}{
		{"degrades whole read", false, nil},
		{"skips corrupt line", true, []string{"after", "before"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _ := testStore(t, types.HistoryConfig{Layout: types.LayoutJournal, SkipCorrupt: tt.skipCorrupt})
			require.NotEmpty(t, store.RecordVerification(types.RequestFlags{}, nil, sampleReport("before", 1, 1)))

			f, err := os.OpenFile(filepath.Join(store.Dir(), JournalFile), os.O_APPEND|os.O_WRONLY, 0o644)
			require.NoError(t, err)
			_, err = f.WriteString("{\"timestamp\": \n")
			require.NoError(t, err)
			require.NoError(t, f.Close())

			require.NotEmpty(t, store.RecordVerification(types.RequestFlags{}, nil, sampleReport("after", 1, 1)))

			var got []string
			for _, r := range store.GetRecent(10) {
				got = append(got, r.Query)
			}
			assert.Equal(t, tt.wantQueries, got)
		})
	}
}

func TestJournalWriteAfterPartialLine(t *testing.T) {
	tests := []struct {
		name        string
		skipCorrupt bool
		wantQueries []string
		wantErr     bool
	}{
		{"partial line still fails strict reads", false, nil, true},
		{"later record survives", true, []string{"after", "before"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, logs := testStore(t, types.HistoryConfig{Layout: types.LayoutJournal, SkipCorrupt: tt.skipCorrupt})
			require.NotEmpty(t, store.RecordVerification(types.RequestFlags{}, nil, sampleReport("before", 1, 1)))

			path := filepath.Join(store.Dir(), JournalFile)
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			require.NoError(t, err)
			_, err = f.WriteString(`{"timestamp":"2026-05-01T10:00:00Z","que`)
			require.NoError(t, err)
			require.NoError(t, f.Close())

			require.NotEmpty(t, store.RecordVerification(types.RequestFlags{}, nil, sampleReport("after", 1, 1)))
			assert.Equal(t, 1, logs.FilterMessage("terminating partial journal line").Len())

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			require.Len(t, lines, 3)
			assert.Contains(t, lines[2], `"query":"after"`)

			recs, err := store.Recent(10)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "line 2")
				return
			}
			require.NoError(t, err)
			var got []string
			for _, r := range recs {
				got = append(got, r.Query)
			}
			assert.Equal(t, tt.wantQueries, got)
		})
	}
}
