// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists one VerificationRecord per reconciliation run and
// answers read-side questions over past runs: the most recent records, a
// substring search over queries, and aggregate statistics.
//
// Every operation comes in two forms. Record, Recent, Find, and Stats return
// errors. RecordVerification, GetRecent, Search, and GetStats never fail:
// they log the error and degrade to an empty result, so callers that cannot
// act on storage failures can ignore them.
package history

import (
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/pdiddy/crosscheck/pkg/types"
)

const (
	// DefaultDir is used when the config leaves the directory empty.
	DefaultDir = ".crosscheck/history"

	// DefaultEnvironment is stamped into record metadata when unset.
	DefaultEnvironment = "production"

	// SampleSize bounds the records scanned by Search and GetStats.
	SampleSize = 100
)

// backend is an on-disk layout for verification records.
type backend interface {
	// write persists rec and returns where it was written.
	write(rec *types.VerificationRecord) (string, error)

	// load returns up to limit records, newest first.
	load(limit int) ([]types.VerificationRecord, error)
}

// Store records and reads verification history under a base directory.
type Store struct {
	backend     backend
	dir         string
	environment string
	providers   []types.Provider
	now         func() time.Time
	log         *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to timestamp and name records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for degraded operations.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithProviders sets the providers whose mode flags are always recorded.
func WithProviders(providers []types.Provider) Option {
	return func(s *Store) { s.providers = providers }
}

// NewStore returns a Store rooted at cfg.Dir. The directory is created
// lazily on the first write.
func NewStore(cfg types.HistoryConfig, opts ...Option) (*Store, error) {
	s := &Store{
		dir:         cfg.Dir,
		environment: cfg.Environment,
		providers:   types.KnownProviders,
		now:         time.Now,
		log:         zap.L(),
	}
	if s.dir == "" {
		s.dir = DefaultDir
	}
	if s.environment == "" {
		s.environment = DefaultEnvironment
	}
	for _, opt := range opts {
		opt(s)
	}

	switch cfg.Layout {
	case types.LayoutFiles, "":
		s.backend = &fileBackend{dir: s.dir, skipCorrupt: cfg.SkipCorrupt, log: s.log}
	case types.LayoutJournal:
		s.backend = &journalBackend{path: filepath.Join(s.dir, JournalFile), skipCorrupt: cfg.SkipCorrupt, log: s.log}
	default:
		return nil, eris.Errorf("history: unknown layout %q", cfg.Layout)
	}
	return s, nil
}

// Dir returns the directory holding the history.
func (s *Store) Dir() string { return s.dir }

// Record builds a VerificationRecord for one run and persists it. The record
// is stamped with the store's clock, not the report's timestamp.
func (s *Store) Record(flags types.RequestFlags, results []types.ProviderResult, report types.SynthesisReport) (string, error) {
	rec := s.buildRecord(flags, results, report)
	path, err := s.backend.write(&rec)
	if err != nil {
		return "", eris.Wrap(err, "history: record verification")
	}
	return path, nil
}

// RecordVerification is Record that never fails. An empty return means the
// run was not recorded.
func (s *Store) RecordVerification(flags types.RequestFlags, results []types.ProviderResult, report types.SynthesisReport) string {
	path, err := s.Record(flags, results, report)
	if err != nil {
		s.log.Error("failed to record verification", zap.String("dir", s.dir), zap.Error(err))
		return ""
	}
	s.log.Debug("recorded verification", zap.String("path", path))
	return path
}

// Recent returns up to limit records, most recent first. A missing history
// directory yields no records and no error.
func (s *Store) Recent(limit int) ([]types.VerificationRecord, error) {
	if limit <= 0 {
		return []types.VerificationRecord{}, nil
	}
	recs, err := s.backend.load(limit)
	if err != nil {
		return nil, eris.Wrap(err, "history: load recent")
	}
	return recs, nil
}

// GetRecent is Recent that never fails. Any read or parse failure degrades
// the whole call to an empty list unless the store skips corrupt records.
func (s *Store) GetRecent(limit int) []types.VerificationRecord {
	recs, err := s.Recent(limit)
	if err != nil {
		s.log.Warn("failed to read history", zap.String("dir", s.dir), zap.Error(err))
		return []types.VerificationRecord{}
	}
	return recs
}

// All returns every record in the store, most recent first.
func (s *Store) All() ([]types.VerificationRecord, error) {
	return s.Recent(math.MaxInt)
}

// Find returns records among the most recent SampleSize whose query
// contains substr, ignoring case.
func (s *Store) Find(substr string) ([]types.VerificationRecord, error) {
	recs, err := s.Recent(SampleSize)
	if err != nil {
		return nil, err
	}
	return filterByQuery(recs, substr), nil
}

// Search is Find that never fails.
func (s *Store) Search(substr string) []types.VerificationRecord {
	return filterByQuery(s.GetRecent(SampleSize), substr)
}

// Stats aggregates the most recent SampleSize records.
func (s *Store) Stats() (types.HistoryStats, error) {
	recs, err := s.Recent(SampleSize)
	if err != nil {
		return ComputeStats(nil), err
	}
	return ComputeStats(recs), nil
}

// GetStats is Stats that never fails; on error it returns zero stats.
func (s *Store) GetStats() types.HistoryStats {
	return ComputeStats(s.GetRecent(SampleSize))
}

func (s *Store) buildRecord(flags types.RequestFlags, results []types.ProviderResult, report types.SynthesisReport) types.VerificationRecord {
	byProvider := make(map[types.Provider]types.ProviderResult, len(results))
	for _, r := range results {
		byProvider[r.Provider] = r
	}

	consensus := report.Consensus
	if consensus == nil {
		consensus = []string{}
	}
	conflicts := report.Conflicts
	if conflicts == nil {
		conflicts = []types.Conflict{}
	}

	return types.VerificationRecord{
		Timestamp: s.now().UTC(),
		Query:     report.Query,
		Mode:      resolveMode(flags, s.providers),
		Results:   byProvider,
		Synthesis: types.RecordSynthesis{
			Consensus:   consensus,
			Conflicts:   conflicts,
			TotalTimeMs: report.Performance.TotalTimeMs,
			SuccessRate: report.Performance.SuccessRate,
		},
		Metadata: types.RecordMetadata{
			SchemaVersion: types.RecordSchemaVersion,
			Environment:   s.environment,
		},
	}
}

// resolveMode fills in unspecified flags with true. Every known provider
// gets an entry whether or not it produced a result.
func resolveMode(flags types.RequestFlags, known []types.Provider) types.ModeFlags {
	mode := types.ModeFlags{
		Providers: make(map[types.Provider]bool, len(known)+len(flags.Providers)),
		PlanMode:  true,
	}
	for _, p := range known {
		mode.Providers[p] = true
	}
	for p, included := range flags.Providers {
		mode.Providers[p] = included
	}
	if flags.PlanMode != nil {
		mode.PlanMode = *flags.PlanMode
	}
	return mode
}

// filterByQuery keeps records whose query contains substr under Unicode
// case folding.
func filterByQuery(recs []types.VerificationRecord, substr string) []types.VerificationRecord {
	fold := cases.Fold()
	needle := fold.String(substr)
	out := []types.VerificationRecord{}
	for _, r := range recs {
		if strings.Contains(fold.String(r.Query), needle) {
			out = append(out, r)
		}
	}
	return out
}

// ComputeStats aggregates recs. An empty sample yields zero averages.
func ComputeStats(recs []types.VerificationRecord) types.HistoryStats {
	stats := types.HistoryStats{
		TotalSampled:       len(recs),
		AttemptsByProvider: map[types.Provider]int{},
	}
	if len(recs) == 0 {
		return stats
	}

	var rateSum, timeSum float64
	for _, r := range recs {
		rateSum += r.Synthesis.SuccessRate
		timeSum += float64(r.Synthesis.TotalTimeMs)
		for p := range r.Results {
			stats.AttemptsByProvider[p]++
		}
	}
	stats.AverageSuccessRate = rateSum / float64(len(recs))
	stats.AverageResponseTimeMs = timeSum / float64(len(recs))
	return stats
}
