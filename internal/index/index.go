// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains a SQLite secondary index over verification
// history. The history store stays the source of truth; the index answers
// queries over the full corpus instead of the most recent sample.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/pdiddy/crosscheck/pkg/types"
)

const (
	// DefaultDir is used when the config leaves the directory empty.
	DefaultDir = ".crosscheck/index"

	dbFile            = "history.db"
	defaultMaxResults = 20
)

// Index manages the history index database.
type Index struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// Open opens or creates the index database at cfg.Dir/history.db and
// creates the schema if it does not exist.
func Open(cfg types.IndexConfig) (*Index, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "creating index directory")
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	ix := &Index{db: db, dir: dir, maxResults: maxResults}
	if err := ix.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating schema")
	}
	return ix, nil
}

// Close releases the database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Dir returns the directory holding the database and exports.
func (ix *Index) Dir() string { return ix.dir }

func (ix *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			timestamp_ns INTEGER NOT NULL,
			sequence INTEGER NOT NULL,
			query TEXT NOT NULL,
			success_rate REAL NOT NULL,
			total_time_ms INTEGER NOT NULL,
			search_text TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_time ON records(timestamp_ns, sequence)`,
		`CREATE TABLE IF NOT EXISTS responses (
			record_key TEXT NOT NULL REFERENCES records(key) ON DELETE CASCADE,
			provider TEXT NOT NULL,
			success INTEGER NOT NULL,
			response_time_ms INTEGER NOT NULL,
			response TEXT,
			error TEXT,
			PRIMARY KEY (record_key, provider)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_provider ON responses(provider)`,
	}
	for _, stmt := range statements {
		if _, err := ix.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// Key identifies a record in the index. Records written in the same second
// by the journal layout differ by sequence.
func Key(rec types.VerificationRecord) string {
	return rec.Timestamp.UTC().Format(time.RFC3339Nano) + "#" + strconv.FormatUint(rec.Sequence, 10)
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Skipped int
	Failed  int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Skipped + s.Failed
}

// Ingest adds recs to the index, reporting progress to w. Records are
// immutable, so a key that is already indexed is skipped. On success the
// YAML export is refreshed.
func (ix *Index) Ingest(ctx context.Context, recs []types.VerificationRecord, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, rec := range recs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		key := Key(rec)

		var exists int
		err := ix.db.QueryRowContext(ctx, `SELECT count(*) FROM records WHERE key = ?`, key).Scan(&exists)
		if err != nil {
			return summary, eris.Wrapf(err, "checking record %s", key)
		}
		if exists > 0 {
			summary.Skipped++
			continue
		}

		if err := ix.ingestRecord(ctx, key, rec); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "indexed %s (%d responses)\n", key, len(rec.Results))
		summary.Indexed++
	}

	fmt.Fprintf(w, "\nindexed: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 {
		if _, err := ix.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (ix *Index) ingestRecord(ctx context.Context, key string, rec types.VerificationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "marshaling record")
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (key, timestamp_ns, sequence, query, success_rate, total_time_ms, search_text, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key, rec.Timestamp.UnixNano(), int64(rec.Sequence), rec.Query,
		rec.Synthesis.SuccessRate, rec.Synthesis.TotalTimeMs,
		searchText(rec), string(payload),
	)
	if err != nil {
		return eris.Wrap(err, "inserting record")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO responses (record_key, provider, success, response_time_ms, response, error)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	for p, r := range rec.Results {
		if _, err := stmt.ExecContext(ctx, key, string(p), r.Success, r.ResponseTimeMs, r.Response, r.Error); err != nil {
			return eris.Wrapf(err, "inserting response %s", p)
		}
	}

	return tx.Commit()
}

// searchText is the case-folded text a query is matched against: the
// record's query followed by every provider response.
func searchText(rec types.VerificationRecord) string {
	parts := []string{rec.Query}
	for _, r := range rec.Results {
		if r.Response != "" {
			parts = append(parts, r.Response)
		}
	}
	return cases.Fold().String(strings.Join(parts, "\n"))
}
