// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Text matches the query or any response, ignoring case.
	Text string

	// Provider keeps records in which this provider was attempted.
	Provider types.Provider

	// MinSuccessRate keeps records whose success rate is at least this value.
	MinSuccessRate float64

	// MaxResults limits result count. Zero uses the index default.
	MaxResults int
}

// likeEscaper escapes LIKE wildcards so Text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Query returns indexed records matching opts, most recent first.
func (ix *Index) Query(ctx context.Context, opts QueryOptions) ([]types.VerificationRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = ix.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT r.payload FROM records r WHERE 1=1`)

	if opts.Text != "" {
		qb.WriteString(` AND r.search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(cases.Fold().String(opts.Text))+"%")
	}

	if opts.Provider != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM responses s WHERE s.record_key = r.key AND s.provider = ?)`)
		args = append(args, string(opts.Provider))
	}

	if opts.MinSuccessRate > 0 {
		qb.WriteString(` AND r.success_rate >= ?`)
		args = append(args, opts.MinSuccessRate)
	}

	qb.WriteString(` ORDER BY r.timestamp_ns DESC, r.sequence DESC LIMIT ?`)
	args = append(args, maxResults)

	rows, err := ix.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "querying index")
	}
	defer rows.Close()

	results := []types.VerificationRecord{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "scanning row")
		}
		var rec types.VerificationRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, eris.Wrap(err, "decoding indexed record")
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Count returns the number of indexed records.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "counting records")
	}
	return n, nil
}
