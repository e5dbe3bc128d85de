// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/crosscheck/pkg/types"
)

const (
	fileTimeLayout = "2006-01-02T15-04-05"
	fileSuffix     = "-verification.json"
)

// recordFilePattern matches names produced by FileName.
var recordFilePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-verification\.json$`)

// FileName returns the record filename for t: the UTC instant truncated to
// the second with colons replaced by hyphens. Runs within the same second
// share a name, and the later write replaces the earlier file.
func FileName(t time.Time) string {
	return t.UTC().Format(fileTimeLayout) + fileSuffix
}

// fileBackend stores each record as a pretty-printed JSON file. It takes no
// locks and does not write atomically; it assumes a single writer.
type fileBackend struct {
	dir         string
	skipCorrupt bool
	log         *zap.Logger
}

func (b *fileBackend) write(rec *types.VerificationRecord) (string, error) {
	if _, err := os.Stat(b.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(b.dir, 0o755); err != nil {
			return "", eris.Wrapf(err, "creating history directory %s", b.dir)
		}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "marshaling record")
	}

	path := filepath.Join(b.dir, FileName(rec.Timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "writing %s", path)
	}
	return path, nil
}

func (b *fileBackend) load(limit int) ([]types.VerificationRecord, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.VerificationRecord{}, nil
		}
		return nil, eris.Wrapf(err, "reading history directory %s", b.dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !recordFilePattern.MatchString(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	// Names start with an ISO timestamp, so reverse lexical order is newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if len(names) > limit {
		names = names[:limit]
	}

	recs := make([]types.VerificationRecord, 0, len(names))
	for _, name := range names {
		rec, err := readRecordFile(filepath.Join(b.dir, name))
		if err != nil {
			if b.skipCorrupt {
				b.log.Warn("skipping unreadable history record", zap.String("file", name), zap.Error(err))
				continue
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func readRecordFile(path string) (types.VerificationRecord, error) {
	var rec types.VerificationRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, eris.Wrapf(err, "reading %s", path)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, eris.Wrapf(err, "parsing %s", path)
	}
	return rec, nil
}
