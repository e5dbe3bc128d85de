// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// JournalFile is the name of the append-only journal inside the history
// directory.
const JournalFile = "history.jsonl"

// maxJournalLine bounds a single journal record.
const maxJournalLine = 16 << 20

// journalBackend appends one JSON record per line to a single file. Each
// record carries a sequence number, so runs in the same second never collide.
// Writes within a process are serialized; the sequence is derived from the
// journal on first write and assumes no other process appends concurrently.
type journalBackend struct {
	path        string
	skipCorrupt bool
	log         *zap.Logger

	mu      sync.Mutex
	nextSeq uint64
}

func (b *journalBackend) write(rec *types.VerificationRecord) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir := filepath.Dir(b.path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", eris.Wrapf(err, "creating history directory %s", dir)
		}
	}

	if b.nextSeq == 0 {
		last, err := b.lastSequence()
		if err != nil {
			return "", err
		}
		b.nextSeq = last + 1
	}
	rec.Sequence = b.nextSeq

	line, err := json.Marshal(rec)
	if err != nil {
		return "", eris.Wrap(err, "marshaling record")
	}
	line = append(line, '\n')

	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return "", eris.Wrapf(err, "opening %s", b.path)
	}
	torn, err := endsMidLine(f)
	if err != nil {
		f.Close()
		return "", eris.Wrapf(err, "checking tail of %s", b.path)
	}
	if torn {
		// An interrupted write left a partial last line; terminate it so
		// this record starts on a line of its own.
		b.log.Warn("terminating partial journal line", zap.String("file", b.path))
		line = append([]byte{'\n'}, line...)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return "", eris.Wrapf(err, "appending to %s", b.path)
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "closing %s", b.path)
	}

	b.nextSeq++
	return b.path, nil
}

// endsMidLine reports whether f is non-empty and does not end in a newline.
func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// lastSequence returns the highest sequence in the journal, or 0 when the
// journal does not exist yet. Corrupt lines are ignored.
func (b *journalBackend) lastSequence() (uint64, error) {
	var last uint64
	err := b.scan(func(line []byte) error {
		var head struct {
			Sequence uint64 `json:"sequence"`
		}
		if json.Unmarshal(line, &head) == nil && head.Sequence > last {
			last = head.Sequence
		}
		return nil
	})
	return last, err
}

func (b *journalBackend) load(limit int) ([]types.VerificationRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var all []types.VerificationRecord
	lineNo := 0
	err := b.scan(func(line []byte) error {
		lineNo++
		var rec types.VerificationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			if b.skipCorrupt {
				b.log.Warn("skipping corrupt journal line", zap.String("file", b.path), zap.Int("line", lineNo), zap.Error(err))
				return nil
			}
			return eris.Wrapf(err, "parsing %s line %d", b.path, lineNo)
		}
		all = append(all, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.VerificationRecord, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// scan calls fn for each non-blank line of the journal. A missing journal
// has no lines.
func (b *journalBackend) scan(fn func(line []byte) error) error {
	f, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "opening %s", b.path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxJournalLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return eris.Wrapf(err, "reading %s", b.path)
	}
	return nil
}
