// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// Format selects the serialization of an export.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied export format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", eris.Errorf("unknown export format %q (want yaml or json)", s)
	}
}

// ExportYAML writes matching records to <dir>/export.yaml and returns the
// path. It supports the same filters as Query; MaxResults is ignored.
func (ix *Index) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	return ix.export(ctx, opts, FormatYAML)
}

// ExportJSON writes matching records to <dir>/export.json and returns the
// path. It supports the same filters as Query; MaxResults is ignored.
func (ix *Index) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	return ix.export(ctx, opts, FormatJSON)
}

func (ix *Index) export(ctx context.Context, opts QueryOptions, format Format) (string, error) {
	opts.MaxResults = math.MaxInt32
	recs, err := ix.Query(ctx, opts)
	if err != nil {
		return "", eris.Wrap(err, "querying for export")
	}

	path := filepath.Join(ix.dir, "export."+string(format))
	if err := WriteRecords(path, format, recs); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRecords serializes recs to path as YAML or indented JSON.
func WriteRecords(path string, format Format, recs []types.VerificationRecord) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(recs, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(recs)
	default:
		return eris.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return eris.Wrapf(err, "marshaling %s", format)
	}
	return os.WriteFile(path, data, 0o644)
}
