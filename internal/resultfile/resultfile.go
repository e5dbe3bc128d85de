// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resultfile reads and writes the on-disk form of one run's input:
// the query, the caller's request flags, and the already-resolved result of
// each provider. The dispatcher that calls the providers writes this file;
// crosscheck only reads it.
package resultfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// File is the serialized input of a reconciliation run.
type File struct {
	Query   string                 `json:"query" yaml:"query"`
	Flags   types.RequestFlags     `json:"flags,omitempty" yaml:"flags,omitempty"`
	Results []types.ProviderResult `json:"results" yaml:"results"`
}

// Validate reports the first structural problem with f.
func (f *File) Validate() error {
	if strings.TrimSpace(f.Query) == "" {
		return eris.New("query is empty")
	}
	for i, r := range f.Results {
		if r.Provider == "" {
			return eris.Errorf("result %d has no provider", i)
		}
	}
	return nil
}

// Read loads a result file. Files ending in .json are parsed as JSON;
// everything else is parsed as YAML.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "reading result file")
	}

	var f File
	if isJSON(path) {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "parsing result file %s", path)
	}

	if err := f.Validate(); err != nil {
		return nil, eris.Wrapf(err, "invalid result file %s", path)
	}
	return &f, nil
}

// Write saves f to path as YAML, or as indented JSON when path ends in .json.
func Write(path string, f *File) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return eris.Wrap(err, "marshaling result file")
	}
	return os.WriteFile(path, data, 0o644)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
