// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 1000000

// ExportPath returns the default export file for a format ("yaml" or "json").
func (s *Store) ExportPath(format string) string {
	return filepath.Join(s.dir, "export."+format)
}

// ExportYAML writes the matching entries to path as YAML. It supports the
// same filters as Query; MaxResults is ignored.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions, path string) (int, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return 0, err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return 0, fmt.Errorf("marshaling YAML: %w", err)
	}
	return len(entries), writeFile(path, data)
}

// ExportJSON writes the matching entries to path as a 2-space indented JSON
// array. It supports the same filters as Query; MaxResults is ignored.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions, path string) (int, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}
	return len(entries), writeFile(path, buf.Bytes())
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	opts.MaxResults = exportLimit
	entries, err := s.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
