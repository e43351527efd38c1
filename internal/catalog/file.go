// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// SourceWoS marks rows imported from a Web of Science conversion.
const SourceWoS = "wos"

const doiResolver = "https://doi.org/"

// fileShape is the kind of JSON array IngestFile recognized.
type fileShape string

const (
	shapeCrawl       fileShape = "crawl"
	shapeAnnotated   fileShape = "annotated"
	shapeSpreadsheet fileShape = "spreadsheet"
)

// IngestFile loads a JSON array written by the crawl, annotate, or convert
// command and upserts its records. Records without a source take the site
// named by the file prefix (e.g. usenix_papers.json). One status line is
// printed to w.
func (s *Store) IngestFile(ctx context.Context, path string, w io.Writer) (IngestSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading %s: %w", path, err)
	}

	shape, err := detectShape(data)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("%s: %w", path, err)
	}

	fallback := sourceFromName(path)

	var summary IngestSummary
	switch shape {
	case shapeAnnotated:
		var records []types.AnnotatedRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return IngestSummary{}, fmt.Errorf("decoding %s: %w", path, err)
		}
		for i := range records {
			if records[i].Source == "" {
				records[i].Source = fallback
			}
		}
		summary, err = s.IngestAnnotated(ctx, records)

	case shapeSpreadsheet:
		var rows []types.SpreadsheetRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return IngestSummary{}, fmt.Errorf("decoding %s: %w", path, err)
		}
		summary, err = s.IngestCrawl(ctx, fromSpreadsheet(rows))

	default:
		var records []types.PaperRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return IngestSummary{}, fmt.Errorf("decoding %s: %w", path, err)
		}
		for i := range records {
			if records[i].Source == "" {
				records[i].Source = fallback
			}
		}
		summary, err = s.IngestCrawl(ctx, records)
	}
	if err != nil {
		return IngestSummary{}, fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(w, "ingested %s (%s: %d new, %d updated, %d skipped)\n",
		path, shape, summary.Inserted, summary.Updated, summary.Skipped)
	return summary, nil
}

// IngestFiles ingests each path in turn and returns the combined counts.
// It stops at the first file that cannot be read or decoded.
func (s *Store) IngestFiles(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var total IngestSummary
	for _, p := range paths {
		summary, err := s.IngestFile(ctx, p, w)
		if err != nil {
			return total, err
		}
		total.merge(summary)
	}
	return total, nil
}

// detectShape inspects the keys of the array elements.
func detectShape(data []byte) (fileShape, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return "", fmt.Errorf("expected a JSON array of objects: %w", err)
	}
	for _, item := range items {
		if _, ok := item["Article Title"]; ok {
			return shapeSpreadsheet, nil
		}
		if _, ok := item["theme_label"]; ok {
			return shapeAnnotated, nil
		}
		if _, ok := item["keywords"]; ok {
			return shapeAnnotated, nil
		}
	}
	return shapeCrawl, nil
}

// sourceFromName returns the known site prefix of a file name, or "".
func sourceFromName(path string) string {
	base := strings.ToLower(filepath.Base(path))
	prefix, _, _ := strings.Cut(base, "_")
	switch types.Source(prefix) {
	case types.SourceAAAI, types.SourceUSENIX, types.SourceNDSS, types.SourceCCS:
		return prefix
	}
	return ""
}

// fromSpreadsheet maps Web of Science rows onto paper records. The DOI
// becomes a resolver link.
func fromSpreadsheet(rows []types.SpreadsheetRow) []types.PaperRecord {
	out := make([]types.PaperRecord, 0, len(rows))
	for _, r := range rows {
		p := types.PaperRecord{
			Title:   strings.TrimSpace(r.ArticleTitle),
			Authors: types.Authors(strings.TrimSpace(r.Authors)),
			Year:    strings.TrimSpace(r.PublicationYear),
			Source:  SourceWoS,
		}
		if abs := strings.TrimSpace(r.Abstract); abs != "" {
			p.Abstract = &abs
		}
		if doi := strings.TrimSpace(r.DOI); doi != "" {
			link := doiResolver + doi
			p.PDFLink = &link
		}
		out = append(out, p)
	}
	return out
}
