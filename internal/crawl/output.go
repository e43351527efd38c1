// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/li4oya/paper-collect-and-analysis/internal/sites"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// OutputPath returns where the records of a site are written.
func OutputPath(outDir string, site types.Source) string {
	return filepath.Join(outDir, string(site)+"_papers.json")
}

// WriteJSON writes records as a 4-space indented UTF-8 JSON array. Non-ASCII
// text and HTML characters are written as-is.
func WriteJSON(path string, records []types.PaperRecord) error {
	if records == nil {
		records = []types.PaperRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// BatchSummary holds per-site outcomes from CrawlAll.
type BatchSummary struct {
	Crawled int
	// Degraded counts sites written despite some pages failing to fetch.
	Degraded int
	Failed   int
	Records  int
}

// HasFailures reports whether any site output could not be written.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// CrawlAll crawls each site in turn and writes its records under outDir,
// printing one status line per site to w.
func (c *Crawler) CrawlAll(ctx context.Context, list []sites.Site, outDir string, w io.Writer) (BatchSummary, error) {
	var summary BatchSummary

	for _, site := range list {
		fmt.Fprintf(w, "crawling %s\n", site.Name())

		res, err := c.Run(ctx, site)
		if err != nil {
			return summary, fmt.Errorf("crawling %s: %w", site.Name(), err)
		}

		path := OutputPath(outDir, site.Name())
		if err := WriteJSON(path, res.Records); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", site.Name(), err)
			summary.Failed++
			continue
		}

		s := res.Summary
		fmt.Fprintf(w, "crawled %s (%d records, %d listing pages, %d detail failures) -> %s\n",
			site.Name(), s.Records, s.ListingPages, s.DetailFailures, path)
		if s.HasFailures() {
			summary.Degraded++
		} else {
			summary.Crawled++
		}
		summary.Records += s.Records
	}

	return summary, nil
}
