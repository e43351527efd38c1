// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// paperInput distinguishes a missing title from an empty one.
type paperInput struct {
	Title    *string       `json:"title"`
	Authors  types.Authors `json:"authors"`
	Abstract *string       `json:"abstract"`
	PDFLink  *string       `json:"pdf_link"`
	Year     flexYear      `json:"year"`
	Source   string        `json:"source"`
}

// flexYear decodes a year given as a JSON string, number, or null.
type flexYear string

func (y *flexYear) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*y = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding year: %w", err)
		}
		*y = flexYear(s)
	default:
		*y = flexYear(raw)
	}
	return nil
}

// LoadPapers reads a JSON array of paper records. A record without a title
// key gets NoTitle. Year may be a string or a number.
func LoadPapers(path string) ([]types.PaperRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading papers %s: %w", path, err)
	}

	var in []paperInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decoding papers %s: %w", path, err)
	}

	papers := make([]types.PaperRecord, 0, len(in))
	for _, p := range in {
		title := NoTitle
		if p.Title != nil {
			title = *p.Title
		}
		papers = append(papers, types.PaperRecord{
			Title:    title,
			Authors:  p.Authors,
			Abstract: p.Abstract,
			PDFLink:  p.PDFLink,
			Year:     string(p.Year),
			Source:   p.Source,
		})
	}
	return papers, nil
}

// LoadVocabulary reads the theme label file as a single trimmed string.
func LoadVocabulary(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading labels %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteJSON writes v as a 4-space indented UTF-8 JSON document, keeping
// non-ASCII text as-is.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Projections returns the keywords-only view of each record.
func Projections(records []types.AnnotatedRecord) []types.KeywordsOnly {
	out := make([]types.KeywordsOnly, 0, len(records))
	for _, r := range records {
		out = append(out, r.Projection())
	}
	return out
}
