// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records and configuration shared by the crawl,
// annotation, conversion, and catalog stages.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source identifies the conference site a paper was collected from.
type Source string

const (
	SourceAAAI   Source = "aaai"
	SourceUSENIX Source = "usenix"
	SourceNDSS   Source = "ndss"
	SourceCCS    Source = "ccs"
)

// authorListSeparator joins author arrays found in older JSON dumps.
const authorListSeparator = ", "

// Authors is free-text author information. It decodes from either a JSON
// string or a JSON array of strings and always encodes as a string.
type Authors string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (a *Authors) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decoding author list: %w", err)
		}
		kept := list[:0]
		for _, name := range list {
			if name = strings.TrimSpace(name); name != "" {
				kept = append(kept, name)
			}
		}
		*a = Authors(strings.Join(kept, authorListSeparator))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding authors: %w", err)
	}
	*a = Authors(s)
	return nil
}

// PartialRecord accumulates one paper's fields between the listing page and
// its detail page. Exactly one in-flight detail request owns a PartialRecord.
type PartialRecord struct {
	// Title is the title text found on the listing page (may be empty when
	// the site only exposes it on the detail page).
	Title string

	// DetailURL is the absolute detail page URL, or empty when the listing
	// entry carried no link.
	DetailURL string

	// SourceSectionURL is the listing page the entry was found on.
	SourceSectionURL string

	Year   string
	Source Source

	// Authors and PDFLink are filled when the listing page already exposes them.
	Authors string
	PDFLink string
}

// RawPaper holds site-shaped field values before normalization. An empty
// string means the field was not found.
type RawPaper struct {
	Title    string
	Authors  string
	Abstract string
	PDFLink  string
}

// PaperRecord is the canonical, normalized paper. Abstract and PDFLink are
// the only fields allowed to be absent, and absence is always nil (JSON null).
type PaperRecord struct {
	Title    string  `json:"title" yaml:"title"`
	Authors  Authors `json:"authors" yaml:"authors"`
	Abstract *string `json:"abstract" yaml:"abstract"`
	PDFLink  *string `json:"pdf_link" yaml:"pdf_link"`
	Year     string  `json:"year" yaml:"year"`
	Source   string  `json:"source" yaml:"source"`
}

// HasAbstract reports whether the record carries a non-blank abstract.
func (p PaperRecord) HasAbstract() bool {
	return p.Abstract != nil && strings.TrimSpace(*p.Abstract) != ""
}

// AnnotationOutcome is the terminal state an annotation attempt ends in.
type AnnotationOutcome string

const (
	OutcomePending           AnnotationOutcome = "pending"
	OutcomeSkippedNoAbstract AnnotationOutcome = "skipped_no_abstract"
	OutcomeSuccess           AnnotationOutcome = "llm_success"
	OutcomeMalformed         AnnotationOutcome = "llm_malformed"
	OutcomeError             AnnotationOutcome = "llm_error"
)

// AnnotatedRecord is a PaperRecord plus LLM-derived keywords and a theme label.
type AnnotatedRecord struct {
	PaperRecord `yaml:",inline"`
	Keywords   string `json:"keywords" yaml:"keywords"`
	ThemeLabel string `json:"theme_label" yaml:"theme_label"`

	// Outcome records how the keywords and label were produced. It is not
	// written to the output files.
	Outcome AnnotationOutcome `json:"-" yaml:"-"`
}

// KeywordsOnly is the reduced projection written to the keywords-only file.
type KeywordsOnly struct {
	Title      string `json:"title" yaml:"title"`
	Keywords   string `json:"keywords" yaml:"keywords"`
	ThemeLabel string `json:"theme_label" yaml:"theme_label"`
}

// Projection returns the keywords-only view of the record.
func (r AnnotatedRecord) Projection() KeywordsOnly {
	return KeywordsOnly{
		Title:      r.Title,
		Keywords:   r.Keywords,
		ThemeLabel: r.ThemeLabel,
	}
}

// SpreadsheetRow is one Web of Science export row. Every value is a string;
// missing columns are empty.
type SpreadsheetRow struct {
	ArticleTitle    string `json:"Article Title"`
	Authors         string `json:"Authors"`
	Abstract        string `json:"Abstract"`
	PublicationYear string `json:"Publication Year"`
	DOI             string `json:"DOI"`
}
