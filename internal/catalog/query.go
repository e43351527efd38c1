// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Text is matched against title, abstract, and keywords. Every word must
	// occur.
	Text string

	Source string
	Label  string
	Year   string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Entry is one catalog row.
type Entry struct {
	ID         string  `json:"id" yaml:"id"`
	Title      string  `json:"title" yaml:"title"`
	Authors    string  `json:"authors" yaml:"authors"`
	Abstract   *string `json:"abstract" yaml:"abstract"`
	PDFLink    *string `json:"pdf_link" yaml:"pdf_link"`
	Year       string  `json:"year" yaml:"year"`
	Source     string  `json:"source" yaml:"source"`
	Keywords   string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	ThemeLabel string  `json:"theme_label,omitempty" yaml:"theme_label,omitempty"`
	UpdatedAt  string  `json:"updated_at" yaml:"updated_at"`
}

const entryColumns = `p.id, p.title, p.authors, p.abstract, p.pdf_link, p.year, p.source,
	p.keywords, p.theme_label, p.updated_at`

// Query returns catalog entries matching the full-text terms and filters.
// Results are ordered by source, newest year first, then title.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	if match := matchExpr(opts.Text); match != "" {
		qb.WriteString(`SELECT ` + entryColumns + `
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.docid
			WHERE papers_fts MATCH ?`)
		args = append(args, match)
	} else {
		qb.WriteString(`SELECT ` + entryColumns + ` FROM papers p WHERE 1=1`)
	}

	if opts.Source != "" {
		qb.WriteString(` AND p.source = ?`)
		args = append(args, opts.Source)
	}
	if opts.Label != "" {
		qb.WriteString(` AND p.theme_label = ?`)
		args = append(args, opts.Label)
	}
	if opts.Year != "" {
		qb.WriteString(` AND p.year = ?`)
		args = append(args, opts.Year)
	}

	qb.WriteString(` ORDER BY p.source, p.year DESC, p.title LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			abstract sql.NullString
			pdfLink  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Authors, &abstract, &pdfLink,
			&e.Year, &e.Source, &e.Keywords, &e.ThemeLabel, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if abstract.Valid {
			e.Abstract = &abstract.String
		}
		if pdfLink.Valid {
			e.PDFLink = &pdfLink.String
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// matchExpr turns free text into an FTS query where every word is a quoted
// term, so user input never hits the query syntax.
func matchExpr(text string) string {
	words := strings.Fields(text)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w != "" {
			terms = append(terms, `"`+w+`"`)
		}
	}
	return strings.Join(terms, " ")
}

// LabelCount is the number of papers carrying one theme label.
type LabelCount struct {
	Label  string `json:"label" yaml:"label"`
	Papers int    `json:"papers" yaml:"papers"`
}

// Labels counts papers per theme label, most frequent first. Unannotated
// papers are not counted.
func (s *Store) Labels(ctx context.Context) ([]LabelCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT theme_label, count(*) AS n FROM papers
		 WHERE theme_label != ''
		 GROUP BY theme_label
		 ORDER BY n DESC, theme_label`)
	if err != nil {
		return nil, fmt.Errorf("counting labels: %w", err)
	}
	defer rows.Close()

	var counts []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Papers); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}
