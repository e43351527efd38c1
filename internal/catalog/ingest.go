// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Updated + s.Skipped
}

func (s *IngestSummary) merge(o IngestSummary) {
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Skipped += o.Skipped
}

const upsertCrawl = `INSERT INTO papers (id, title, authors, abstract, pdf_link, year, source, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
		pdf_link=excluded.pdf_link, year=excluded.year, source=excluded.source,
		updated_at=excluded.updated_at`

const upsertAnnotated = `INSERT INTO papers (id, title, authors, abstract, pdf_link, year, source, keywords, theme_label, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
		pdf_link=excluded.pdf_link, year=excluded.year, source=excluded.source,
		keywords=excluded.keywords, theme_label=excluded.theme_label,
		updated_at=excluded.updated_at`

// IngestCrawl upserts crawl records. Keywords and labels already stored for
// a paper are kept. Records without a title are skipped.
func (s *Store) IngestCrawl(ctx context.Context, records []types.PaperRecord) (IngestSummary, error) {
	rows := make([]row, len(records))
	for i, p := range records {
		rows[i] = row{
			title: p.Title,
			args: []any{p.Title, string(p.Authors), nullString(p.Abstract), nullString(p.PDFLink),
				p.Year, p.Source},
			source: p.Source,
		}
	}
	return s.ingest(ctx, upsertCrawl, rows)
}

// IngestAnnotated upserts annotated records including their keywords and
// theme labels. Records without a title are skipped.
func (s *Store) IngestAnnotated(ctx context.Context, records []types.AnnotatedRecord) (IngestSummary, error) {
	rows := make([]row, len(records))
	for i, r := range records {
		rows[i] = row{
			title: r.Title,
			args: []any{r.Title, string(r.Authors), nullString(r.Abstract), nullString(r.PDFLink),
				r.Year, r.Source, r.Keywords, r.ThemeLabel},
			source: r.Source,
		}
	}
	return s.ingest(ctx, upsertAnnotated, rows)
}

// row is one record flattened into statement arguments, without the leading
// id and trailing updated_at.
type row struct {
	title  string
	source string
	args   []any
}

// ingest runs the upsert for every row in one transaction.
func (s *Store) ingest(ctx context.Context, upsert string, rows []row) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	stamp := s.now().UTC().Format(time.RFC3339)
	var summary IngestSummary

	for _, r := range rows {
		if strings.TrimSpace(r.title) == "" {
			summary.Skipped++
			continue
		}

		id := PaperID(r.source, r.title)

		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM papers WHERE id = ?`, id).Scan(&one)
		switch {
		case err == nil:
			summary.Updated++
		case errors.Is(err, sql.ErrNoRows):
			summary.Inserted++
		default:
			return IngestSummary{}, fmt.Errorf("looking up %s: %w", id, err)
		}

		args := append([]any{id}, r.args...)
		args = append(args, stamp)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return IngestSummary{}, fmt.Errorf("upserting %q: %w", r.title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
