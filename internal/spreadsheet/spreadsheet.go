// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spreadsheet converts a Web of Science .xlsx export into a JSON
// array of row objects keyed by column name.
package spreadsheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// ErrLegacyFormat is returned for BIFF .xls workbooks, which cannot be read.
var ErrLegacyFormat = errors.New("legacy .xls workbooks are not supported; re-export the file as .xlsx")

// Column names read from the header row.
const (
	colArticleTitle    = "Article Title"
	colAuthors         = "Authors"
	colAbstract        = "Abstract"
	colPublicationYear = "Publication Year"
	colDOI             = "DOI"
)

// Sheet holds the parsed rows and the header found in the first sheet.
type Sheet struct {
	Columns []string
	Rows    []types.SpreadsheetRow
}

// ReadRows reads the first sheet of an .xlsx workbook. The first row is the
// header; columns missing from it, and cells missing from short rows, read as
// "". Fully blank rows are skipped.
func ReadRows(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Sheet{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Sheet{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Sheet{}, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Sheet{Rows: []types.SpreadsheetRow{}}, nil
	}

	header := make([]string, len(rows[0]))
	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		header[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := make([]types.SpreadsheetRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		out = append(out, types.SpreadsheetRow{
			ArticleTitle:    cell(row, colArticleTitle),
			Authors:         cell(row, colAuthors),
			Abstract:        cell(row, colAbstract),
			PublicationYear: cell(row, colPublicationYear),
			DOI:             cell(row, colDOI),
		})
	}

	return Sheet{Columns: header, Rows: out}, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ConvertFile reads the workbook at in and writes its rows to out as a
// 2-space indented JSON array. It prints the available columns, the row
// count, and the first row to w. Nothing is written when the sheet has no
// data rows.
func ConvertFile(in, out string, w io.Writer) (int, error) {
	if strings.EqualFold(filepath.Ext(in), ".xls") {
		return 0, fmt.Errorf("%s: %w", in, ErrLegacyFormat)
	}

	f, err := os.Open(in)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", in, err)
	}
	defer f.Close()

	sheet, err := ReadRows(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", in, err)
	}

	fmt.Fprintf(w, "available columns: %s\n", strings.Join(sheet.Columns, ", "))

	if len(sheet.Rows) == 0 {
		fmt.Fprintln(w, "no rows to write")
		return 0, nil
	}

	data, err := marshalRows(sheet.Rows)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", out, err)
	}

	first, err := marshalRows(sheet.Rows[0])
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(w, "saved %s\n", out)
	fmt.Fprintf(w, "total items: %d\n", len(sheet.Rows))
	fmt.Fprintf(w, "first item:\n%s", first)

	return len(sheet.Rows), nil
}

// marshalRows encodes v with a 2-space indent, leaving non-ASCII text and
// HTML characters unescaped.
func marshalRows(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding rows: %w", err)
	}
	return buf.Bytes(), nil
}
