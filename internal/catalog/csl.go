// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML form, readable by Pandoc and
// reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Keyword        string    `yaml:"keyword,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

const doiPrefix = "https://doi.org/"

var proceedings = map[string]string{
	string(types.SourceAAAI):   "Proceedings of the AAAI Conference on Artificial Intelligence",
	string(types.SourceUSENIX): "USENIX Security Symposium",
	string(types.SourceNDSS):   "Network and Distributed System Security Symposium",
	string(types.SourceCCS):    "ACM Conference on Computer and Communications Security",
}

// authorSplit matches the separators used across proceedings author lines.
var authorSplit = regexp.MustCompile(`\s*(?:;|,\s*and\s|,|\sand\s)\s*`)

// ExportCSL writes the matching entries to path as a CSL-YAML list. It
// supports the same filters as Query; MaxResults is ignored.
func (s *Store) ExportCSL(ctx context.Context, opts QueryOptions, path string) (int, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return 0, err
	}

	items := make([]CSLItem, len(entries))
	for i, e := range entries {
		items[i] = toCSLItem(e)
	}

	data, err := yaml.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("marshaling CSL: %w", err)
	}
	return len(items), writeFile(path, data)
}

func toCSLItem(e Entry) CSLItem {
	item := CSLItem{
		ID:             e.ID,
		Type:           "paper-conference",
		Title:          e.Title,
		ContainerTitle: proceedings[e.Source],
		Keyword:        strings.Join(strings.Fields(strings.ReplaceAll(e.Keywords, "\n", ", ")), " "),
	}
	if e.Abstract != nil {
		item.Abstract = *e.Abstract
	}
	for _, a := range splitAuthors(e.Authors) {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if y, err := strconv.Atoi(strings.TrimSpace(e.Year)); err == nil && y > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{y}}}
	}
	if e.PDFLink != nil {
		if doi, ok := strings.CutPrefix(*e.PDFLink, doiPrefix); ok {
			item.DOI = doi
		} else {
			item.URL = *e.PDFLink
		}
	}
	// Sentinel keywords carry no bibliographic meaning.
	if strings.HasPrefix(e.Keywords, "关键词提取失败") {
		item.Keyword = ""
	}
	return item
}

func splitAuthors(authors string) []string {
	var names []string
	for _, name := range authorSplit.Split(strings.TrimSpace(authors), -1) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parseAuthorName splits a full name on its last space: everything before
// is given, the last token is family. Single-token names use the literal
// field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
