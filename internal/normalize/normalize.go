// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns site-shaped raw field values into canonical
// PaperRecords. Every function here is pure.
package normalize

import (
	"net/url"
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// Normalize builds the canonical record for one paper. Strings are trimmed
// and interior whitespace runs collapse to a single space. An abstract or
// PDF link that is empty after trimming becomes nil. A relative PDF link is
// resolved against base.
func Normalize(raw types.RawPaper, source types.Source, year string, base *url.URL) types.PaperRecord {
	rec := types.PaperRecord{
		Title:   CollapseSpace(raw.Title),
		Authors: types.Authors(CollapseSpace(raw.Authors)),
		Year:    strings.TrimSpace(year),
		Source:  string(source),
	}

	if abstract := CollapseSpace(raw.Abstract); abstract != "" {
		rec.Abstract = &abstract
	}

	if link := ResolveURL(base, raw.PDFLink); link != "" {
		rec.PDFLink = &link
	}

	return rec
}

// CollapseSpace trims s and replaces every run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ResolveURL returns href as an absolute URL, resolved against base when it
// is relative. It returns "" when href is blank or cannot be parsed, and
// href unchanged when base is nil.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// JoinText trims every part, drops the empty ones, and joins the rest with sep.
func JoinText(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
