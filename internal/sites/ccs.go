// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sites

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

func init() {
	register(types.SourceCCS, defaults{
		year:           "2023",
		startURLs:      []string{"https://dblp.org/search/publ/api?q=toc%3Adb/conf/ccs/ccs2023.bht%3A&h=1000&format=json"},
		allowedDomains: []string{"dblp.org"},
	}, func(b base) Site { return &ccs{base: b} })
}

// ccs reads the ACM CCS table of contents from the dblp search API. dblp
// has no abstracts, so entries carry no detail URL and the electronic
// edition link stands in for the PDF. Abstracts come from the Web of
// Science export instead.
type ccs struct {
	base
}

// dblpHomonym matches the numeric suffix dblp appends to ambiguous names.
var dblpHomonym = regexp.MustCompile(`\s+\d{4}$`)

type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info dblpInfo `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpInfo struct {
	Title   string      `json:"title"`
	Type    string      `json:"type"`
	Authors dblpAuthors `json:"authors"`
	EE      flexStrings `json:"ee"`
}

type dblpAuthors struct {
	Author dblpAuthorList `json:"author"`
}

type dblpAuthor struct {
	Text string `json:"text"`
}

// dblpAuthorList decodes "author" as either a single object or an array.
type dblpAuthorList []dblpAuthor

func (l *dblpAuthorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one dblpAuthor
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = dblpAuthorList{one}
		return nil
	}
	var many []dblpAuthor
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// flexStrings decodes a JSON string or array of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*f = flexStrings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = many
	return nil
}

func (s *ccs) ExtractListing(p *Page) []types.PartialRecord {
	var resp dblpResponse
	if err := json.Unmarshal(p.Body, &resp); err != nil {
		s.log.Warn("decoding dblp response", s.urlField(p), logging.Err(err))
		return nil
	}

	var out []types.PartialRecord
	for _, hit := range resp.Result.Hits.Hit {
		info := hit.Info
		// The proceedings volume itself is listed alongside its papers.
		if info.Type == "Editorship" {
			continue
		}

		rec := s.partial(p)
		rec.Title = strings.TrimSuffix(strings.TrimSpace(info.Title), ".")

		names := make([]string, 0, len(info.Authors.Author))
		for _, a := range info.Authors.Author {
			names = append(names, dblpHomonym.ReplaceAllString(strings.TrimSpace(a.Text), ""))
		}
		rec.Authors = strings.Join(names, ", ")

		if len(info.EE) > 0 {
			rec.PDFLink = info.EE[0]
		} else {
			s.missing(p, fmt.Sprintf("ee for %q", rec.Title))
		}
		out = append(out, rec)
	}
	return out
}

// ExtractDetail is never reached for dblp entries; it returns what the
// listing already knew.
func (s *ccs) ExtractDetail(_ *Page, partial types.PartialRecord) types.RawPaper {
	return FromPartial(partial)
}
