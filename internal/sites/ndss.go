// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sites

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/li4oya/paper-collect-and-analysis/internal/normalize"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

const (
	ndssPDFPrimary  = `div.paper-buttons a[href*="paper.pdf"]`
	ndssPDFFallback = `div.paper-buttons a[href$=".pdf"]`
)

func init() {
	register(types.SourceNDSS, defaults{
		year:           "2024",
		startURLs:      []string{"https://www.ndss-symposium.org/ndss2024/accepted-papers/"},
		allowedDomains: []string{"www.ndss-symposium.org", "ndss-symposium.org"},
	}, func(b base) Site { return &ndss{base: b} })
}

// ndss crawls the NDSS accepted-papers page. The listing only carries
// links; title, authors, and abstract all come from the detail page.
type ndss struct {
	base
}

func (s *ndss) ExtractListing(p *Page) []types.PartialRecord {
	doc, err := p.Document()
	if err != nil {
		s.missing(p, "document")
		return nil
	}

	var out []types.PartialRecord
	doc.Find("div.tag-box.rel-paper").Each(func(_ int, box *goquery.Selection) {
		href, ok := box.Find("a.paper-link-abs").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			s.log.Warn("entry has no detail link", s.urlField(p))
			return
		}
		rec := s.partial(p)
		rec.DetailURL = p.Resolve(href)
		out = append(out, rec)
	})
	return out
}

// ExtractDetail reads the paper-data block, where the first <strong> holds
// the author line and every text node outside <strong> is the abstract.
func (s *ndss) ExtractDetail(p *Page, partial types.PartialRecord) types.RawPaper {
	raw := FromPartial(partial)

	doc, err := p.Document()
	if err != nil {
		s.missing(p, "document")
		return raw
	}

	if title := normalize.JoinText(ownText(doc.Find("h1.entry-title").First()), " "); title != "" {
		raw.Title = title
	} else {
		s.missing(p, "title")
	}

	raw.Authors = strings.TrimSpace(doc.Find("div.paper-data p strong").First().Text())
	if raw.Authors == "" {
		s.missing(p, "authors")
	}

	paragraphs := doc.Find("div.paper-data p")
	raw.Abstract = normalize.JoinText(textNodes(paragraphs, underTag("strong")), " ")
	if raw.Abstract == "" {
		s.missing(p, "abstract")
	}

	href, _ := firstHref(doc.Selection, ndssPDFPrimary, ndssPDFFallback)
	if href == "" {
		s.missing(p, "pdf link")
	}
	raw.PDFLink = p.Resolve(href)
	return raw
}
