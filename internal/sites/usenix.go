// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sites

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/li4oya/paper-collect-and-analysis/internal/normalize"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

const (
	usenixPDFPrimary  = "span.usenix-schedule-media.pdf a"
	usenixPDFFallback = "div.field-name-field-final-paper-pdf a"
)

func init() {
	register(types.SourceUSENIX, defaults{
		year:           "2024",
		startURLs:      []string{"https://www.usenix.org/conference/usenixsecurity24/fall-accepted-papers"},
		allowedDomains: []string{"www.usenix.org", "usenix.org"},
	}, func(b base) Site { return &usenix{base: b} })
}

// usenix crawls a USENIX Security accepted-papers page.
type usenix struct {
	base
}

func (s *usenix) ExtractListing(p *Page) []types.PartialRecord {
	doc, err := p.Document()
	if err != nil {
		s.missing(p, "document")
		return nil
	}

	var out []types.PartialRecord
	doc.Find("article.node.node-paper.view-mode-schedule").Each(func(_ int, article *goquery.Selection) {
		link := article.Find("h2 a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || strings.TrimSpace(href) == "" {
			s.log.Warn("entry has no title or detail link", s.urlField(p), fieldTitle(title))
			return
		}

		rec := s.partial(p)
		rec.Title = title
		rec.DetailURL = p.Resolve(href)
		out = append(out, rec)
	})
	return out
}

func (s *usenix) ExtractDetail(p *Page, partial types.PartialRecord) types.RawPaper {
	raw := FromPartial(partial)

	doc, err := p.Document()
	if err != nil {
		s.missing(p, "document")
		return raw
	}

	raw.Authors = normalize.JoinText(textNodes(doc.Find("div.field-name-field-paper-people-text"), nil), " ")
	if raw.Authors == "" {
		s.missing(p, "authors")
	}

	raw.Abstract = normalize.JoinText(textNodes(doc.Find("div.field-name-field-paper-description"), nil), " ")
	if raw.Abstract == "" {
		s.missing(p, "abstract")
	}

	href, _ := firstHref(doc.Selection, usenixPDFPrimary, usenixPDFFallback)
	if href == "" {
		s.missing(p, "pdf link")
	}
	raw.PDFLink = p.Resolve(href)
	return raw
}
