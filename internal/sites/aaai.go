// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sites

import (
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/li4oya/paper-collect-and-analysis/internal/normalize"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// aaaiAuthorSep joins the author text nodes of an AAAI listing entry.
const aaaiAuthorSep = "、"

func init() {
	register(types.SourceAAAI, defaults{
		year:           "2025",
		startURLs:      []string{"https://aaai.org/proceeding/aaai-39-2025/"},
		allowedDomains: []string{"aaai.org", "ojs.aaai.org"},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36",
			"Accept-Language": "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7",
			"Accept-Encoding": "gzip",
		},
	}, func(b base) Site { return &aaai{base: b} })
}

// aaai crawls the AAAI proceedings. The start page lists one link per
// technical track; each track page on ojs.aaai.org lists its papers.
type aaai struct {
	base
}

// StartRequests sends an empty User-Agent to the proceedings index, which
// rejects the browser string used for the OJS pages.
func (s *aaai) StartRequests() []Request {
	reqs := make([]Request, 0, len(s.startURLs))
	for _, u := range s.startURLs {
		reqs = append(reqs, Request{URL: u, Headers: http.Header{"User-Agent": {""}}})
	}
	return reqs
}

func (s *aaai) ExtractSections(p *Page) []string {
	doc, err := p.Document()
	if err != nil {
		s.missing(p, "document")
		return nil
	}

	var urls []string
	doc.Find("div.archive-description a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			s.missing(p, "section href")
			return
		}
		if u := p.Resolve(href); u != "" {
			urls = append(urls, u)
		}
	})
	return urls
}

func (s *aaai) ExtractListing(p *Page) []types.PartialRecord {
	doc, err := p.Document()
	if err != nil {
		s.missing(p, "document")
		return nil
	}

	items := doc.Find("ul.cmp_article_list.articles > li")
	if items.Length() == 0 {
		s.missing(p, "article list")
		return nil
	}

	var out []types.PartialRecord
	items.Each(func(_ int, li *goquery.Selection) {
		summary := li.Find("div.obj_article_summary")
		if summary.Length() == 0 {
			s.missing(p, "article summary")
			return
		}

		rec := s.partial(p)
		titleLink := summary.Find("h3.title a").First()
		rec.Title = strings.TrimSpace(titleLink.Text())
		rec.Authors = normalize.JoinText(textNodes(summary.Find("div.meta div.authors"), nil), aaaiAuthorSep)

		if href, ok := summary.Find("ul.galleys_links a.pdf").First().Attr("href"); ok {
			rec.PDFLink = p.Resolve(href)
		}

		if href, ok := titleLink.Attr("href"); ok {
			rec.DetailURL = p.Resolve(href)
		}
		if rec.DetailURL == "" {
			s.log.Warn("entry has no detail link",
				s.urlField(p),
				fieldTitle(rec.Title),
			)
		}
		out = append(out, rec)
	})
	return out
}

func (s *aaai) ExtractDetail(p *Page, partial types.PartialRecord) types.RawPaper {
	raw := FromPartial(partial)

	doc, err := p.Document()
	if err != nil {
		s.missing(p, "document")
		return raw
	}

	raw.Abstract = normalize.JoinText(textNodes(doc.Find("section.item.abstract"), nil), " ")
	if raw.Abstract == "" {
		raw.Abstract = normalize.JoinText(textNodes(doc.Find("section.item.abstract p"), nil), " ")
	}
	if raw.Abstract == "" {
		s.missing(p, "abstract")
	}
	return raw
}
