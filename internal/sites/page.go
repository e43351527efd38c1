// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sites

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/li4oya/paper-collect-and-analysis/internal/normalize"
)

// Page is one fetched document. The HTML tree is parsed on first use.
type Page struct {
	URL  *url.URL
	Body []byte

	once sync.Once
	doc  *goquery.Document
	err  error
}

// NewPage wraps a fetched body.
func NewPage(u *url.URL, body []byte) *Page {
	return &Page{URL: u, Body: body}
}

// Document returns the parsed HTML tree.
func (p *Page) Document() (*goquery.Document, error) {
	p.once.Do(func() {
		p.doc, p.err = goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
		if p.err != nil {
			p.err = fmt.Errorf("parsing %s: %w", p.urlString(), p.err)
		}
	})
	return p.doc, p.err
}

// Resolve returns href as an absolute URL relative to the page.
func (p *Page) Resolve(href string) string {
	return normalize.ResolveURL(p.URL, href)
}

func (p *Page) urlString() string {
	if p.URL == nil {
		return ""
	}
	return p.URL.String()
}

// textNodes returns every descendant text node of sel in document order,
// skipping nodes for which skip reports true.
func textNodes(sel *goquery.Selection, skip func(*html.Node) bool) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if skip == nil || !skip(n) {
				out = append(out, n.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// ownText returns the text nodes that are direct children of sel.
func ownText(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				out = append(out, c.Data)
			}
		}
	}
	return out
}

// underTag reports whether n has an element ancestor named tag.
func underTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for a := n.Parent; a != nil; a = a.Parent {
			if a.Type == html.ElementNode && strings.EqualFold(a.Data, tag) {
				return true
			}
		}
		return false
	}
}

// firstHref tries each selector in order and returns the first non-blank
// href along with the selector that produced it.
func firstHref(doc *goquery.Selection, selectors ...string) (string, string) {
	for _, s := range selectors {
		if href, ok := doc.Find(s).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href), s
		}
	}
	return "", ""
}
