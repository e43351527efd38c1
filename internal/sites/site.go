// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sites holds the per-conference extraction rules. Each site knows
// its start pages and request headers, how to find paper entries on a
// listing page, and how to complete a paper from its detail page.
package sites

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// ErrUnknownSite is returned by New for a name with no registered site.
var ErrUnknownSite = errors.New("unknown site")

// Request is one start request with its headers.
type Request struct {
	URL     string
	Headers http.Header
}

// Site extracts paper records from one conference website. Extraction
// never fails: missing elements are logged and left empty.
type Site interface {
	Name() types.Source
	Year() string
	AllowedDomains() []string
	StartRequests() []Request

	// FollowHeaders returns the headers for a request linked from referer.
	FollowHeaders(referer string) http.Header

	ExtractListing(p *Page) []types.PartialRecord
	ExtractDetail(p *Page, partial types.PartialRecord) types.RawPaper
}

// SectionLister is implemented by sites whose start page is an index of
// listing pages rather than a listing page itself.
type SectionLister interface {
	ExtractSections(p *Page) []string
}

// FromPartial returns the raw fields a PartialRecord already carries. It is
// used for entries that never reach a detail page.
func FromPartial(partial types.PartialRecord) types.RawPaper {
	return types.RawPaper{
		Title:   partial.Title,
		Authors: partial.Authors,
		PDFLink: partial.PDFLink,
	}
}

// defaults are the built-in settings of a site before config overrides.
type defaults struct {
	year           string
	startURLs      []string
	allowedDomains []string
	headers        map[string]string
}

type constructor func(b base) Site

type registration struct {
	defaults defaults
	build    constructor
}

var registry = map[types.Source]registration{}

func register(name types.Source, d defaults, build constructor) {
	registry[name] = registration{defaults: d, build: build}
}

// Names returns the registered site names in sorted order.
func Names() []types.Source {
	names := make([]types.Source, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// New builds the site named by cfg.Name, applying any non-zero overrides.
func New(cfg types.SiteConfig, log logging.Logger) (Site, error) {
	name := types.Source(strings.ToLower(strings.TrimSpace(string(cfg.Name))))
	reg, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, cfg.Name)
	}
	if log == nil {
		log = logging.Nop()
	}

	b := base{
		name:           name,
		year:           reg.defaults.year,
		startURLs:      reg.defaults.startURLs,
		allowedDomains: reg.defaults.allowedDomains,
		headers:        http.Header{},
		log:            log.With(logging.String("site", string(name))),
	}
	for k, v := range reg.defaults.headers {
		b.headers.Set(k, v)
	}
	if cfg.Year != "" {
		b.year = cfg.Year
	}
	if len(cfg.StartURLs) > 0 {
		b.startURLs = cfg.StartURLs
	}
	if len(cfg.AllowedDomains) > 0 {
		b.allowedDomains = cfg.AllowedDomains
	}
	for k, v := range cfg.Headers {
		b.headers.Set(k, v)
	}

	return reg.build(b), nil
}

// base carries the settings and helpers every site shares.
type base struct {
	name           types.Source
	year           string
	startURLs      []string
	allowedDomains []string
	headers        http.Header
	log            logging.Logger
}

func (b base) Name() types.Source { return b.name }

func (b base) Year() string { return b.year }

func (b base) AllowedDomains() []string { return b.allowedDomains }

// StartRequests sends the site headers to every start URL.
func (b base) StartRequests() []Request {
	reqs := make([]Request, 0, len(b.startURLs))
	for _, u := range b.startURLs {
		reqs = append(reqs, Request{URL: u, Headers: b.headers.Clone()})
	}
	return reqs
}

func (b base) FollowHeaders(referer string) http.Header {
	h := b.headers.Clone()
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}

func (b base) partial(listing *Page) types.PartialRecord {
	return types.PartialRecord{
		SourceSectionURL: listing.urlString(),
		Year:             b.year,
		Source:           b.name,
	}
}

func (b base) missing(p *Page, field string) {
	b.log.Warn("element not found",
		logging.String("url", p.urlString()),
		logging.String("field", field),
	)
}

func (b base) urlField(p *Page) logging.Field {
	return logging.String("url", p.urlString())
}

func fieldTitle(title string) logging.Field {
	return logging.String("title", title)
}
