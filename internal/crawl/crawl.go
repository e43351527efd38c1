// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl drives the listing to detail request chain for a site and
// collects the normalized paper records.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gocolly/colly/v2"

	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/internal/normalize"
	"github.com/li4oya/paper-collect-and-analysis/internal/sites"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// Request context keys.
const (
	stageKey   = "stage"
	jobKey     = "job"
	handledKey = "handled"
)

// Stages a request can be in.
const (
	stageIndex   = "index"
	stageListing = "listing"
	stageDetail  = "detail"
)

// Summary counts what happened during one site crawl.
type Summary struct {
	ListingPages    int
	ListingFailures int
	DetailFetches   int
	DetailFailures  int
	// NoDetail counts entries emitted straight from the listing.
	NoDetail int
	Records  int
}

// HasFailures reports whether any page could not be fetched.
func (s Summary) HasFailures() bool {
	return s.ListingFailures > 0 || s.DetailFailures > 0
}

// Result is the output of one site crawl. Record order is not defined.
type Result struct {
	Site    types.Source
	Records []types.PaperRecord
	Summary Summary
}

// Crawler fetches sites with colly.
type Crawler struct {
	cfg types.CrawlConfig
	log logging.Logger
}

// New returns a Crawler. A nil logger discards output.
func New(cfg types.CrawlConfig, log logging.Logger) *Crawler {
	if log == nil {
		log = logging.Nop()
	}
	return &Crawler{cfg: cfg, log: log}
}

// detailJob is the single in-flight detail request that owns a PartialRecord.
type detailJob struct {
	partial types.PartialRecord
	once    sync.Once
}

// run holds the state of one site crawl.
type run struct {
	ctx  context.Context
	site sites.Site
	col  *colly.Collector
	log  logging.Logger

	mu      sync.Mutex
	records []types.PaperRecord
	summary Summary
}

// Run crawls one site to completion. Fetch failures never abort the run:
// a failed detail page still yields its record with a null abstract. The
// returned error is non-nil only when ctx was cancelled, in which case the
// records collected so far are returned as well.
func (c *Crawler) Run(ctx context.Context, site sites.Site) (Result, error) {
	col, err := c.newCollector(ctx, site)
	if err != nil {
		return Result{}, err
	}

	r := &run{
		ctx:  ctx,
		site: site,
		col:  col,
		log:  c.log.With(logging.String("site", string(site.Name()))),
	}
	col.OnResponse(r.onResponse)
	col.OnError(r.onError)

	_, indexed := site.(sites.SectionLister)
	for _, req := range site.StartRequests() {
		stage := stageListing
		if indexed {
			stage = stageIndex
		}
		r.visit(req.URL, stage, req.Headers, nil)
	}
	col.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Records = len(r.records)
	res := Result{Site: site.Name(), Records: r.records, Summary: r.summary}
	return res, ctx.Err()
}

func (c *Crawler) newCollector(ctx context.Context, site sites.Site) (*colly.Collector, error) {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.IgnoreRobotsTxt(),
	}
	if c.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.cfg.UserAgent))
	}
	if domains := site.AllowedDomains(); len(domains) > 0 {
		opts = append(opts, colly.AllowedDomains(domains...))
	}
	if c.cfg.Parallelism > 1 {
		opts = append(opts, colly.Async(true))
	}

	col := colly.NewCollector(opts...)
	if c.cfg.Timeout > 0 {
		col.SetRequestTimeout(c.cfg.Timeout)
	}

	if c.cfg.Parallelism > 1 || c.cfg.Delay > 0 {
		parallelism := c.cfg.Parallelism
		if parallelism < 1 {
			parallelism = 1
		}
		if err := col.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: parallelism,
			Delay:       c.cfg.Delay,
		}); err != nil {
			return nil, fmt.Errorf("setting crawl limits: %w", err)
		}
	}
	return col, nil
}

// visit schedules one GET. Errors raised before the fetch starts (already
// visited, domain not allowed) do not reach OnError, so they are handled here.
func (r *run) visit(rawURL, stage string, hdr http.Header, job *detailJob) {
	if r.ctx.Err() != nil {
		return
	}
	if hdr == nil {
		hdr = http.Header{}
	}

	cctx := colly.NewContext()
	cctx.Put(stageKey, stage)
	if job != nil {
		cctx.Put(jobKey, job)
	}

	err := r.col.Request(http.MethodGet, rawURL, nil, cctx, hdr)
	if err == nil || cctx.GetAny(handledKey) != nil {
		return
	}

	// A repeated link is dropped; the first request owns its record.
	var visited *colly.AlreadyVisitedError
	if errors.As(err, &visited) {
		r.log.Debug("skipping revisit", logging.String("stage", stage), logging.String("url", rawURL))
		return
	}
	r.fail(stage, rawURL, job, err)
}

func (r *run) onResponse(resp *colly.Response) {
	stage := resp.Ctx.Get(stageKey)
	page := sites.NewPage(resp.Request.URL, resp.Body)
	pageURL := resp.Request.URL.String()

	switch stage {
	case stageIndex:
		lister := r.site.(sites.SectionLister)
		sections := lister.ExtractSections(page)
		r.log.Info("index parsed", logging.String("url", pageURL), logging.Int("sections", len(sections)))
		for _, u := range sections {
			r.visit(u, stageListing, r.site.FollowHeaders(pageURL), nil)
		}

	case stageListing:
		r.count(func(s *Summary) { s.ListingPages++ })
		partials := r.site.ExtractListing(page)
		r.log.Info("listing parsed", logging.String("url", pageURL), logging.Int("entries", len(partials)))
		for _, partial := range partials {
			if partial.DetailURL == "" {
				r.count(func(s *Summary) { s.NoDetail++ })
				r.emit(partial, sites.FromPartial(partial), resp.Request.URL)
				continue
			}
			job := &detailJob{partial: partial}
			r.visit(partial.DetailURL, stageDetail, r.site.FollowHeaders(pageURL), job)
		}

	case stageDetail:
		job, ok := resp.Ctx.GetAny(jobKey).(*detailJob)
		if !ok {
			r.log.Error("detail response without partial record", logging.String("url", pageURL))
			return
		}
		r.count(func(s *Summary) { s.DetailFetches++ })
		job.once.Do(func() {
			r.emit(job.partial, r.site.ExtractDetail(page, job.partial), resp.Request.URL)
		})
	}
}

func (r *run) onError(resp *colly.Response, err error) {
	resp.Ctx.Put(handledKey, true)
	job, _ := resp.Ctx.GetAny(jobKey).(*detailJob)
	r.fail(resp.Ctx.Get(stageKey), resp.Request.URL.String(), job, err)
}

// fail records a request that produced no page. A detail failure still
// emits the record the listing started, with no abstract.
func (r *run) fail(stage, rawURL string, job *detailJob, err error) {
	r.log.Warn("fetch failed",
		logging.String("stage", stage),
		logging.String("url", rawURL),
		logging.Err(err),
	)

	if stage != stageDetail {
		r.count(func(s *Summary) { s.ListingFailures++ })
		return
	}
	r.count(func(s *Summary) { s.DetailFailures++ })
	if job == nil {
		return
	}
	job.once.Do(func() {
		base, _ := url.Parse(job.partial.SourceSectionURL)
		r.emit(job.partial, sites.FromPartial(job.partial), base)
	})
}

func (r *run) emit(partial types.PartialRecord, raw types.RawPaper, base *url.URL) {
	source, year := partial.Source, partial.Year
	if source == "" {
		source = r.site.Name()
	}
	if year == "" {
		year = r.site.Year()
	}
	rec := normalize.Normalize(raw, source, year, base)

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func (r *run) count(f func(*Summary)) {
	r.mu.Lock()
	f(&r.summary)
	r.mu.Unlock()
}
