// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sites

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

func newSite(t *testing.T, name types.Source) Site {
	t.Helper()
	s, err := New(types.SiteConfig{Name: name}, logging.Nop())
	require.NoError(t, err)
	return s
}

func page(t *testing.T, rawURL, body string) *Page {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return NewPage(u, []byte(body))
}

// --- registry ---

func TestNames(t *testing.T) {
	assert.Equal(t,
		[]types.Source{types.SourceAAAI, types.SourceCCS, types.SourceNDSS, types.SourceUSENIX},
		Names())
}

func TestNewUnknownSite(t *testing.T) {
	_, err := New(types.SiteConfig{Name: "iclr"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSite))
}

func TestNewAppliesOverrides(t *testing.T) {
	s, err := New(types.SiteConfig{
		Name:           "USENIX",
		Year:           "2025",
		StartURLs:      []string{"http://127.0.0.1/list"},
		AllowedDomains: []string{"127.0.0.1"},
		Headers:        map[string]string{"accept-language": "en"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, types.SourceUSENIX, s.Name())
	assert.Equal(t, "2025", s.Year())
	assert.Equal(t, []string{"127.0.0.1"}, s.AllowedDomains())

	reqs := s.StartRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "http://127.0.0.1/list", reqs[0].URL)
	assert.Equal(t, "en", reqs[0].Headers.Get("Accept-Language"))
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		name types.Source
		year string
	}{
		{types.SourceAAAI, "2025"},
		{types.SourceUSENIX, "2024"},
		{types.SourceNDSS, "2024"},
		{types.SourceCCS, "2023"},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			s := newSite(t, tt.name)
			assert.Equal(t, tt.year, s.Year())
			assert.NotEmpty(t, s.StartRequests())
			assert.NotEmpty(t, s.AllowedDomains())
		})
	}
}

// --- aaai ---

const aaaiIndex = `<html><body>
<div class="archive-description">
  <a href="https://ojs.aaai.org/index.php/AAAI/issue/view/624">AAAI-25 Technical Tracks 1</a>
  <a>no href</a>
  <a href="/proceeding/track-2">Track 2</a>
</div>
</body></html>`

const aaaiListing = `<html><body>
<ul class="cmp_article_list articles">
  <li>
    <div class="obj_article_summary">
      <h3 class="title"><a href="/index.php/AAAI/article/view/32001">
        Learning   to Plan
      </a></h3>
      <div class="meta"><div class="authors">
        <span>Alice Zhang</span>
        <span>Bob Li</span>
      </div></div>
      <ul class="galleys_links"><li><a class="obj_galley_link pdf" href="/index.php/AAAI/article/view/32001/34156">PDF</a></li></ul>
    </div>
  </li>
  <li><p>advertisement</p></li>
  <li>
    <div class="obj_article_summary">
      <h3 class="title"><a>Orphan Paper</a></h3>
      <div class="meta"><div class="authors">Carol</div></div>
    </div>
  </li>
</ul>
</body></html>`

func TestAAAIStartRequestHasEmptyUserAgent(t *testing.T) {
	reqs := newSite(t, types.SourceAAAI).StartRequests()
	require.Len(t, reqs, 1)
	ua, present := reqs[0].Headers["User-Agent"]
	assert.True(t, present)
	assert.Equal(t, []string{""}, ua)
}

func TestAAAIFollowHeaders(t *testing.T) {
	h := newSite(t, types.SourceAAAI).FollowHeaders("https://aaai.org/proceeding/aaai-39-2025/")
	assert.Contains(t, h.Get("User-Agent"), "Chrome/113")
	assert.Equal(t, "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7", h.Get("Accept-Language"))
	assert.Equal(t, "https://aaai.org/proceeding/aaai-39-2025/", h.Get("Referer"))
}

func TestAAAIExtractSections(t *testing.T) {
	s := newSite(t, types.SourceAAAI)
	lister, ok := s.(SectionLister)
	require.True(t, ok)

	got := lister.ExtractSections(page(t, "https://aaai.org/proceeding/aaai-39-2025/", aaaiIndex))
	assert.Equal(t, []string{
		"https://ojs.aaai.org/index.php/AAAI/issue/view/624",
		"https://aaai.org/proceeding/track-2",
	}, got)
}

func TestAAAIExtractListing(t *testing.T) {
	s := newSite(t, types.SourceAAAI)
	listURL := "https://ojs.aaai.org/index.php/AAAI/issue/view/624"

	got := s.ExtractListing(page(t, listURL, aaaiListing))
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "Learning   to Plan", first.Title)
	assert.Equal(t, "https://ojs.aaai.org/index.php/AAAI/article/view/32001", first.DetailURL)
	assert.Equal(t, "Alice Zhang、Bob Li", first.Authors)
	assert.Equal(t, "https://ojs.aaai.org/index.php/AAAI/article/view/32001/34156", first.PDFLink)
	assert.Equal(t, listURL, first.SourceSectionURL)
	assert.Equal(t, "2025", first.Year)
	assert.Equal(t, types.SourceAAAI, first.Source)

	orphan := got[1]
	assert.Equal(t, "Orphan Paper", orphan.Title)
	assert.Empty(t, orphan.DetailURL)
	assert.Empty(t, orphan.PDFLink)
}

func TestAAAIExtractListingEmpty(t *testing.T) {
	s := newSite(t, types.SourceAAAI)
	assert.Empty(t, s.ExtractListing(page(t, "https://ojs.aaai.org/x", "<html><body></body></html>")))
}

func TestAAAIExtractDetail(t *testing.T) {
	s := newSite(t, types.SourceAAAI)
	partial := types.PartialRecord{Title: "T", Authors: "A", PDFLink: "https://ojs.aaai.org/p.pdf"}

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "text directly in section",
			body: `<section class="item abstract"><h2 class="label">Abstract</h2>
				We study   planning.
			</section>`,
			want: "Abstract We study   planning.",
		},
		{
			name: "text inside paragraphs",
			body: `<section class="item abstract"><p>First part.</p><p> Second part. </p></section>`,
			want: "First part. Second part.",
		},
		{
			name: "missing section",
			body: `<div class="main"></div>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := s.ExtractDetail(page(t, "https://ojs.aaai.org/index.php/AAAI/article/view/1", tt.body), partial)
			assert.Equal(t, tt.want, raw.Abstract)
			assert.Equal(t, "T", raw.Title)
			assert.Equal(t, "A", raw.Authors)
			assert.Equal(t, "https://ojs.aaai.org/p.pdf", raw.PDFLink)
		})
	}
}

// --- usenix ---

const usenixListing = `<html><body>
<article class="node node-paper view-mode-schedule">
  <h2><a href="/conference/usenixsecurity24/presentation/smith">Fuzzing the Kernel</a></h2>
</article>
<article class="node node-paper view-mode-schedule">
  <h2>Withdrawn</h2>
</article>
<article class="node node-paper view-mode-schedule">
  <h2><a href="/conference/usenixsecurity24/presentation/jones">   </a></h2>
</article>
</body></html>`

func TestUSENIXExtractListing(t *testing.T) {
	s := newSite(t, types.SourceUSENIX)
	got := s.ExtractListing(page(t, "https://www.usenix.org/conference/usenixsecurity24/fall-accepted-papers", usenixListing))

	require.Len(t, got, 1)
	assert.Equal(t, "Fuzzing the Kernel", got[0].Title)
	assert.Equal(t, "https://www.usenix.org/conference/usenixsecurity24/presentation/smith", got[0].DetailURL)
	assert.Equal(t, types.SourceUSENIX, got[0].Source)
}

func TestUSENIXExtractDetail(t *testing.T) {
	s := newSite(t, types.SourceUSENIX)
	detailURL := "https://www.usenix.org/conference/usenixsecurity24/presentation/smith"
	partial := types.PartialRecord{Title: "Fuzzing the Kernel", DetailURL: detailURL}

	tests := []struct {
		name         string
		body         string
		wantAuthors  string
		wantAbstract string
		wantPDF      string
	}{
		{
			name: "primary pdf selector",
			body: `<div class="field-name-field-paper-people-text"><p>Alice, <em>MIT</em>; Bob</p></div>
				<div class="field-name-field-paper-description"><p>We fuzz.</p><p>It works.</p></div>
				<span class="usenix-schedule-media pdf"><a href="/system/files/sec24-smith.pdf">PDF</a></span>
				<div class="field-name-field-final-paper-pdf"><a href="/fallback.pdf">Paper</a></div>`,
			wantAuthors:  "Alice, MIT ; Bob",
			wantAbstract: "We fuzz. It works.",
			wantPDF:      "https://www.usenix.org/system/files/sec24-smith.pdf",
		},
		{
			name: "fallback pdf selector when primary missing",
			body: `<div class="field-name-field-paper-description">Abstract text.</div>
				<div class="field-name-field-final-paper-pdf"><a href="/system/files/final.pdf">Paper</a></div>`,
			wantAuthors:  "",
			wantAbstract: "Abstract text.",
			wantPDF:      "https://www.usenix.org/system/files/final.pdf",
		},
		{
			name:        "no pdf at all",
			body:        `<div class="field-name-field-paper-people-text">Carol</div>`,
			wantAuthors: "Carol",
			wantPDF:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := s.ExtractDetail(page(t, detailURL, tt.body), partial)
			assert.Equal(t, "Fuzzing the Kernel", raw.Title)
			assert.Equal(t, tt.wantAuthors, raw.Authors)
			assert.Equal(t, tt.wantAbstract, raw.Abstract)
			assert.Equal(t, tt.wantPDF, raw.PDFLink)
		})
	}
}

// --- ndss ---

const ndssListing = `<html><body>
<div class="tag-box rel-paper"><a class="paper-link-abs" href="https://www.ndss-symposium.org/ndss-paper/alpha/">More</a></div>
<div class="tag-box rel-paper"><span>no link</span></div>
<div class="tag-box rel-paper"><a class="paper-link-abs" href="/ndss-paper/beta/">More</a></div>
</body></html>`

func TestNDSSExtractListing(t *testing.T) {
	s := newSite(t, types.SourceNDSS)
	got := s.ExtractListing(page(t, "https://www.ndss-symposium.org/ndss2024/accepted-papers/", ndssListing))

	require.Len(t, got, 2)
	assert.Equal(t, "https://www.ndss-symposium.org/ndss-paper/alpha/", got[0].DetailURL)
	assert.Equal(t, "https://www.ndss-symposium.org/ndss-paper/beta/", got[1].DetailURL)
	assert.Empty(t, got[0].Title)
	assert.Equal(t, "2024", got[1].Year)
}

func TestNDSSExtractDetail(t *testing.T) {
	s := newSite(t, types.SourceNDSS)
	detailURL := "https://www.ndss-symposium.org/ndss-paper/alpha/"

	tests := []struct {
		name         string
		body         string
		wantTitle    string
		wantAuthors  string
		wantAbstract string
		wantPDF      string
	}{
		{
			name: "full page with primary pdf",
			body: `<h1 class="entry-title">Alpha: Side Channels<span class="badge">Distinguished</span></h1>
				<div class="paper-data">
					<p><strong>Ann Lee (CMU), Ben Park (KAIST)</strong></p>
					<p>We show <em>leakage</em>.</p>
					<p>It is bad.</p>
				</div>
				<div class="paper-buttons">
					<a href="https://www.ndss-symposium.org/wp-content/uploads/2024-1-slides.pdf">Slides</a>
					<a href="https://www.ndss-symposium.org/wp-content/uploads/2024-1-paper.pdf">Paper</a>
				</div>`,
			wantTitle:    "Alpha: Side Channels",
			wantAuthors:  "Ann Lee (CMU), Ben Park (KAIST)",
			wantAbstract: "We show leakage . It is bad.",
			wantPDF:      "https://www.ndss-symposium.org/wp-content/uploads/2024-1-paper.pdf",
		},
		{
			name: "fallback pdf selector",
			body: `<h1 class="entry-title">Beta</h1>
				<div class="paper-data"><p><strong>Cy</strong> Abstract here.</p></div>
				<div class="paper-buttons"><a href="/uploads/beta-final.pdf">PDF</a></div>`,
			wantTitle:    "Beta",
			wantAuthors:  "Cy",
			wantAbstract: "Abstract here.",
			wantPDF:      "https://www.ndss-symposium.org/uploads/beta-final.pdf",
		},
		{
			name:      "empty page",
			body:      `<html></html>`,
			wantTitle: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := s.ExtractDetail(page(t, detailURL, tt.body), types.PartialRecord{DetailURL: detailURL})
			assert.Equal(t, tt.wantTitle, raw.Title)
			assert.Equal(t, tt.wantAuthors, raw.Authors)
			assert.Equal(t, tt.wantAbstract, raw.Abstract)
			assert.Equal(t, tt.wantPDF, raw.PDFLink)
		})
	}
}

// --- ccs ---

const dblpBody = `{"result":{"hits":{"@total":"3","hit":[
 {"info":{"title":"Proceedings of the 2023 ACM SIGSAC Conference on Computer and Communications Security, CCS 2023.","type":"Editorship","ee":"https://doi.org/10.1145/3576915"}},
 {"info":{"authors":{"author":[{"@pid":"1/1","text":"Wei Wang 0001"},{"@pid":"2/2","text":"Li Chen"}]},"title":"Secure Aggregation Revisited.","type":"Conference and Workshop Papers","ee":"https://doi.org/10.1145/3576915.3623001"}},
 {"info":{"authors":{"author":{"@pid":"3/3","text":"Solo Author"}},"title":"One Author Paper.","type":"Conference and Workshop Papers","ee":["https://doi.org/10.1145/3576915.3623002","https://eprint.iacr.org/x"]}}
]}}}`

func TestCCSExtractListing(t *testing.T) {
	s := newSite(t, types.SourceCCS)
	got := s.ExtractListing(page(t, "https://dblp.org/search/publ/api?format=json", dblpBody))

	require.Len(t, got, 2)
	assert.Equal(t, "Secure Aggregation Revisited", got[0].Title)
	assert.Equal(t, "Wei Wang, Li Chen", got[0].Authors)
	assert.Equal(t, "https://doi.org/10.1145/3576915.3623001", got[0].PDFLink)
	assert.Empty(t, got[0].DetailURL)
	assert.Equal(t, types.SourceCCS, got[0].Source)

	assert.Equal(t, "One Author Paper", got[1].Title)
	assert.Equal(t, "Solo Author", got[1].Authors)
	assert.Equal(t, "https://doi.org/10.1145/3576915.3623002", got[1].PDFLink)
}

func TestCCSExtractListingBadJSON(t *testing.T) {
	s := newSite(t, types.SourceCCS)
	assert.Empty(t, s.ExtractListing(page(t, "https://dblp.org/search/publ/api", "<html>oops</html>")))
}

func TestFromPartial(t *testing.T) {
	raw := FromPartial(types.PartialRecord{Title: "T", Authors: "A", PDFLink: "P", DetailURL: "D"})
	assert.Equal(t, types.RawPaper{Title: "T", Authors: "A", PDFLink: "P"}, raw)
}
