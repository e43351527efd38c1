// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate asks a Generative AI model for three keywords and one theme
// label per paper. Papers are processed strictly one at a time; a failed call
// degrades that record to a sentinel value and the run continues.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"google.golang.org/genai"

	"github.com/li4oya/paper-collect-and-analysis/internal/logging"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

// DefaultLabel is the theme label used whenever no label could be obtained.
const DefaultLabel = "未分类"

// Placeholders substituted for missing input fields.
const (
	NoTitle    = "No Title Provided"
	NoAbstract = "No Abstract Provided"
)

// Sentinel keyword values written in place of real keywords.
const (
	KeywordsNoAbstract   = "关键词提取失败 (无摘要)"
	KeywordsEmptyReply   = "关键词提取失败 (空响应)"
	KeywordsMalformed    = "关键词提取失败 (格式错误)"
	KeywordsAPIError     = "关键词提取失败 (API错误)"
	KeywordsUnknownError = "关键词提取失败 (未知错误)"
)

// ErrStreamingRequired is returned by a backend when the provider refuses a
// non-streaming call for the selected model.
var ErrStreamingRequired = errors.New("model requires stream mode")

// Backend abstracts the Generative AI API so tests can supply a mock.
// Generate sends one prompt and returns the model's raw text reply.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-success response from a provider's HTTP API.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// isAPIError reports whether err came from the provider rather than from
// transport or decoding.
func isAPIError(err error) bool {
	var apiErr *APIError
	var genaiErr genai.APIError
	return errors.Is(err, ErrStreamingRequired) ||
		errors.As(err, &apiErr) ||
		errors.As(err, &genaiErr)
}

// BatchSummary holds outcome counts from AnnotateAll.
type BatchSummary struct {
	Annotated int
	Skipped   int
	Malformed int
	Failed    int
}

// Total returns the number of records processed.
func (s BatchSummary) Total() int {
	return s.Annotated + s.Skipped + s.Malformed + s.Failed
}

// HasFailures reports whether any backend call failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

func (s *BatchSummary) add(outcome types.AnnotationOutcome) {
	switch outcome {
	case types.OutcomeSuccess:
		s.Annotated++
	case types.OutcomeSkippedNoAbstract:
		s.Skipped++
	case types.OutcomeMalformed:
		s.Malformed++
	case types.OutcomeError:
		s.Failed++
	}
}

// WriteTable renders the outcome counts as a table.
func (s BatchSummary) WriteTable(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Outcome", "Papers"})
	t.AppendRows([]table.Row{
		{"annotated", s.Annotated},
		{"skipped (no abstract)", s.Skipped},
		{"malformed reply", s.Malformed},
		{"failed", s.Failed},
	})
	t.AppendFooter(table.Row{"total", s.Total()})
	t.Render()
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Annotator runs the keyword and label prompt against one backend.
type Annotator struct {
	backend    Backend
	vocabulary string
	maxRetries int
	log        logging.Logger
}

// New returns an Annotator. vocabulary is the label file content shown to the
// model verbatim. maxRetries is the number of extra attempts after a failed
// call; 0 calls the backend once.
func New(backend Backend, vocabulary string, maxRetries int, log logging.Logger) *Annotator {
	if log == nil {
		log = logging.Nop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Annotator{
		backend:    backend,
		vocabulary: vocabulary,
		maxRetries: maxRetries,
		log:        log,
	}
}

// needsSkip reports whether a record has nothing to send to the model.
func needsSkip(p types.PaperRecord) bool {
	return !p.HasAbstract() || strings.TrimSpace(*p.Abstract) == NoAbstract
}

// Annotate produces the annotated form of one record. It never fails: errors
// are logged and recorded as sentinel keywords with the default label.
func (a *Annotator) Annotate(ctx context.Context, p types.PaperRecord) types.AnnotatedRecord {
	rec := types.AnnotatedRecord{
		PaperRecord: p,
		Outcome:     types.OutcomePending,
	}

	if needsSkip(p) {
		rec.Keywords = KeywordsNoAbstract
		rec.ThemeLabel = DefaultLabel
		rec.Outcome = types.OutcomeSkippedNoAbstract
		return rec
	}

	prompt, err := renderPrompt(p.Title, *p.Abstract, a.vocabulary)
	if err != nil {
		a.log.Error("rendering prompt", logging.String("title", p.Title), logging.Err(err))
		rec.Keywords = KeywordsUnknownError
		rec.ThemeLabel = DefaultLabel
		rec.Outcome = types.OutcomeError
		return rec
	}

	reply, err := callWithRetry(ctx, a.backend, prompt, a.maxRetries)
	if err != nil {
		rec.ThemeLabel = DefaultLabel
		rec.Outcome = types.OutcomeError
		if isAPIError(err) {
			rec.Keywords = KeywordsAPIError
			a.log.Warn("model API error", logging.String("title", p.Title), logging.Err(err))
			if errors.Is(err, ErrStreamingRequired) {
				a.log.Warn("the model only answers streamed calls; set stream: true")
			}
		} else {
			rec.Keywords = KeywordsUnknownError
			a.log.Warn("model call failed", logging.String("title", p.Title), logging.Err(err))
		}
		return rec
	}

	rec.Keywords, rec.ThemeLabel, rec.Outcome = ParseReply(reply, a.vocabulary)
	switch {
	case rec.Keywords == KeywordsEmptyReply:
		a.log.Warn("empty model reply", logging.String("title", p.Title))
	case rec.Outcome == types.OutcomeMalformed:
		a.log.Warn("unexpected reply format", logging.String("title", p.Title))
	}
	return rec
}

// AnnotateAll annotates records in order, printing one status line per record
// to w. Records keep their input order. When ctx is cancelled the records
// finished so far are returned together with ctx.Err().
func (a *Annotator) AnnotateAll(ctx context.Context, records []types.PaperRecord, w io.Writer) ([]types.AnnotatedRecord, BatchSummary, error) {
	var summary BatchSummary
	out := make([]types.AnnotatedRecord, 0, len(records))

	for i, p := range records {
		if err := ctx.Err(); err != nil {
			return out, summary, err
		}

		rec := a.Annotate(ctx, p)
		if rec.Outcome == types.OutcomeError && ctx.Err() != nil {
			return out, summary, ctx.Err()
		}

		out = append(out, rec)
		summary.add(rec.Outcome)

		n := fmt.Sprintf("[%d/%d]", i+1, len(records))
		switch rec.Outcome {
		case types.OutcomeSuccess:
			fmt.Fprintf(w, "%s annotated %s (%s)\n", n, p.Title, rec.ThemeLabel)
		case types.OutcomeSkippedNoAbstract:
			fmt.Fprintf(w, "%s skipped %s: no abstract\n", n, p.Title)
		case types.OutcomeMalformed:
			fmt.Fprintf(w, "%s malformed %s (%s)\n", n, p.Title, rec.ThemeLabel)
		default:
			fmt.Fprintf(w, "%s failed  %s: %s\n", n, p.Title, rec.Keywords)
		}
	}

	return out, summary, nil
}

// callWithRetry calls the backend with exponential backoff between attempts.
func callWithRetry(ctx context.Context, backend Backend, prompt string, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		reply, err := backend.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if maxRetries == 0 {
		return "", lastErr
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
