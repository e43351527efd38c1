// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/li4oya/paper-collect-and-analysis/internal/httputil"
	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

const testVocabulary = "Web安全\n系统安全\n密码学\n隐私保护"

const wellFormedReply = `Fuzzing (模糊测试) - 自动化漏洞发现
Kernel (内核) - 操作系统核心
Coverage (覆盖率) - 测试完整性度量

系统安全`

// --- mock backends ---

type mockBackend struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (m *mockBackend) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	failures  int
	callCount int
	reply     string
}

func (f *failNTimesBackend) Generate(_ context.Context, _ string) (string, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return "", fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return f.reply, nil
}

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

func strPtr(s string) *string { return &s }

func paper(title string, abstract *string) types.PaperRecord {
	return types.PaperRecord{
		Title:    title,
		Authors:  "Alice, Bob",
		Abstract: abstract,
		Year:     "2024",
		Source:   "usenix",
	}
}

// --- ParseReply ---

func TestParseReply(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		wantKeywords string
		wantLabel    string
		wantOutcome  types.AnnotationOutcome
	}{
		{
			name:         "three keywords and a label",
			reply:        wellFormedReply,
			wantKeywords: "Fuzzing (模糊测试) - 自动化漏洞发现\nKernel (内核) - 操作系统核心\nCoverage (覆盖率) - 测试完整性度量",
			wantLabel:    "系统安全",
			wantOutcome:  types.OutcomeSuccess,
		},
		{
			name:         "more than four lines keeps all but the last as keywords",
			reply:        "a\nb\nc\nd\nlabel",
			wantKeywords: "a\nb\nc\nd",
			wantLabel:    "label",
			wantOutcome:  types.OutcomeSuccess,
		},
		{
			name:         "label outside vocabulary accepted for well-formed reply",
			reply:        "a\nb\nc\n量子计算",
			wantKeywords: "a\nb\nc",
			wantLabel:    "量子计算",
			wantOutcome:  types.OutcomeSuccess,
		},
		{
			name:         "whitespace and blank lines trimmed",
			reply:        "\n\n   a  \n\n b\t\n c \n  密码学  \n\n",
			wantKeywords: "a\nb\nc",
			wantLabel:    "密码学",
			wantOutcome:  types.OutcomeSuccess,
		},
		{
			name:         "two lines with known label",
			reply:        "only keyword\nWeb安全",
			wantKeywords: "only keyword",
			wantLabel:    "Web安全",
			wantOutcome:  types.OutcomeMalformed,
		},
		{
			name:         "single line that is a label",
			reply:        "隐私保护",
			wantKeywords: KeywordsMalformed,
			wantLabel:    "隐私保护",
			wantOutcome:  types.OutcomeMalformed,
		},
		{
			name:         "label match is a substring check",
			reply:        "k1\n安全",
			wantKeywords: "k1",
			wantLabel:    "安全",
			wantOutcome:  types.OutcomeMalformed,
		},
		{
			name:         "short reply without known label",
			reply:        "k1\nk2\nk3",
			wantKeywords: "k1\nk2\nk3",
			wantLabel:    DefaultLabel,
			wantOutcome:  types.OutcomeMalformed,
		},
		{
			name:         "empty reply",
			reply:        "",
			wantKeywords: KeywordsEmptyReply,
			wantLabel:    DefaultLabel,
			wantOutcome:  types.OutcomeMalformed,
		},
		{
			name:         "whitespace-only reply",
			reply:        "  \n \t\n",
			wantKeywords: KeywordsEmptyReply,
			wantLabel:    DefaultLabel,
			wantOutcome:  types.OutcomeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keywords, label, outcome := ParseReply(tt.reply, testVocabulary)
			assert.Equal(t, tt.wantKeywords, keywords)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantOutcome, outcome)
		})
	}
}

// --- renderPrompt ---

func TestRenderPrompt(t *testing.T) {
	got, err := renderPrompt("Fuzzing Kernels", "We fuzz <kernels> & drivers.", testVocabulary)
	require.NoError(t, err)

	assert.Contains(t, got, "你是一个网络安全领域的科研导师")
	assert.Contains(t, got, "Title: Fuzzing Kernels\n")
	assert.Contains(t, got, "Abstract: We fuzz <kernels> & drivers.\n")
	assert.Contains(t, got, "\n"+testVocabulary+"\n")
	assert.Contains(t, got, "`关键词 (中文翻译)`")
	assert.True(t, strings.HasSuffix(got, "选定的主题标签名称\n"))
}

// --- Annotate ---

func TestAnnotate_SkipsWithoutAbstract(t *testing.T) {
	tests := []struct {
		name     string
		abstract *string
	}{
		{"nil abstract", nil},
		{"blank abstract", strPtr("   ")},
		{"placeholder abstract", strPtr(NoAbstract)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{reply: wellFormedReply}
			a := New(backend, testVocabulary, 0, nil)

			rec := a.Annotate(context.Background(), paper("T", tt.abstract))

			assert.Equal(t, 0, backend.calls)
			assert.Equal(t, KeywordsNoAbstract, rec.Keywords)
			assert.Equal(t, DefaultLabel, rec.ThemeLabel)
			assert.Equal(t, types.OutcomeSkippedNoAbstract, rec.Outcome)
			assert.Equal(t, tt.abstract, rec.Abstract)
		})
	}
}

func TestAnnotate_Success(t *testing.T) {
	backend := &mockBackend{reply: wellFormedReply}
	a := New(backend, testVocabulary, 0, nil)

	p := paper("Kernel Fuzzing", strPtr("An abstract."))
	rec := a.Annotate(context.Background(), p)

	require.Equal(t, 1, backend.calls)
	assert.Contains(t, backend.prompts[0], "Title: Kernel Fuzzing")
	assert.Contains(t, backend.prompts[0], "Abstract: An abstract.")
	assert.Equal(t, "系统安全", rec.ThemeLabel)
	assert.Equal(t, types.OutcomeSuccess, rec.Outcome)
	assert.Equal(t, p, rec.PaperRecord)
}

func TestAnnotate_BackendErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantKeywords string
	}{
		{
			name:         "HTTP API error",
			err:          &APIError{Provider: "test", StatusCode: 500, Body: "boom"},
			wantKeywords: KeywordsAPIError,
		},
		{
			name:         "streaming required",
			err:          fmt.Errorf("%w: %w", ErrStreamingRequired, &APIError{StatusCode: 400}),
			wantKeywords: KeywordsAPIError,
		},
		{
			name:         "genai API error",
			err:          fmt.Errorf("gemini API call failed: %w", genai.APIError{Code: 400, Message: "bad"}),
			wantKeywords: KeywordsAPIError,
		},
		{
			name:         "transport error",
			err:          errors.New("connection refused"),
			wantKeywords: KeywordsUnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{err: tt.err}
			a := New(backend, testVocabulary, 0, nil)

			rec := a.Annotate(context.Background(), paper("T", strPtr("abs")))

			assert.Equal(t, 1, backend.calls)
			assert.Equal(t, tt.wantKeywords, rec.Keywords)
			assert.Equal(t, DefaultLabel, rec.ThemeLabel)
			assert.Equal(t, types.OutcomeError, rec.Outcome)
		})
	}
}

func TestAnnotate_RetriesWhenConfigured(t *testing.T) {
	backend := &failNTimesBackend{failures: 2, reply: wellFormedReply}
	a := New(backend, testVocabulary, 2, nil)

	rec := a.Annotate(context.Background(), paper("T", strPtr("abs")))

	assert.Equal(t, 3, backend.callCount)
	assert.Equal(t, types.OutcomeSuccess, rec.Outcome)
}

func TestAnnotate_NoRetryByDefault(t *testing.T) {
	backend := &failNTimesBackend{failures: 1, reply: wellFormedReply}
	a := New(backend, testVocabulary, 0, nil)

	rec := a.Annotate(context.Background(), paper("T", strPtr("abs")))

	assert.Equal(t, 1, backend.callCount)
	assert.Equal(t, KeywordsUnknownError, rec.Keywords)
}

// --- AnnotateAll ---

func TestAnnotateAll(t *testing.T) {
	backend := &mockBackend{reply: wellFormedReply}
	a := New(backend, testVocabulary, 0, nil)

	in := []types.PaperRecord{
		paper("First", strPtr("abs one")),
		paper("Second", nil),
		paper("Third", strPtr("abs three")),
	}

	var buf bytes.Buffer
	out, summary, err := a.AnnotateAll(context.Background(), in, &buf)
	require.NoError(t, err)

	require.Len(t, out, 3)
	for i := range in {
		assert.Equal(t, in[i].Title, out[i].Title)
	}
	assert.Equal(t, 2, backend.calls)
	assert.Equal(t, BatchSummary{Annotated: 2, Skipped: 1}, summary)
	assert.Equal(t, 3, summary.Total())
	assert.False(t, summary.HasFailures())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[1/3] annotated First (系统安全)",
		"[2/3] skipped Second: no abstract",
		"[3/3] annotated Third (系统安全)",
	}, lines)
}

func TestAnnotateAll_ContinuesAfterFailure(t *testing.T) {
	backend := &mockBackend{err: errors.New("down")}
	a := New(backend, testVocabulary, 0, nil)

	in := []types.PaperRecord{paper("A", strPtr("x")), paper("B", strPtr("y"))}

	var buf bytes.Buffer
	out, summary, err := a.AnnotateAll(context.Background(), in, &buf)
	require.NoError(t, err)

	assert.Len(t, out, 2)
	assert.Equal(t, 2, summary.Failed)
	assert.True(t, summary.HasFailures())
	assert.Contains(t, buf.String(), "failed  A: "+KeywordsUnknownError)
}

func TestAnnotateAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &mockBackend{reply: wellFormedReply}
	a := New(backend, testVocabulary, 0, nil)

	out, _, err := a.AnnotateAll(ctx, []types.PaperRecord{paper("A", strPtr("x"))}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out)
	assert.Equal(t, 0, backend.calls)
}

func TestBatchSummaryWriteTable(t *testing.T) {
	var buf bytes.Buffer
	BatchSummary{Annotated: 3, Skipped: 1, Failed: 2}.WriteTable(&buf)

	out := buf.String()
	assert.Contains(t, out, "annotated")
	assert.Contains(t, out, "skipped (no abstract)")
	assert.Contains(t, strings.ToLower(out), "total")
	assert.Contains(t, out, "6")
}
