// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/li4oya/paper-collect-and-analysis/internal/httputil"
)

// Defaults for the OpenAI-compatible backend: DashScope compatible mode.
const (
	DefaultOpenAIBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultOpenAIModel   = "qwen3-235b-a22b"
)

// sseDone terminates a streamed completion.
const sseDone = "[DONE]"

// OpenAIBackend calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIBackend struct {
	APIKey  string
	Model   string
	BaseURL string

	// Stream requests server-sent events and concatenates the deltas.
	Stream bool

	// MaxRetries bounds retries on HTTP 429; 0 uses the httputil default.
	MaxRetries int

	Client *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Delta   chatMessage `json:"delta"`
	} `json:"choices"`
	Error *chatError `json:"error,omitempty"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Generate sends prompt as a single user message.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	model := b.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	baseURL := b.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   b.Stream,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)
	if b.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", chatStatusError(resp.StatusCode, body)
	}

	if b.Stream {
		return readStream(resp.Body)
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if cResp.Error != nil {
		return "", chatErrorValue(http.StatusOK, cResp.Error)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return cResp.Choices[0].Message.Content, nil
}

// readStream concatenates choices[0].delta.content over all data events.
func readStream(r io.Reader) (string, error) {
	var out strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == sseDone {
			break
		}
		if data == "" {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("decoding stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return "", chatErrorValue(http.StatusOK, chunk.Error)
		}
		if len(chunk.Choices) > 0 {
			out.WriteString(chunk.Choices[0].Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stream: %w", err)
	}
	return out.String(), nil
}

// chatStatusError converts a non-200 response into an error, preferring the
// provider's structured error body when present.
func chatStatusError(status int, body []byte) error {
	var cResp chatResponse
	if err := json.Unmarshal(body, &cResp); err == nil && cResp.Error != nil {
		return chatErrorValue(status, cResp.Error)
	}
	return &APIError{Provider: "chat completions", StatusCode: status, Body: string(body)}
}

func chatErrorValue(status int, e *chatError) error {
	apiErr := &APIError{Provider: "chat completions", StatusCode: status, Body: e.Message}
	if mentionsStream(e.Message) || mentionsStream(e.Code) {
		return fmt.Errorf("%w: %w", ErrStreamingRequired, apiErr)
	}
	return apiErr
}

// streamRequired matches the provider wording for models that refuse
// non-streaming calls, e.g. "only support stream mode" or a
// "stream_mode_required" style code.
var streamRequired = regexp.MustCompile(`(?i)\bonly\s+supports?\s+stream|\bstream(ing)?[\s_-]+(mode|parameter|required)`)

func mentionsStream(s string) bool {
	return streamRequired.MatchString(s)
}
