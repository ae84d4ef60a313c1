// pkg/ai/openai_client.go

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxResponseSize = 10 << 20

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	url   string
	key   string
	model string
	httpc *http.Client
	retry RetryConfig
	log   *zap.Logger
}

type OpenAIOption func(*OpenAI)

func WithHTTPClient(c *http.Client) OpenAIOption { return func(o *OpenAI) { o.httpc = c } }
func WithRetry(cfg RetryConfig) OpenAIOption     { return func(o *OpenAI) { o.retry = cfg } }
func WithLogger(l *zap.Logger) OpenAIOption      { return func(o *OpenAI) { o.log = l } }

func NewOpenAI(endpoint, key, model string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		url:   completionsURL(endpoint),
		key:   key,
		model: model,
		httpc: &http.Client{Timeout: 90 * time.Second},
		retry: DefaultRetryConfig(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func completionsURL(endpoint string) string {
	base := strings.TrimRight(endpoint, "/")
	switch {
	case strings.HasSuffix(base, "/chat/completions"):
		return base
	case strings.HasSuffix(base, "/v1"):
		return base + "/chat/completions"
	default:
		return base + "/v1/chat/completions"
	}
}

func (o *OpenAI) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

func (o *OpenAI) Complete(ctx context.Context, req ChatRequest) (string, error) {
	body := chatReq{
		Model:       o.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})
	if req.JSON {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", NewFatalError(fmt.Errorf("encode request: %w", err))
	}
	return withRetry(ctx, o.retry, o.log, func() (string, error) { return o.do(ctx, b) })
}

func (o *OpenAI) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if o.key != "" {
		req.Header.Set("Authorization", "Bearer "+o.key)
	}

	resp, err := o.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewTransientError(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, raw)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", NewFatalError(fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", NewFatalError(errors.New("no choices"))
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", NewFatalError(errors.New("empty completion"))
	}
	return content, nil
}

// classifyHTTPError marks 429 and 5xx as transient, everything else fatal.
func classifyHTTPError(status int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	err := fmt.Errorf("llm api error (status %d): %s", status, msg)
	if status == http.StatusTooManyRequests || status >= 500 {
		return NewTransientError(err)
	}
	return NewFatalError(err)
}
