package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Gemini is a Completer backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	retry  RetryConfig
	log    *zap.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{client: client, model: model, retry: DefaultRetryConfig(), log: log}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, req ChatRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return withRetry(ctx, g.retry, g.log, func() (string, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), cfg)
		if err != nil {
			return "", classifyGenAIError(ctx, err)
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", NewFatalError(errors.New("empty completion"))
		}
		return text, nil
	})
}

func classifyGenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return NewTransientError(err)
		}
		return NewFatalError(err)
	}
	// no status: network level
	return NewTransientError(err)
}
