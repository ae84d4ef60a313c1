package embedder

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GenAI embeds through the Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, errors.New("genai api key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (e *GenAI) Name() string { return "genai:" + e.model }

func (e *GenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, errors.New("genai embed: result count mismatch")
	}
	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
