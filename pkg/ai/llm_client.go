package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/metrics"
)

// maxPromptChars bounds document text sent to the model.
const maxPromptChars = 24000

type ChatRequest struct {
	System      string
	User        string
	Temperature float64
	JSON        bool
	MaxTokens   int
}

// Completer is one chat-completion backend.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

type llmClient struct {
	c       Completer
	prompts Prompts
	log     *zap.Logger
}

// New wraps a completer with the prompt catalog and reply parsing.
func New(c Completer, prompts Prompts, log *zap.Logger) Client {
	if prompts == nil {
		prompts = MustDefaultPrompts()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &llmClient{c: c, prompts: prompts, log: log.Named("ai")}
}

func (l *llmClient) Name() string { return l.c.Name() }

var categoryFields = map[string][]string{
	entities.CategoryProject: {"client_name", "location", "start_date", "end_date", "status"},
	entities.CategoryOffer:   {"client_name", "deadline", "value (number)", "currency (ISO code)", "offer_status (pending|won|lost)"},
	entities.CategoryMethod:  {"domain", "steps (list)"},
	entities.CategoryClient:  {"industry", "website"},
	entities.CategoryPerson:  {"role", "email", "phone", "expertise (list)"},
}

func (l *llmClient) complete(ctx context.Context, op string, data any) (out string, err error) {
	defer metrics.ObserveAI(op, time.Now(), &err)
	req, err := l.prompts.Render(op, data)
	if err != nil {
		return "", err
	}
	out, err = l.c.Complete(ctx, req)
	if err != nil {
		l.log.Warn("llm call failed", zap.String("op", op), zap.String("provider", l.c.Name()), zap.Error(err))
		return "", err
	}
	return out, nil
}

func decodeObject(op, raw string, v any) error {
	js := ExtractJSON(raw)
	if js == "" {
		return NewFatalError(fmt.Errorf("%s: no JSON object in reply", op))
	}
	if err := json.Unmarshal([]byte(js), v); err != nil {
		return NewFatalError(fmt.Errorf("%s: parse reply: %w", op, err))
	}
	return nil
}

func (l *llmClient) SummarizeDocument(ctx context.Context, category, filename, text string) (*EntrySuggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewFatalError(errors.New("document has no text"))
	}
	raw, err := l.complete(ctx, OpSummarizeDocument, map[string]any{
		"Category": category,
		"Filename": filename,
		"Fields":   categoryFields[category],
		"Text":     truncateForPrompt(text, maxPromptChars),
	})
	if err != nil {
		return nil, err
	}
	var s EntrySuggestion
	if err := decodeObject(OpSummarizeDocument, raw, &s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Title) == "" {
		s.Title = titleFromFilename(filename)
	}
	return &s, nil
}

func (l *llmClient) AnalyzeTender(ctx context.Context, text string) (*TenderBrief, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewFatalError(errors.New("tender has no text"))
	}
	raw, err := l.complete(ctx, OpAnalyzeTender, map[string]any{"Text": truncateForPrompt(text, maxPromptChars)})
	if err != nil {
		return nil, err
	}
	var b TenderBrief
	if err := decodeObject(OpAnalyzeTender, raw, &b); err != nil {
		return nil, err
	}
	if strings.TrimSpace(b.Summary) == "" && len(b.Requirements) == 0 {
		return nil, NewFatalError(errors.New("analyze_tender: empty brief"))
	}
	return &b, nil
}

func (l *llmClient) OutlineOffer(ctx context.Context, oc OfferContext) ([]string, error) {
	raw, err := l.complete(ctx, OpOutlineOffer, oc)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Sections []string `json:"sections"`
	}
	if js := ExtractJSON(raw); js != "" {
		_ = json.Unmarshal([]byte(js), &payload)
	}
	if len(payload.Sections) == 0 {
		if arr := ExtractJSONArray(raw); arr != "" {
			if err := json.Unmarshal([]byte(arr), &payload.Sections); err != nil {
				return nil, NewFatalError(fmt.Errorf("outline_offer: parse reply: %w", err))
			}
		}
	}
	sections := make([]string, 0, len(payload.Sections))
	for _, s := range payload.Sections {
		s = strings.TrimSpace(strings.TrimLeft(s, "#- "))
		if s != "" {
			sections = append(sections, s)
		}
	}
	if len(sections) == 0 {
		return nil, NewFatalError(errors.New("outline_offer: no sections in reply"))
	}
	return sections, nil
}

func (l *llmClient) DraftOffer(ctx context.Context, oc OfferContext) (string, error) {
	raw, err := l.complete(ctx, OpDraftOffer, oc)
	if err != nil {
		return "", err
	}
	md := StripFence(raw)
	if md == "" {
		return "", NewFatalError(errors.New("draft_offer: empty reply"))
	}
	return md, nil
}

func (l *llmClient) Rewrite(ctx context.Context, text, instruction string) (string, error) {
	raw, err := l.complete(ctx, OpRewrite, map[string]any{"Text": text, "Instruction": instruction})
	if err != nil {
		return "", err
	}
	out := StripFence(raw)
	if out == "" {
		return "", NewFatalError(errors.New("rewrite: empty reply"))
	}
	return out, nil
}

func titleFromFilename(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}
