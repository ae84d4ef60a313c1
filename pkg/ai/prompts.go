package ai

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

const (
	OpSummarizeDocument = "summarize_document"
	OpAnalyzeTender     = "analyze_tender"
	OpOutlineOffer      = "outline_offer"
	OpDraftOffer        = "draft_offer"
	OpRewrite           = "rewrite"
)

var requiredOps = []string{OpSummarizeDocument, OpAnalyzeTender, OpOutlineOffer, OpDraftOffer, OpRewrite}

// Prompt is one catalog entry. User is a text/template.
type Prompt struct {
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
	Temperature float64 `yaml:"temperature"`
	JSON        bool    `yaml:"json"`
	MaxTokens   int     `yaml:"max_tokens"`

	tmpl *template.Template
}

type Prompts map[string]*Prompt

const briefPartial = `TENDER: {{.Analysis.Title}}
CLIENT: {{.Analysis.ClientName}}
{{- with .Analysis.Deadline}}
DEADLINE: {{date .}}
{{- end}}

SUMMARY:
{{.Analysis.Summary}}
{{with .Analysis.Requirements}}
REQUIREMENTS:
{{range .}}- {{.}}
{{end}}{{end}}
{{- with .Analysis.EvaluationCriteria}}
EVALUATION CRITERIA:
{{range .}}- {{.}}
{{end}}{{end}}
{{- with .Analysis.Deliverables}}
DELIVERABLES:
{{range .}}- {{.}}
{{end}}{{end}}
{{- with .Analysis.Outline}}
OUTLINE:
{{range .}}- {{.}}
{{end}}{{end}}
OUR KNOWLEDGE:
{{range .Knowledge}}- [{{.Category}}] {{.Title}}: {{or .Summary .Description}}
{{else}}(none selected)
{{end}}`

var funcs = template.FuncMap{
	"join": strings.Join,
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
}

// LoadPrompts returns the embedded catalog, or the file at path when set.
// Every operation must be present.
func LoadPrompts(path string) (Prompts, error) {
	raw := defaultPrompts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompts: %w", err)
		}
		raw = b
	}
	return ParsePrompts(raw)
}

func ParsePrompts(raw []byte) (Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	for _, op := range requiredOps {
		pr, ok := p[op]
		if !ok || pr == nil || strings.TrimSpace(pr.User) == "" {
			return nil, fmt.Errorf("prompt %q missing", op)
		}
		t, err := template.New(op).Funcs(funcs).Parse(pr.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", op, err)
		}
		if _, err := t.New("brief").Parse(briefPartial); err != nil {
			return nil, err
		}
		pr.tmpl = t
	}
	return p, nil
}

// MustDefaultPrompts is the embedded catalog; it panics only if the
// embedded file is broken.
func MustDefaultPrompts() Prompts {
	p, err := ParsePrompts(defaultPrompts)
	if err != nil {
		panic(err)
	}
	return p
}

// Render builds the chat request for op.
func (p Prompts) Render(op string, data any) (ChatRequest, error) {
	pr, ok := p[op]
	if !ok || pr.tmpl == nil {
		return ChatRequest{}, fmt.Errorf("prompt %q missing", op)
	}
	var sb strings.Builder
	if err := pr.tmpl.Execute(&sb, data); err != nil {
		return ChatRequest{}, fmt.Errorf("render %s: %w", op, err)
	}
	return ChatRequest{
		System:      strings.TrimSpace(pr.System),
		User:        strings.TrimSpace(sb.String()),
		Temperature: pr.Temperature,
		JSON:        pr.JSON,
		MaxTokens:   pr.MaxTokens,
	}, nil
}
