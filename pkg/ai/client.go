// pkg/ai/client.go

package ai

import (
	"context"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

// Client is what the services need from a language model. Implementations
// build prompts from the catalog and parse structured replies.
type Client interface {
	Name() string

	// SummarizeDocument turns document text into a proposed knowledge entry
	// of the given category.
	SummarizeDocument(ctx context.Context, category, filename, text string) (*EntrySuggestion, error)

	// AnalyzeTender extracts the brief of a tender document.
	AnalyzeTender(ctx context.Context, text string) (*TenderBrief, error)

	OutlineOffer(ctx context.Context, oc OfferContext) ([]string, error)
	DraftOffer(ctx context.Context, oc OfferContext) (string, error)
	Rewrite(ctx context.Context, text, instruction string) (string, error)
}

// EntrySuggestion is the structured record the model proposes for a
// document. Dates are YYYY-MM-DD strings as the model writes them.
type EntrySuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status,omitempty"`

	ClientName string `json:"client_name,omitempty"`
	Location   string `json:"location,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`

	Deadline    string   `json:"deadline,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	OfferStatus string   `json:"offer_status,omitempty"`

	Domain string   `json:"domain,omitempty"`
	Steps  []string `json:"steps,omitempty"`

	Industry string `json:"industry,omitempty"`
	Website  string `json:"website,omitempty"`

	Role      string   `json:"role,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Expertise []string `json:"expertise,omitempty"`
}

// ToEntry maps the suggestion onto an unsaved, normalized entry.
func (s EntrySuggestion) ToEntry(category string) entities.KnowledgeEntry {
	e := entities.KnowledgeEntry{
		Category:    category,
		Title:       s.Title,
		Description: s.Description,
		Summary:     s.Summary,
		Tags:        s.Tags,
		Status:      s.Status,
		ClientName:  s.ClientName,
		Location:    s.Location,
		StartDate:   entities.ParseDate(s.StartDate),
		EndDate:     entities.ParseDate(s.EndDate),
		Deadline:    entities.ParseDate(s.Deadline),
		Value:       s.Value,
		Currency:    s.Currency,
		OfferStatus: s.OfferStatus,
		Domain:      s.Domain,
		Steps:       s.Steps,
		Industry:    s.Industry,
		Website:     s.Website,
		Role:        s.Role,
		Email:       s.Email,
		Phone:       s.Phone,
		Expertise:   s.Expertise,
	}
	e.Normalize()
	return e
}

type TenderBrief struct {
	Title              string   `json:"title"`
	ClientName         string   `json:"client_name"`
	Deadline           string   `json:"deadline"`
	Summary            string   `json:"summary"`
	Requirements       []string `json:"requirements"`
	EvaluationCriteria []string `json:"evaluation_criteria"`
	Deliverables       []string `json:"deliverables"`
	Keywords           []string `json:"keywords"`
}

// OfferContext is everything the outline and draft steps see.
type OfferContext struct {
	Analysis  *entities.TenderAnalysis
	Knowledge []entities.KnowledgeEntry
}
