package entities

import (
	"strings"
	"time"
)

const (
	CategoryProject = "project"
	CategoryOffer   = "offer"
	CategoryMethod  = "method"
	CategoryClient  = "client"
	CategoryPerson  = "person"
)

// Categories lists every knowledge entry category in display order.
var Categories = []string{CategoryProject, CategoryOffer, CategoryMethod, CategoryClient, CategoryPerson}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type KnowledgeEntry struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Category    string   `gorm:"index;not null" json:"category"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	Status      string   `json:"status,omitempty"`

	// project
	ClientName string     `json:"client_name,omitempty"`
	Location   string     `json:"location,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`

	// offer
	Deadline    *time.Time `json:"deadline,omitempty"`
	Value       *float64   `json:"value,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	OfferStatus string     `json:"offer_status,omitempty"` // pending|won|lost

	// method
	Domain string   `json:"domain,omitempty"`
	Steps  []string `gorm:"serializer:json" json:"steps,omitempty"`

	// client
	Industry string `json:"industry,omitempty"`
	Website  string `json:"website,omitempty"`

	// person
	Role      string   `json:"role,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Expertise []string `gorm:"serializer:json" json:"expertise,omitempty"`

	SourceDocumentID *uint  `gorm:"index" json:"source_document_id,omitempty"`
	CreatedBy        string `json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KnowledgeEntry) TableName() string { return "knowledge_entries" }

// Normalize trims text fields, lowercases the category and clears the
// optional fields that do not belong to the entry's category.
func (e *KnowledgeEntry) Normalize() {
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.Summary = strings.TrimSpace(e.Summary)
	e.Status = strings.TrimSpace(e.Status)
	e.Tags = cleanList(e.Tags, true)
	e.Steps = cleanList(e.Steps, false)
	e.Expertise = cleanList(e.Expertise, false)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.OfferStatus = strings.ToLower(strings.TrimSpace(e.OfferStatus))
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))

	if e.Category != CategoryProject {
		e.ClientName, e.Location, e.StartDate, e.EndDate = "", "", nil, nil
	}
	if e.Category != CategoryOffer {
		e.Deadline, e.Value, e.Currency, e.OfferStatus = nil, nil, "", ""
	}
	if e.Category != CategoryMethod {
		e.Domain, e.Steps = "", nil
	}
	if e.Category != CategoryClient {
		e.Industry, e.Website = "", ""
	}
	if e.Category != CategoryPerson {
		e.Role, e.Email, e.Phone, e.Expertise = "", "", "", nil
	}
}

// SearchText is the text the search index chunks for this entry.
func (e *KnowledgeEntry) SearchText() string {
	var sb strings.Builder
	sb.WriteString(e.Title)
	sb.WriteString("\n")
	for _, s := range []string{e.Description, e.Summary, e.ClientName, e.Domain, e.Industry, e.Role} {
		if s != "" {
			sb.WriteString(s)
			sb.WriteString("\n")
		}
	}
	for _, list := range [][]string{e.Tags, e.Steps, e.Expertise} {
		if len(list) > 0 {
			sb.WriteString(strings.Join(list, ", "))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func cleanList(in []string, lower bool) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if lower {
			s = strings.ToLower(s)
		}
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
