package service

import (
	"context"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repository"
)

// EntryPatch is a partial update; nil fields are left alone. Dates are
// YYYY-MM-DD and an empty string clears them.
type EntryPatch struct {
	Category    *string   `json:"category"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Summary     *string   `json:"summary"`
	Tags        *[]string `json:"tags"`
	Status      *string   `json:"status"`

	ClientName *string `json:"client_name"`
	Location   *string `json:"location"`
	StartDate  *string `json:"start_date"`
	EndDate    *string `json:"end_date"`

	Deadline    *string  `json:"deadline"`
	Value       *float64 `json:"value"`
	Currency    *string  `json:"currency"`
	OfferStatus *string  `json:"offer_status"`

	Domain *string   `json:"domain"`
	Steps  *[]string `json:"steps"`

	Industry *string `json:"industry"`
	Website  *string `json:"website"`

	Role      *string   `json:"role"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Expertise *[]string `json:"expertise"`
}

type Page struct {
	Items  []entities.KnowledgeEntry `json:"items"`
	Total  int64                     `json:"total"`
	Limit  int                       `json:"limit"`
	Offset int                       `json:"offset"`
}

type EntryService interface {
	Create(ctx context.Context, e *entities.KnowledgeEntry, user string) (*entities.KnowledgeEntry, error)
	Get(id uint) (*entities.KnowledgeEntry, error)
	FindByTitle(category, title string) (*entities.KnowledgeEntry, error)
	List(f repository.ListFilter) (*Page, error)
	// All returns every entry of the category ("" for all), unpaged.
	All(category string) ([]entities.KnowledgeEntry, error)
	Update(ctx context.Context, id uint, p EntryPatch) (*entities.KnowledgeEntry, error)
	Delete(ctx context.Context, id uint) error
}
