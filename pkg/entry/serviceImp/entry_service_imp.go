package serviceImp

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repository"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/service"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/events"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Indexer keeps the search index in step with entry writes.
type Indexer interface {
	IndexEntry(ctx context.Context, e *entities.KnowledgeEntry) error
}

type entrySvc struct {
	r   repository.EntryRepository
	idx Indexer
	pub events.Publisher
	log *zap.Logger
}

func New(r repository.EntryRepository, idx Indexer, pub events.Publisher, log *zap.Logger) service.EntryService {
	if pub == nil {
		pub = events.Nop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &entrySvc{r: r, idx: idx, pub: pub, log: log.Named("entry")}
}

var offerStatuses = map[string]bool{"": true, "pending": true, "won": true, "lost": true}

func validate(e *entities.KnowledgeEntry) error {
	if !entities.ValidCategory(e.Category) {
		return apperr.Invalidf("category must be one of %s", strings.Join(entities.Categories, ", "))
	}
	if e.Title == "" {
		return apperr.Invalid("title is required")
	}
	if e.Email != "" {
		if _, err := mail.ParseAddress(e.Email); err != nil {
			return apperr.Invalidf("invalid email %q", e.Email)
		}
	}
	if !offerStatuses[e.OfferStatus] {
		return apperr.Invalid("offer_status must be pending, won or lost")
	}
	if e.Value != nil && *e.Value < 0 {
		return apperr.Invalid("value must not be negative")
	}
	if e.StartDate != nil && e.EndDate != nil && e.EndDate.Before(*e.StartDate) {
		return apperr.Invalid("end_date is before start_date")
	}
	return nil
}

func notFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("entry", id)
	}
	return err
}

func (s *entrySvc) index(ctx context.Context, e *entities.KnowledgeEntry) {
	if s.idx == nil {
		return
	}
	if err := s.idx.IndexEntry(ctx, e); err != nil {
		s.log.Warn("index entry", zap.Uint("entry_id", e.ID), zap.Error(err))
	}
}

func (s *entrySvc) Create(ctx context.Context, e *entities.KnowledgeEntry, user string) (*entities.KnowledgeEntry, error) {
	e.ID = 0
	e.Normalize()
	if err := validate(e); err != nil {
		return nil, err
	}
	if e.CreatedBy == "" {
		e.CreatedBy = user
	}
	if err := s.r.Create(e); err != nil {
		return nil, err
	}
	s.index(ctx, e)
	s.pub.Publish(ctx, events.EntryCreated, e)
	return e, nil
}

func (s *entrySvc) Get(id uint) (*entities.KnowledgeEntry, error) {
	e, err := s.r.FindByID(id)
	return e, notFound(err, id)
}

func (s *entrySvc) FindByTitle(category, title string) (*entities.KnowledgeEntry, error) {
	e, err := s.r.FindByTitle(category, title)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(category, title)
	}
	return e, err
}

func (s *entrySvc) List(f repository.ListFilter) (*service.Page, error) {
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	if f.Category != "" && !entities.ValidCategory(f.Category) {
		return nil, apperr.Invalidf("unknown category %q", f.Category)
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	items, total, err := s.r.List(f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []entities.KnowledgeEntry{}
	}
	return &service.Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *entrySvc) All(category string) ([]entities.KnowledgeEntry, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" && !entities.ValidCategory(category) {
		return nil, apperr.Invalidf("unknown category %q", category)
	}
	items, _, err := s.r.List(repository.ListFilter{Category: category, Limit: -1})
	return items, err
}

func (s *entrySvc) Update(ctx context.Context, id uint, p service.EntryPatch) (*entities.KnowledgeEntry, error) {
	cur, err := s.r.FindByID(id)
	if err != nil {
		return nil, notFound(err, id)
	}
	if p.Category != nil && strings.ToLower(strings.TrimSpace(*p.Category)) != cur.Category {
		return nil, apperr.Invalid("category cannot be changed")
	}
	if err := applyPatch(cur, p); err != nil {
		return nil, err
	}
	cur.Normalize()
	if err := validate(cur); err != nil {
		return nil, err
	}
	if err := s.r.Update(cur); err != nil {
		return nil, err
	}
	s.index(ctx, cur)
	s.pub.Publish(ctx, events.EntryUpdated, cur)
	return cur, nil
}

func (s *entrySvc) Delete(ctx context.Context, id uint) error {
	cur, err := s.r.FindByID(id)
	if err != nil {
		return notFound(err, id)
	}
	if err := s.r.Delete(cur); err != nil {
		return notFound(err, id)
	}
	s.pub.Publish(ctx, events.EntryDeleted, map[string]any{"id": cur.ID, "category": cur.Category})
	return nil
}
