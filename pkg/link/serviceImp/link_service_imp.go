package serviceImp

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/repository"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/service"
)

type Svc struct{ r repository.LinkRepository }

func New(r repository.LinkRepository) *Svc { return &Svc{r: r} }

var _ service.LinkService = (*Svc)(nil)

func (s *Svc) entry(id uint) (*entities.KnowledgeEntry, error) {
	e, err := s.r.Entry(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("entry", id)
	}
	return e, err
}

func (s *Svc) Linked(entryID uint) (map[string][]entities.KnowledgeEntry, error) {
	e, err := s.entry(entryID)
	if err != nil {
		return nil, err
	}
	out := map[string][]entities.KnowledgeEntry{}
	for _, k := range link.KindsOf(e.Category) {
		ids, err := s.r.LinkedIDs(k, e.Category, e.ID)
		if err != nil {
			return nil, err
		}
		es, err := s.r.EntriesByIDs(ids)
		if err != nil {
			return nil, err
		}
		if es == nil {
			es = []entities.KnowledgeEntry{}
		}
		out[k.Other(e.Category)] = es
	}
	return out, nil
}

// pair loads both entries and the table that links their categories.
func (s *Svc) pair(a, b uint) (link.Kind, *entities.KnowledgeEntry, *entities.KnowledgeEntry, error) {
	if a == 0 || b == 0 {
		return link.Kind{}, nil, nil, apperr.Invalid("a and b are required")
	}
	if a == b {
		return link.Kind{}, nil, nil, apperr.Invalid("an entry cannot link to itself")
	}
	ea, err := s.entry(a)
	if err != nil {
		return link.Kind{}, nil, nil, err
	}
	eb, err := s.entry(b)
	if err != nil {
		return link.Kind{}, nil, nil, err
	}
	k, ok := link.KindFor(ea.Category, eb.Category)
	if !ok {
		return link.Kind{}, nil, nil, apperr.Invalidf("%s entries cannot be linked to %s entries", ea.Category, eb.Category)
	}
	return k, ea, eb, nil
}

func (s *Svc) Link(a, b uint) error {
	k, ea, eb, err := s.pair(a, b)
	if err != nil {
		return err
	}
	return s.r.Insert(k, ea, eb)
}

func (s *Svc) Unlink(a, b uint) error {
	k, ea, eb, err := s.pair(a, b)
	if err != nil {
		return err
	}
	return s.r.Delete(k, ea, eb)
}

func (s *Svc) SetLinks(entryID uint, category string, ids []uint) ([]entities.KnowledgeEntry, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	e, err := s.entry(entryID)
	if err != nil {
		return nil, err
	}
	k, ok := link.KindFor(e.Category, category)
	if !ok {
		return nil, apperr.Invalidf("%s entries cannot be linked to %s entries", e.Category, category)
	}

	uniq := make([]uint, 0, len(ids))
	seen := map[uint]bool{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	targets, err := s.r.EntriesByIDs(uniq)
	if err != nil {
		return nil, err
	}
	found := map[uint]bool{}
	for _, t := range targets {
		if t.Category == category {
			found[t.ID] = true
		}
	}
	var bad []uint
	for _, id := range uniq {
		if !found[id] {
			bad = append(bad, id)
		}
	}
	if len(bad) > 0 {
		return nil, apperr.New(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "some ids are not "+category+" entries",
			map[string]any{"invalid_ids": bad})
	}

	if err := s.r.Replace(k, e, uniq); err != nil {
		return nil, err
	}
	if targets == nil {
		targets = []entities.KnowledgeEntry{}
	}
	return targets, nil
}
