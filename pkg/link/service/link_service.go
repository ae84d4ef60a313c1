package service

import "github.com/Thiagofreitashalogen/halokm-sub000/entities"

type LinkService interface {
	// Linked groups the entries linked to entryID by category. Every
	// category the entry can link with is present, possibly empty.
	Linked(entryID uint) (map[string][]entities.KnowledgeEntry, error)
	Link(a, b uint) error
	Unlink(a, b uint) error
	SetLinks(entryID uint, category string, ids []uint) ([]entities.KnowledgeEntry, error)
}
