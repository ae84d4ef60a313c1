package repository

import (
	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link"
)

type LinkRepository interface {
	Entry(id uint) (*entities.KnowledgeEntry, error)
	EntriesByIDs(ids []uint) ([]entities.KnowledgeEntry, error)

	// LinkedIDs returns ids on the far side of k for an entry of category.
	LinkedIDs(k link.Kind, category string, entryID uint) ([]uint, error)
	Insert(k link.Kind, a, b *entities.KnowledgeEntry) error
	Delete(k link.Kind, a, b *entities.KnowledgeEntry) error
	// Replace swaps the entry's rows in k for links to ids.
	Replace(k link.Kind, entry *entities.KnowledgeEntry, ids []uint) error
}
