package repository

import "github.com/Thiagofreitashalogen/halokm-sub000/entities"

type ListFilter struct {
	Category string
	Query    string
	Tag      string
	Limit    int
	Offset   int
}

type EntryRepository interface {
	Create(e *entities.KnowledgeEntry) error
	FindByID(id uint) (*entities.KnowledgeEntry, error)
	// FindByTitle matches case-insensitively within a category.
	FindByTitle(category, title string) (*entities.KnowledgeEntry, error)
	List(f ListFilter) ([]entities.KnowledgeEntry, int64, error)
	Update(e *entities.KnowledgeEntry) error
	// Delete removes the entry with its link rows and search chunks.
	Delete(e *entities.KnowledgeEntry) error
}
