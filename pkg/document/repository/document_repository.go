package repository

import "github.com/Thiagofreitashalogen/halokm-sub000/entities"

type DocumentRepository interface {
	Create(d *entities.Document) error
	FindByID(id uint) (*entities.Document, error)
	FindBySHA(sha string) (*entities.Document, error)
	List() ([]entities.Document, error)
	// Delete removes the document and clears references to it.
	Delete(id uint) error
}
