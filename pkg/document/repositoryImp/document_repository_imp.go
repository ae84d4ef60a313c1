package repositoryImp

import (
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/repository"
)

type docRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.DocumentRepository { return &docRepo{db} }

func (r *docRepo) Create(d *entities.Document) error { return r.db.Create(d).Error }

func (r *docRepo) FindByID(id uint) (*entities.Document, error) {
	var d entities.Document
	if err := r.db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *docRepo) FindBySHA(sha string) (*entities.Document, error) {
	var d entities.Document
	if err := r.db.Where("sha256 = ?", sha).Order("id").First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// List omits the extracted text.
func (r *docRepo) List() ([]entities.Document, error) {
	var ds []entities.Document
	err := r.db.Omit("text").Order("created_at DESC, id DESC").Find(&ds).Error
	return ds, err
}

func (r *docRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.KnowledgeEntry{}).Where("source_document_id = ?", id).
			Update("source_document_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.TenderAnalysis{}).Where("document_id = ?", id).
			Update("document_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.Document{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
