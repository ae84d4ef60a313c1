package repositoryImp

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/repository"
)

type repo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.LinkRepository { return &repo{db} }

func (r *repo) Entry(id uint) (*entities.KnowledgeEntry, error) {
	var e entities.KnowledgeEntry
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repo) EntriesByIDs(ids []uint) ([]entities.KnowledgeEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var es []entities.KnowledgeEntry
	return es, r.db.Where("id IN ?", ids).Order("title").Find(&es).Error
}

func (r *repo) LinkedIDs(k link.Kind, category string, entryID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table(k.Table).
		Where(k.Col(category)+" = ?", entryID).
		Order("created_at").
		Pluck(k.Col(k.Other(category)), &ids).Error
	return ids, err
}

func insertRow(tx *gorm.DB, k link.Kind, row map[string]any) error {
	row["created_at"] = time.Now()
	return tx.Table(k.Table).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *repo) Insert(k link.Kind, a, b *entities.KnowledgeEntry) error {
	return insertRow(r.db, k, k.Row(a.Category, a.ID, b.Category, b.ID))
}

func (r *repo) Delete(k link.Kind, a, b *entities.KnowledgeEntry) error {
	return r.db.Exec("DELETE FROM "+k.Table+" WHERE "+k.Col(a.Category)+" = ? AND "+k.Col(b.Category)+" = ?",
		a.ID, b.ID).Error
}

func (r *repo) Replace(k link.Kind, entry *entities.KnowledgeEntry, ids []uint) error {
	other := k.Other(entry.Category)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+k.Table+" WHERE "+k.Col(entry.Category)+" = ?", entry.ID).Error; err != nil {
			return err
		}
		for _, id := range ids {
			if err := insertRow(tx, k, k.Row(entry.Category, entry.ID, other, id)); err != nil {
				return err
			}
		}
		return nil
	})
}
