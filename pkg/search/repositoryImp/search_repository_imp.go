package repositoryImp

import (
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/repository"
)

type repo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.SearchRepository { return &repo{db} }

func (r *repo) ReplaceChunks(entryID uint, rows []entities.EntryChunk) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", entryID).Delete(&entities.EntryChunk{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *repo) Chunks(categories []string) ([]entities.EntryChunk, error) {
	var cs []entities.EntryChunk
	q := r.db.Model(&entities.EntryChunk{})
	if len(categories) > 0 {
		q = q.Joins("JOIN knowledge_entries ON knowledge_entries.id = entry_chunks.entry_id").
			Where("knowledge_entries.category IN ?", categories)
	}
	return cs, q.Select("entry_chunks.*").Order("entry_chunks.entry_id, entry_chunks.ord").Find(&cs).Error
}

func (r *repo) EntriesByIDs(ids []uint) (map[uint]entities.KnowledgeEntry, error) {
	if len(ids) == 0 {
		return map[uint]entities.KnowledgeEntry{}, nil
	}
	var es []entities.KnowledgeEntry
	if err := r.db.Where("id IN ?", ids).Find(&es).Error; err != nil {
		return nil, err
	}
	m := make(map[uint]entities.KnowledgeEntry, len(es))
	for i := range es {
		m[es[i].ID] = es[i]
	}
	return m, nil
}

func (r *repo) AllEntries() ([]entities.KnowledgeEntry, error) {
	var es []entities.KnowledgeEntry
	return es, r.db.Order("id").Find(&es).Error
}
