package repositoryImp

import (
	"strings"

	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repository"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link"
)

type entryRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.EntryRepository { return &entryRepo{db} }

func (r *entryRepo) Create(e *entities.KnowledgeEntry) error { return r.db.Create(e).Error }

func (r *entryRepo) FindByID(id uint) (*entities.KnowledgeEntry, error) {
	var e entities.KnowledgeEntry
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entryRepo) FindByTitle(category, title string) (*entities.KnowledgeEntry, error) {
	var e entities.KnowledgeEntry
	err := r.db.Where("category = ? AND LOWER(title) = ?", category, strings.ToLower(strings.TrimSpace(title))).
		Order("id").First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *entryRepo) List(f repository.ListFilter) ([]entities.KnowledgeEntry, int64, error) {
	q := r.db.Model(&entities.KnowledgeEntry{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		like := "%" + escapeLike(s) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(summary) LIKE ? ESCAPE '\')`,
			like, like, like)
	}
	if t := strings.ToLower(strings.TrimSpace(f.Tag)); t != "" {
		// tags are a JSON array of lowercase strings
		q = q.Where(`json_valid(tags) AND EXISTS (SELECT 1 FROM json_each(tags) WHERE json_each.value = ?)`, t)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var es []entities.KnowledgeEntry
	err := q.Order("created_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&es).Error
	return es, total, err
}

func (r *entryRepo) Update(e *entities.KnowledgeEntry) error {
	// Save writes zero values too, so cleared fields stick
	return r.db.Save(e).Error
}

func (r *entryRepo) Delete(e *entities.KnowledgeEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := link.DeleteEntryLinks(tx, e.ID, e.Category); err != nil {
			return err
		}
		if err := tx.Where("entry_id = ?", e.ID).Delete(&entities.EntryChunk{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.KnowledgeEntry{}, e.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
