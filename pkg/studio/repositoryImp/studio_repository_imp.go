package repositoryImp

import (
	"time"

	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/repository"
)

type studioRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.StudioRepository { return &studioRepo{db} }

func (r *studioRepo) CreateAnalysis(a *entities.TenderAnalysis) error { return r.db.Create(a).Error }

func (r *studioRepo) FindAnalysis(id uint) (*entities.TenderAnalysis, error) {
	var a entities.TenderAnalysis
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *studioRepo) ListAnalyses() ([]entities.TenderAnalysis, error) {
	var as []entities.TenderAnalysis
	return as, r.db.Order("created_at DESC, id DESC").Find(&as).Error
}

func (r *studioRepo) UpdateAnalysis(a *entities.TenderAnalysis) error { return r.db.Save(a).Error }

func (r *studioRepo) DeleteAnalysis(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var draftIDs []uint
		if err := tx.Model(&entities.Draft{}).Where("analysis_id = ?", id).Pluck("id", &draftIDs).Error; err != nil {
			return err
		}
		if len(draftIDs) > 0 {
			if err := tx.Where("draft_id IN ?", draftIDs).Delete(&entities.DraftVersion{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&entities.Draft{}, draftIDs).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&entities.TenderAnalysis{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *studioRepo) FindDraft(id uint) (*entities.Draft, error) {
	var d entities.Draft
	if err := r.db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *studioRepo) DraftByAnalysis(analysisID uint) (*entities.Draft, error) {
	var d entities.Draft
	if err := r.db.Where("analysis_id = ?", analysisID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *studioRepo) CreateDraft(d *entities.Draft, note string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		d.Version = 1
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		return tx.Create(&entities.DraftVersion{
			DraftID: d.ID, Version: 1, Content: d.Content, SavedBy: d.UpdatedBy, Note: note,
		}).Error
	})
}

func (r *studioRepo) SaveVersion(draftID uint, content, title, editor, note string) (*entities.Draft, int, error) {
	var d entities.Draft
	var prev int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, draftID).Error; err != nil {
			return err
		}
		prev = d.Version
		var max int
		if err := tx.Model(&entities.DraftVersion{}).Where("draft_id = ?", draftID).
			Select("COALESCE(MAX(version), 0)").Scan(&max).Error; err != nil {
			return err
		}
		next := max + 1
		if err := tx.Create(&entities.DraftVersion{
			DraftID: draftID, Version: next, Content: content, SavedBy: editor, Note: note,
		}).Error; err != nil {
			return err
		}
		d.Content, d.Version, d.UpdatedBy = content, next, editor
		if title != "" {
			d.Title = title
		}
		return tx.Save(&d).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return &d, prev, nil
}

// ListVersions returns history newest first, without content.
func (r *studioRepo) ListVersions(draftID uint) ([]entities.DraftVersion, error) {
	var vs []entities.DraftVersion
	err := r.db.Select("id", "draft_id", "version", "saved_by", "note", "created_at").
		Where("draft_id = ?", draftID).Order("version DESC").Find(&vs).Error
	return vs, err
}

func (r *studioRepo) GetVersion(draftID uint, version int) (*entities.DraftVersion, error) {
	var v entities.DraftVersion
	if err := r.db.Where("draft_id = ? AND version = ?", draftID, version).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *studioRepo) SetLock(draftID uint, editor string, since *time.Time) error {
	updates := map[string]any{"editing_by": editor, "editing_since": since}
	if editor == "" {
		updates["editing_since"] = nil
	}
	res := r.db.Model(&entities.Draft{}).Where("id = ?", draftID).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studioRepo) EntriesByIDs(ids []uint) ([]entities.KnowledgeEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var es []entities.KnowledgeEntry
	return es, r.db.Where("id IN ?", ids).Order("category, title").Find(&es).Error
}
