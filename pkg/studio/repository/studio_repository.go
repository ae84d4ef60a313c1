package repository

import (
	"time"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

type StudioRepository interface {
	CreateAnalysis(a *entities.TenderAnalysis) error
	FindAnalysis(id uint) (*entities.TenderAnalysis, error)
	ListAnalyses() ([]entities.TenderAnalysis, error)
	UpdateAnalysis(a *entities.TenderAnalysis) error
	// DeleteAnalysis removes the analysis with its draft and versions.
	DeleteAnalysis(id uint) error

	FindDraft(id uint) (*entities.Draft, error)
	DraftByAnalysis(analysisID uint) (*entities.Draft, error)
	// CreateDraft stores the draft at version 1 together with its first version row.
	CreateDraft(d *entities.Draft, note string) error
	// SaveVersion appends version max+1 and makes it current. prev is the
	// draft's version before the save.
	SaveVersion(draftID uint, content, title, editor, note string) (d *entities.Draft, prev int, err error)
	ListVersions(draftID uint) ([]entities.DraftVersion, error)
	GetVersion(draftID uint, version int) (*entities.DraftVersion, error)
	// SetLock writes the lock columns; an empty editor clears them.
	SetLock(draftID uint, editor string, since *time.Time) error

	EntriesByIDs(ids []uint) ([]entities.KnowledgeEntry, error)
}
