package service

import (
	"context"
	"time"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

// AnalyzeInput names a stored document or carries the tender text directly.
type AnalyzeInput struct {
	DocumentID *uint  `json:"document_id"`
	Text       string `json:"text"`
}

type Suggestion struct {
	Entry   entities.KnowledgeEntry `json:"entry"`
	Score   float64                 `json:"score"`
	Snippet string                  `json:"snippet"`
}

type SaveInput struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	// BaseVersion is the version the editor started from; 0 skips the
	// staleness check.
	BaseVersion int    `json:"base_version"`
	Note        string `json:"note"`
}

// SaveResult reports a saved version. Stale is set when someone else saved
// after BaseVersion; the save still went through.
type SaveResult struct {
	Draft           *entities.Draft `json:"draft"`
	Version         int             `json:"version"`
	PreviousVersion int             `json:"previous_version"`
	Stale           bool            `json:"stale"`
}

type LockState struct {
	Held         bool       `json:"held"`
	Conflict     bool       `json:"conflict"`
	EditingBy    string     `json:"editing_by,omitempty"`
	EditingSince *time.Time `json:"editing_since,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type FinalizeResult struct {
	Analysis *entities.TenderAnalysis `json:"analysis"`
	Offer    *entities.KnowledgeEntry `json:"offer"`
	// LinkedIDs are the entries the offer was linked to.
	LinkedIDs []uint `json:"linked_ids"`
}

type StudioService interface {
	AnalyzeTender(ctx context.Context, in AnalyzeInput, user string) (*entities.TenderAnalysis, error)
	ListAnalyses() ([]entities.TenderAnalysis, error)
	GetAnalysis(id uint) (*entities.TenderAnalysis, error)
	DeleteAnalysis(ctx context.Context, id uint) error

	SuggestKnowledge(ctx context.Context, analysisID uint, k int) ([]Suggestion, error)
	SelectKnowledge(ctx context.Context, analysisID uint, ids []uint) (*entities.TenderAnalysis, error)
	GenerateOutline(ctx context.Context, analysisID uint) (*entities.TenderAnalysis, error)
	GenerateDraft(ctx context.Context, analysisID uint, user string) (*entities.Draft, error)
	RewriteSection(ctx context.Context, draftID uint, text, instruction string) (string, error)

	GetDraft(id uint) (*entities.Draft, error)
	DraftForAnalysis(analysisID uint) (*entities.Draft, error)
	SaveDraft(ctx context.Context, draftID uint, in SaveInput, editor string) (*SaveResult, error)
	ListVersions(draftID uint) ([]entities.DraftVersion, error)
	GetVersion(draftID uint, version int) (*entities.DraftVersion, error)
	RestoreVersion(ctx context.Context, draftID uint, version int, editor string) (*SaveResult, error)

	ClaimLock(draftID uint, editor string, force bool) (*LockState, error)
	ReleaseLock(draftID uint, editor string, force bool) (*LockState, error)
	LockStatus(draftID uint) (*LockState, error)

	FinalizeDraft(ctx context.Context, draftID uint, user string) (*FinalizeResult, error)
}
