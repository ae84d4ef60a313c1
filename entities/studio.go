package entities

import "time"

const (
	AnalysisAnalyzed          = "analyzed"
	AnalysisKnowledgeSelected = "knowledge_selected"
	AnalysisOutlined          = "outlined"
	AnalysisDrafted           = "drafted"
	AnalysisFinalized         = "finalized"
)

type TenderAnalysis struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	DocumentID         *uint      `gorm:"index" json:"document_id,omitempty"`
	Title              string     `json:"title"`
	ClientName         string     `json:"client_name"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	Summary            string     `json:"summary"`
	Requirements       []string   `gorm:"serializer:json" json:"requirements"`
	EvaluationCriteria []string   `gorm:"serializer:json" json:"evaluation_criteria"`
	Deliverables       []string   `gorm:"serializer:json" json:"deliverables"`
	Keywords           []string   `gorm:"serializer:json" json:"keywords"`
	Outline            []string   `gorm:"serializer:json" json:"outline"`
	SelectedEntryIDs   []uint     `gorm:"serializer:json" json:"selected_entry_ids"`
	Status             string     `gorm:"index" json:"status"`
	OfferEntryID       *uint      `json:"offer_entry_id,omitempty"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (TenderAnalysis) TableName() string { return "tender_analyses" }

// Draft is the working copy of an offer. EditingBy/EditingSince form the
// advisory editing lock; nothing enforces it.
type Draft struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AnalysisID   uint       `gorm:"uniqueIndex" json:"analysis_id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Version      int        `json:"version"`
	EditingBy    string     `json:"editing_by,omitempty"`
	EditingSince *time.Time `json:"editing_since,omitempty"`
	UpdatedBy    string     `json:"updated_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Draft) TableName() string { return "studio_drafts" }

type DraftVersion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DraftID   uint      `gorm:"uniqueIndex:idx_draft_version" json:"draft_id"`
	Version   int       `gorm:"uniqueIndex:idx_draft_version" json:"version"`
	Content   string    `json:"content,omitempty"`
	SavedBy   string    `json:"saved_by"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (DraftVersion) TableName() string { return "studio_draft_versions" }
