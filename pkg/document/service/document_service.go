package service

import (
	"context"
	"io"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/ai"
)

// BatchResult is the outcome for one document of a batch summarize.
type BatchResult struct {
	DocumentID uint                     `json:"document_id"`
	Suggestion *ai.EntrySuggestion      `json:"suggestion,omitempty"`
	Entry      *entities.KnowledgeEntry `json:"entry,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

type DocumentService interface {
	// Upload stores and parses a file. existing is true when identical bytes
	// were uploaded before; that document is returned unchanged.
	Upload(ctx context.Context, filename string, r io.Reader, user string) (doc *entities.Document, existing bool, err error)
	IngestURL(ctx context.Context, rawURL, user string) (doc *entities.Document, existing bool, err error)

	Summarize(ctx context.Context, id uint, category string) (*ai.EntrySuggestion, error)
	SummarizeAndCreate(ctx context.Context, id uint, category, user string) (*entities.KnowledgeEntry, error)
	SummarizeBatch(ctx context.Context, ids []uint, category string, create bool, user string) ([]BatchResult, error)

	Get(id uint) (*entities.Document, error)
	// Text returns the extracted text of a parsed document.
	Text(id uint) (string, error)
	List() ([]entities.Document, error)
	Open(id uint) (io.ReadCloser, *entities.Document, error)
	Delete(ctx context.Context, id uint) error
}
