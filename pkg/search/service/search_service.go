package service

import (
	"context"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

// Hit is one entry found by Search with its best chunk.
type Hit struct {
	Entry   entities.KnowledgeEntry `json:"entry"`
	Score   float64                 `json:"score"`
	Snippet string                  `json:"snippet"`
}

type SearchService interface {
	IndexEntry(ctx context.Context, e *entities.KnowledgeEntry) error
	Search(ctx context.Context, query string, k int, categories []string) ([]Hit, error)
	Reindex(ctx context.Context) (int, error)
}
