package repository

import "github.com/Thiagofreitashalogen/halokm-sub000/entities"

type SearchRepository interface {
	ReplaceChunks(entryID uint, rows []entities.EntryChunk) error
	// Chunks returns index rows, restricted to entries of the given
	// categories when any are passed.
	Chunks(categories []string) ([]entities.EntryChunk, error)
	EntriesByIDs(ids []uint) (map[uint]entities.KnowledgeEntry, error)
	AllEntries() ([]entities.KnowledgeEntry, error)
}
