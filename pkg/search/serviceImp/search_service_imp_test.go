package serviceImp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/database"
	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/repositoryImp"
)

// vocabEmbedder counts a fixed vocabulary, so similar texts get similar vectors.
type vocabEmbedder struct {
	vocab []string
	fail  bool
}

func (v *vocabEmbedder) Name() string { return "vocab" }

func (v *vocabEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if v.fail {
		return nil, errors.New("embedder down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		low := strings.ToLower(t)
		vec := make([]float32, len(v.vocab))
		for j, w := range v.vocab {
			vec[j] = float32(strings.Count(low, w))
		}
		out[i] = vec
	}
	return out, nil
}

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name(), nil)
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, db *gorm.DB, s *Svc, entries ...entities.KnowledgeEntry) []entities.KnowledgeEntry {
	t.Helper()
	for i := range entries {
		entries[i].Normalize()
		require.NoError(t, db.Create(&entries[i]).Error)
		require.NoError(t, s.IndexEntry(context.Background(), &entries[i]))
	}
	return entries
}

func TestChunkText(t *testing.T) {
	assert.Equal(t, []string{"alpha beta\n", "gamma delta"}, chunkText("alpha beta\ngamma delta", 12))
	assert.Equal(t, []string{"one two ", "three"}, chunkText("one two three", 10))
	assert.Equal(t, []string{"xxxxx", "xxxxx", "xx"}, chunkText(strings.Repeat("x", 12), 5))
	assert.Empty(t, chunkText("   ", 5))
}

func TestChunkText_LongLineIsBounded(t *testing.T) {
	text := strings.Repeat("word ", 20000)
	chs := chunkText(text, chunkRunes)
	require.Len(t, chs, 100)
	for _, c := range chs {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), chunkRunes)
	}
	assert.Equal(t, text, strings.Join(chs, ""))

	chs = chunkText(strings.Repeat("æøå", 700), chunkRunes)
	require.Len(t, chs, 3)
	assert.Equal(t, chunkRunes, utf8.RuneCountInString(chs[0]))
}

func TestSearch_KeywordFallback(t *testing.T) {
	db := setup(t)
	s := New(repositoryImp.New(db), nil, nil)
	es := seed(t, db, s,
		entities.KnowledgeEntry{Category: "project", Title: "Harbour promenade", Description: "Timber boardwalk along the harbour"},
		entities.KnowledgeEntry{Category: "method", Title: "Timber detailing", Description: "Joinery guide"},
		entities.KnowledgeEntry{Category: "person", Title: "Kari Nordmann", Role: "Architect"},
	)

	hits, err := s.Search(context.Background(), "timber harbour", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, es[0].ID, hits[0].Entry.ID, "both terms rank first")
	assert.Equal(t, es[1].ID, hits[1].Entry.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	hits, err = s.Search(context.Background(), "timber", 10, []string{"method"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "method", hits[0].Entry.Category)

	hits, err = s.Search(context.Background(), "  ", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_VectorSimilarity(t *testing.T) {
	db := setup(t)
	emb := &vocabEmbedder{vocab: []string{"school", "hospital", "timber", "concrete"}}
	s := New(repositoryImp.New(db), emb, nil)
	es := seed(t, db, s,
		entities.KnowledgeEntry{Category: "project", Title: "Hospital wing", Description: "Concrete hospital extension"},
		entities.KnowledgeEntry{Category: "project", Title: "School in timber", Description: "A timber school"},
	)

	var n int64
	require.NoError(t, db.Model(&entities.EntryChunk{}).Where("embedding IS NOT NULL").Count(&n).Error)
	assert.EqualValues(t, 2, n)

	hits, err := s.Search(context.Background(), "timber school", 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, es[1].ID, hits[0].Entry.ID)
}

func TestIndexEntry_EmbedFailureKeepsKeywordRows(t *testing.T) {
	db := setup(t)
	emb := &vocabEmbedder{vocab: []string{"a"}, fail: true}
	s := New(repositoryImp.New(db), emb, nil)
	seed(t, db, s, entities.KnowledgeEntry{Category: "client", Title: "Statsbygg", Industry: "Public"})

	var cs []entities.EntryChunk
	require.NoError(t, db.Find(&cs).Error)
	require.Len(t, cs, 1)
	assert.Nil(t, cs[0].Embedding)

	hits, err := s.Search(context.Background(), "statsbygg", 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndexEntry_ReplacesChunks(t *testing.T) {
	db := setup(t)
	s := New(repositoryImp.New(db), nil, nil)
	es := seed(t, db, s, entities.KnowledgeEntry{Category: "method", Title: "Old name"})

	es[0].Title = "New name"
	require.NoError(t, s.IndexEntry(context.Background(), &es[0]))
	var cs []entities.EntryChunk
	require.NoError(t, db.Where("entry_id = ?", es[0].ID).Find(&cs).Error)
	require.Len(t, cs, 1)
	assert.Contains(t, cs[0].Text, "New name")
}

func TestReindex(t *testing.T) {
	db := setup(t)
	for _, title := range []string{"one", "two", "three", "four", "five"} {
		require.NoError(t, db.Create(&entities.KnowledgeEntry{Category: "method", Title: title}).Error)
	}
	s := New(repositoryImp.New(db), nil, nil)
	n, err := s.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	var count int64
	require.NoError(t, db.Model(&entities.EntryChunk{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)
}
