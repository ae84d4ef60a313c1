package serviceImp

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/embedder"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/repository"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/service"
)

const (
	chunkRunes   = 1000
	defaultK     = 10
	maxK         = 50
	reindexLimit = 4
)

type Svc struct {
	r   repository.SearchRepository
	emb embedder.Embedder
	log *zap.Logger
}

// New builds the search service. emb may be nil for keyword-only search.
func New(r repository.SearchRepository, emb embedder.Embedder, log *zap.Logger) *Svc {
	if log == nil {
		log = zap.NewNop()
	}
	return &Svc{r: r, emb: emb, log: log.Named("search")}
}

var _ service.SearchService = (*Svc)(nil)

// chunkText splits text into pieces of at most maxRunes runes. A piece
// ends after the last newline in its second half, else after its last
// whitespace, else at the bound.
func chunkText(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = chunkRunes
	}
	rs := []rune(text)
	parts := []string{}
	for len(rs) > 0 {
		cut := len(rs)
		if cut > maxRunes {
			cut = breakAt(rs[:maxRunes])
		}
		if piece := string(rs[:cut]); strings.TrimSpace(piece) != "" {
			parts = append(parts, piece)
		}
		rs = rs[cut:]
	}
	return parts
}

func breakAt(window []rune) int {
	space := 0
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == '\n' && i >= len(window)/2 {
			return i + 1
		}
		if space == 0 && unicode.IsSpace(window[i]) {
			space = i + 1
		}
	}
	if space == 0 {
		return len(window)
	}
	return space
}

func (s *Svc) IndexEntry(ctx context.Context, e *entities.KnowledgeEntry) error {
	chs := chunkText(e.SearchText(), chunkRunes)

	var embs [][]float32
	if s.emb != nil && len(chs) > 0 {
		var err error
		embs, err = s.emb.Embed(ctx, chs)
		if err != nil {
			// keyword search still works on these rows
			s.log.Warn("embed entry failed", zap.Uint("entry_id", e.ID), zap.Error(err))
			embs = nil
		}
	}

	rows := make([]entities.EntryChunk, len(chs))
	for i := range chs {
		var embBytes []byte
		if i < len(embs) && len(embs[i]) > 0 {
			embBytes = embedder.FloatsToBytes(embs[i])
		}
		rows[i] = entities.EntryChunk{EntryID: e.ID, Ord: i, Text: chs[i], Embedding: embBytes}
	}
	return s.r.ReplaceChunks(e.ID, rows)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		v, w := float64(a[i]), float64(b[i])
		dot += v * w
		na += v * v
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// keywordScore is the share of query terms found in text, with a bonus
// for the whole phrase.
func keywordScore(text, phrase string, terms []string) float64 {
	low := strings.ToLower(text)
	hit := 0
	for _, t := range terms {
		if strings.Contains(low, t) {
			hit++
		}
	}
	if hit == 0 {
		return 0
	}
	score := 0.8 * float64(hit) / float64(len(terms))
	if strings.Contains(low, phrase) {
		score += 0.2
	}
	return score
}

func (s *Svc) Search(ctx context.Context, query string, k int, categories []string) ([]service.Hit, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	if k <= 0 {
		k = defaultK
	}
	if k > maxK {
		k = maxK
	}

	var qvec []float32
	if s.emb != nil {
		if vec, err := s.emb.Embed(ctx, []string{q}); err == nil && len(vec) > 0 {
			qvec = vec[0]
		} else if err != nil {
			s.log.Debug("embed query failed, keyword fallback", zap.Error(err))
		}
	}

	chunks, err := s.r.Chunks(categories)
	if err != nil {
		return nil, err
	}

	phrase := strings.ToLower(q)
	terms := strings.Fields(phrase)
	best := map[uint]service.Hit{}
	for _, ch := range chunks {
		var sc float64
		if vec := embedder.BytesToFloats(ch.Embedding); len(qvec) > 0 && len(vec) == len(qvec) {
			sc = cosine(qvec, vec)
		} else {
			sc = keywordScore(ch.Text, phrase, terms)
		}
		if sc <= 0 {
			continue
		}
		if cur, ok := best[ch.EntryID]; !ok || sc > cur.Score {
			best[ch.EntryID] = service.Hit{Score: sc, Snippet: snippet(ch.Text)}
		}
	}
	if len(best) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	meta, err := s.r.EntriesByIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make([]service.Hit, 0, len(best))
	for id, h := range best {
		e, ok := meta[id]
		if !ok {
			continue
		}
		h.Entry = e
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry.ID < out[j].Entry.ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Reindex rebuilds chunks for every entry and returns how many were indexed.
func (s *Svc) Reindex(ctx context.Context) (int, error) {
	entries, err := s.r.AllEntries()
	if err != nil {
		return 0, err
	}
	var n atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reindexLimit)
	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.IndexEntry(gctx, e); err != nil {
				return err
			}
			n.Add(1)
			return nil
		})
	}
	err = g.Wait()
	s.log.Info("reindex finished", zap.Int64("entries", n.Load()), zap.Error(err))
	return int(n.Load()), err
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) > 240 {
		return string(r[:240]) + "…"
	}
	return text
}
