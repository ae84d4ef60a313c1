package serviceImp

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/ai"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/parser"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/repository"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/service"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/storage"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/events"
)

const (
	batchLimit   = 4
	maxBatchSize = 50
)

// EntryCreator persists summarized entries.
type EntryCreator interface {
	Create(ctx context.Context, e *entities.KnowledgeEntry, user string) (*entities.KnowledgeEntry, error)
}

type Config struct {
	MaxUploadBytes int64
	AllowedDomains []string
	HTTPClient     *http.Client
}

type Svc struct {
	r       repository.DocumentRepository
	store   storage.Store
	parsers *parser.Registry
	llm     ai.Client
	entries EntryCreator
	pub     events.Publisher
	cfg     Config
	log     *zap.Logger
}

func New(r repository.DocumentRepository, store storage.Store, parsers *parser.Registry, llm ai.Client,
	entries EntryCreator, pub events.Publisher, cfg Config, log *zap.Logger) *Svc {
	if parsers == nil {
		parsers = parser.NewRegistry()
	}
	if pub == nil {
		pub = events.Nop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: fetchTimeout}
	}
	return &Svc{r: r, store: store, parsers: parsers, llm: llm, entries: entries, pub: pub, cfg: cfg,
		log: log.Named("document")}
}

var _ service.DocumentService = (*Svc)(nil)

func tooLarge(max int64) error {
	return apperr.New(http.StatusRequestEntityTooLarge, "TOO_LARGE",
		fmt.Sprintf("file exceeds %d bytes", max), map[string]any{"max_bytes": max})
}

func notFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("document", id)
	}
	return err
}

func (s *Svc) Upload(ctx context.Context, filename string, r io.Reader, user string) (*entities.Document, bool, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, false, apperr.Invalid("filename is required")
	}
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, false, tooLarge(s.cfg.MaxUploadBytes)
	}
	if len(data) == 0 {
		return nil, false, apperr.Invalid("file is empty")
	}
	mime := parser.MimeTypeFromExtension(filepath.Ext(filename))
	return s.save(ctx, &entities.Document{Filename: filename, MimeType: mime, UploadedBy: user}, data,
		func() (string, error) { return s.parsers.ParseMime(mime, filename, data) })
}

// save dedupes by content hash, stores the bytes and records the parse
// outcome. A parse failure is stored on the document, not returned.
func (s *Svc) save(ctx context.Context, d *entities.Document, data []byte, extract func() (string, error)) (*entities.Document, bool, error) {
	sum := sha256.Sum256(data)
	d.SHA256 = hex.EncodeToString(sum[:])
	if prev, err := s.r.FindBySHA(d.SHA256); err == nil {
		return prev, true, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	d.Size = int64(len(data))
	d.StorageKey = storage.NewKey(filepath.Ext(d.Filename))
	if _, err := s.store.Put(d.StorageKey, bytes.NewReader(data)); err != nil {
		return nil, false, fmt.Errorf("store upload: %w", err)
	}

	text, err := extract()
	switch {
	case err != nil:
		d.Status, d.Error = entities.DocStatusFailed, err.Error()
	case text == "":
		d.Status, d.Error = entities.DocStatusFailed, "no text could be extracted"
	default:
		d.Status, d.Text, d.TextChars = entities.DocStatusParsed, text, utf8.RuneCountInString(text)
	}

	if err := s.r.Create(d); err != nil {
		if derr := s.store.Delete(d.StorageKey); derr != nil {
			s.log.Warn("remove orphaned object", zap.String("key", d.StorageKey), zap.Error(derr))
		}
		return nil, false, err
	}
	s.log.Info("document stored",
		zap.Uint("id", d.ID), zap.String("filename", d.Filename), zap.String("status", d.Status),
		zap.Int("chars", d.TextChars))
	s.pub.Publish(ctx, events.DocumentUploaded, map[string]any{
		"id": d.ID, "filename": d.Filename, "mime_type": d.MimeType, "status": d.Status, "source_url": d.SourceURL,
	})
	return d, false, nil
}

func (s *Svc) Get(id uint) (*entities.Document, error) {
	d, err := s.r.FindByID(id)
	return d, notFound(err, id)
}

func textOf(d *entities.Document) (string, error) {
	if d.Status != entities.DocStatusParsed || strings.TrimSpace(d.Text) == "" {
		return "", apperr.Invalidf("document %d has no extracted text: %s", d.ID, d.Error)
	}
	return d.Text, nil
}

func (s *Svc) Text(id uint) (string, error) {
	d, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return textOf(d)
}

func (s *Svc) List() ([]entities.Document, error) {
	ds, err := s.r.List()
	if ds == nil && err == nil {
		ds = []entities.Document{}
	}
	return ds, err
}

func (s *Svc) Open(id uint) (io.ReadCloser, *entities.Document, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(d.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open object %s: %w", d.StorageKey, err)
	}
	return rc, d, nil
}

func (s *Svc) Delete(ctx context.Context, id uint) error {
	d, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.r.Delete(id); err != nil {
		return notFound(err, id)
	}
	if err := s.store.Delete(d.StorageKey); err != nil {
		s.log.Warn("delete object", zap.String("key", d.StorageKey), zap.Error(err))
	}
	return nil
}

func (s *Svc) Summarize(ctx context.Context, id uint, category string) (*ai.EntrySuggestion, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if !entities.ValidCategory(category) {
		return nil, apperr.Invalidf("category must be one of %s", strings.Join(entities.Categories, ", "))
	}
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	text, err := textOf(d)
	if err != nil {
		return nil, err
	}
	sugg, err := s.llm.SummarizeDocument(ctx, category, d.Filename, text)
	if err != nil {
		return nil, apperr.Upstream("summarize document", err)
	}
	return sugg, nil
}

func (s *Svc) SummarizeAndCreate(ctx context.Context, id uint, category, user string) (*entities.KnowledgeEntry, error) {
	sugg, err := s.Summarize(ctx, id, category)
	if err != nil {
		return nil, err
	}
	e := sugg.ToEntry(strings.ToLower(strings.TrimSpace(category)))
	e.SourceDocumentID = &id
	return s.entries.Create(ctx, &e, user)
}

// SummarizeBatch runs documents concurrently. A failing document is
// reported in its result and does not stop the others.
func (s *Svc) SummarizeBatch(ctx context.Context, ids []uint, category string, create bool, user string) ([]service.BatchResult, error) {
	if len(ids) == 0 {
		return nil, apperr.Invalid("ids is required")
	}
	if len(ids) > maxBatchSize {
		return nil, apperr.Invalidf("at most %d documents per batch", maxBatchSize)
	}
	if !entities.ValidCategory(strings.ToLower(strings.TrimSpace(category))) {
		return nil, apperr.Invalidf("category must be one of %s", strings.Join(entities.Categories, ", "))
	}

	out := make([]service.BatchResult, len(ids))
	var g errgroup.Group
	g.SetLimit(batchLimit)
	for i, id := range ids {
		out[i].DocumentID = id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].Error = err.Error()
				return nil
			}
			if create {
				e, err := s.SummarizeAndCreate(ctx, id, category, user)
				if err != nil {
					out[i].Error = err.Error()
					return nil
				}
				out[i].Entry = e
				return nil
			}
			sugg, err := s.Summarize(ctx, id, category)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Suggestion = sugg
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range out {
		if r.Error != "" {
			failed++
		}
	}
	s.log.Info("batch summarize", zap.Int("documents", len(ids)), zap.Int("failed", failed), zap.Bool("create", create))
	return out, nil
}
