package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/config"
	"github.com/Thiagofreitashalogen/halokm-sub000/database"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/ai"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/parser"
	docRepoImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/repositoryImp"
	docSvcImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/serviceImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/storage"
	entryRepoImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repositoryImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/service"
	entrySvcImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/serviceImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/events"
	linkRepoImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/repositoryImp"
	linkSvcImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/serviceImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/embedder"
	searchRepoImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/repositoryImp"
	searchSvcImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/serviceImp"
	studioRepoImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/repositoryImp"
	studioSvcImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/serviceImp"
)

// a compressed upload may inflate to this many times MAX_UPLOAD_BYTES
const extractFactor = 4

// app holds the wired services shared by every command.
type app struct {
	cfg      config.AppConfig
	log      *zap.Logger
	db       *gorm.DB
	store    *storage.FS
	llm      ai.Client
	emb      embedder.Embedder
	pub      events.Publisher
	search   *searchSvcImp.Svc
	entries  service.EntryService
	links    *linkSvcImp.Svc
	docs     *docSvcImp.Svc
	studio   *studioSvcImp.Svc
	closeFns []func()
}

func (a *app) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
}

func newApp(ctx context.Context, cfg config.AppConfig, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	db, err := database.OpenSQLite(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closeFns = append(a.closeFns, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if a.store, err = storage.NewFS(cfg.StorageDir); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if a.llm, err = newLLM(ctx, cfg, log); err != nil {
		return nil, err
	}
	if a.emb, err = newEmbedder(ctx, cfg); err != nil {
		return nil, err
	}

	a.pub = events.Nop()
	if cfg.NATSURL != "" {
		n, err := events.Connect(cfg.NATSURL, cfg.EventSubjectPrefix, log)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.pub = n
		a.closeFns = append(a.closeFns, n.Close)
	}

	a.search = searchSvcImp.New(searchRepoImp.New(db), a.emb, log)
	a.entries = entrySvcImp.New(entryRepoImp.New(db), a.search, a.pub, log)
	a.links = linkSvcImp.New(linkRepoImp.New(db))
	parsers := parser.NewRegistry(parser.WithMaxExtractBytes(extractFactor * cfg.MaxUploadBytes))
	a.docs = docSvcImp.New(docRepoImp.New(db), a.store, parsers, a.llm, a.entries, a.pub,
		docSvcImp.Config{MaxUploadBytes: cfg.MaxUploadBytes, AllowedDomains: cfg.KBAllowedDomains}, log)
	a.studio = studioSvcImp.New(studioSvcImp.Deps{
		Repo:    studioRepoImp.New(db),
		LLM:     a.llm,
		Search:  a.search,
		Docs:    a.docs,
		Entries: a.entries,
		Links:   a.links,
		Events:  a.pub,
		LockTTL: cfg.LockTTL,
		Log:     log,
	})
	ok = true
	return a, nil
}

func newLLM(ctx context.Context, cfg config.AppConfig, log *zap.Logger) (ai.Client, error) {
	if cfg.LLMProvider == "mock" {
		log.Warn("no LLM configured, using the mock client")
		return ai.NewMock(), nil
	}
	prompts, err := ai.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}
	var c ai.Completer
	switch cfg.LLMProvider {
	case "gemini":
		if c, err = ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log); err != nil {
			return nil, err
		}
	default:
		c = ai.NewOpenAI(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel, ai.WithLogger(log))
	}
	return ai.New(c, prompts, log), nil
}

// newEmbedder returns nil when embeddings are off; search then falls back
// to keyword matching.
func newEmbedder(ctx context.Context, cfg config.AppConfig) (embedder.Embedder, error) {
	switch cfg.EmbProvider {
	case "openai":
		return embedder.New(cfg.EmbEndpoint, cfg.EmbAPIKey, cfg.EmbModel), nil
	case "gemini":
		key := cfg.EmbAPIKey
		if key == "" {
			key = cfg.GeminiAPIKey
		}
		e, err := embedder.NewGenAI(ctx, key, cfg.EmbModel)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, nil
}

func (a *app) embedderName() string {
	if a.emb == nil {
		return ""
	}
	return a.emb.Name()
}
