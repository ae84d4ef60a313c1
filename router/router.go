package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	authCtrl "github.com/Thiagofreitashalogen/halokm-sub000/pkg/auth/controller"
	docCtrl "github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/controller"
	entryCtrl "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/controller"
	linkCtrl "github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/controller"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/metrics"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
	searchCtrl "github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/controller"
	sheetCtrl "github.com/Thiagofreitashalogen/halokm-sub000/pkg/sheet/controller"
	studioCtrl "github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/controller"
)

type Controllers struct {
	Auth     authCtrl.AuthController
	Health   interface{ Health(echo.Context) error }
	Entry    entryCtrl.EntryController
	Link     linkCtrl.LinkController
	Search   searchCtrl.SearchController
	Document docCtrl.DocumentController
	Sheet    sheetCtrl.SheetController
	Studio   studioCtrl.StudioController
}

func New(e *echo.Echo, auth middleware.AuthConfig, log *zap.Logger, h Controllers) *echo.Echo {
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(log))

	e.GET("/health", h.Health.Health)
	e.GET("/metrics", metrics.Handler())
	e.GET("/devlogin", h.Auth.DevLogin)

	api := e.Group("", middleware.Auth(auth))
	api.GET("/whoami", h.Auth.WhoAmI)

	api.GET("/entries", h.Entry.List)
	api.POST("/entries", h.Entry.Create)
	api.GET("/entries/:id", h.Entry.Get)
	api.PATCH("/entries/:id", h.Entry.Update)
	api.DELETE("/entries/:id", h.Entry.Delete)

	api.GET("/entries/:id/links", h.Link.Linked)
	api.PUT("/entries/:id/links/:category", h.Link.SetLinks)
	api.POST("/links", h.Link.Link)
	api.DELETE("/links", h.Link.Unlink)

	api.GET("/search", h.Search.Search)

	api.POST("/documents", h.Document.Upload)
	api.POST("/documents/url", h.Document.IngestURL)
	api.POST("/documents/summarize", h.Document.SummarizeBatch)
	api.GET("/documents", h.Document.List)
	api.GET("/documents/:id", h.Document.Get)
	api.GET("/documents/:id/raw", h.Document.Raw)
	api.DELETE("/documents/:id", h.Document.Delete)
	api.POST("/documents/:id/summarize", h.Document.Summarize)

	api.GET("/export/entries.xlsx", h.Sheet.Export)
	api.POST("/import/entries", h.Sheet.Import)

	s := api.Group("/studio")
	s.POST("/analyses", h.Studio.Analyze)
	s.GET("/analyses", h.Studio.ListAnalyses)
	s.GET("/analyses/:id", h.Studio.GetAnalysis)
	s.DELETE("/analyses/:id", h.Studio.DeleteAnalysis)
	s.GET("/analyses/:id/suggestions", h.Studio.Suggestions)
	s.PUT("/analyses/:id/selection", h.Studio.Select)
	s.POST("/analyses/:id/outline", h.Studio.Outline)
	s.POST("/analyses/:id/draft", h.Studio.GenerateDraft)
	s.GET("/analyses/:id/draft", h.Studio.AnalysisDraft)

	s.GET("/drafts/:id", h.Studio.GetDraft)
	s.PUT("/drafts/:id", h.Studio.SaveDraft)
	s.POST("/drafts/:id/rewrite", h.Studio.Rewrite)
	s.GET("/drafts/:id/versions", h.Studio.Versions)
	s.GET("/drafts/:id/versions/:version", h.Studio.Version)
	s.POST("/drafts/:id/versions/:version/restore", h.Studio.Restore)
	s.GET("/drafts/:id/lock", h.Studio.LockStatus)
	s.POST("/drafts/:id/lock", h.Studio.ClaimLock)
	s.DELETE("/drafts/:id/lock", h.Studio.ReleaseLock)
	s.POST("/drafts/:id/finalize", h.Studio.Finalize)
	return e
}
