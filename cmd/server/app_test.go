package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thiagofreitashalogen/halokm-sub000/config"
	authCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/auth/controllerImp"
	docCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/controllerImp"
	entryCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/controllerImp"
	healthCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/health/controllerImp"
	linkCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/controllerImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
	searchCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/controllerImp"
	sheetCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/sheet/controllerImp"
	studioCtrlImp "github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/controllerImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/router"
)

func testConfig(t *testing.T) config.AppConfig {
	dir := t.TempDir()
	return config.AppConfig{
		DBPath:         filepath.Join(dir, "halokm.db"),
		StorageDir:     filepath.Join(dir, "uploads"),
		LLMProvider:    "mock",
		EmbProvider:    "none",
		MaxUploadBytes: 1 << 20,
		LockTTL:        time.Minute,
	}
}

func testServer(t *testing.T, a *app) *echo.Echo {
	auth := middleware.AuthConfig{AllowedDomain: "halogen.no"}
	return router.New(echo.New(), auth, a.log, router.Controllers{
		Auth:     authCtrlImp.NewAuthController(auth),
		Health:   healthCtrlImp.NewHealthCtrl(a.db, a.store, a.llm.Name(), a.embedderName()),
		Entry:    entryCtrlImp.New(a.entries),
		Link:     linkCtrlImp.New(a.links),
		Search:   searchCtrlImp.New(a.search),
		Document: docCtrlImp.New(a.docs),
		Sheet:    sheetCtrlImp.New(a.entries),
		Studio:   studioCtrlImp.New(a.studio),
	})
}

func TestNewApp_ServesRoutes(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "mock", a.llm.Name())
	assert.Empty(t, a.embedderName())

	e := testServer(t, a)
	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(http.MethodPost, "/entries", `{"category":"method","title":"Journey mapping","tags":["research"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(http.MethodGet, "/search?q=journey", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Journey mapping")

	rec = do(http.MethodGet, "/whoami", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dev@halogen.no")

	rec = do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "halokm_http_requests_total")

	rec = do(http.MethodGet, "/studio/analyses", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewEmbedder(t *testing.T) {
	cfg := testConfig(t)
	e, err := newEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, e)

	cfg.EmbProvider = "openai"
	cfg.EmbEndpoint = "http://localhost:1"
	e, err = newEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "reindex", "export", "import"})
}
