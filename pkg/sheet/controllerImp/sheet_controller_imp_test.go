package controllerImp

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Thiagofreitashalogen/halokm-sub000/database"
	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	entryRepo "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repositoryImp"
	entrySvc "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/serviceImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/sheet"
)

func TestImportThenExport(t *testing.T) {
	db, err := database.OpenMemory(t.Name(), nil)
	require.NoError(t, err)
	entries := entrySvc.New(entryRepo.New(db), nil, nil, nil)
	_, err = entries.Create(context.Background(), &entities.KnowledgeEntry{Category: "client", Title: "Oslo Port"}, "")
	require.NoError(t, err)

	h := New(entries)
	e := echo.New()
	g := e.Group("", middleware.Auth(middleware.AuthConfig{}))
	g.GET("/export/entries.xlsx", h.Export)
	g.POST("/import/entries", h.Import)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "methods.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Title,Steps\nJourney mapping,interview; map\n,\nBad email,\n"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/import/entries?category=method", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Created int      `json:"created"`
		Skipped int      `json:"skipped"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Created)
	assert.Equal(t, 1, out.Skipped)
	assert.Empty(t, out.Errors)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/entries.xlsx?category=method", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sheet.MimeXLSX, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")

	x, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer x.Close()
	assert.Equal(t, []string{"method"}, x.GetSheetList())
	rows, err := x.GetRows("method")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/entries.xlsx?category=vendor", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
