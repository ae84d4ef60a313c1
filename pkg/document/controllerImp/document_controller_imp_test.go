package controllerImp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagofreitashalogen/halokm-sub000/database"
	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/ai"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/repositoryImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/serviceImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/storage"
	entryRepo "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repositoryImp"
	entrySvc "github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/serviceImp"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := database.OpenMemory(t.Name(), nil)
	require.NoError(t, err)
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	entries := entrySvc.New(entryRepo.New(db), nil, nil, nil)
	h := New(serviceImp.New(repositoryImp.New(db), store, nil, ai.NewMock(), entries, nil, serviceImp.Config{}, nil))

	e := echo.New()
	g := e.Group("", middleware.Auth(middleware.AuthConfig{}))
	g.POST("/documents", h.Upload)
	g.GET("/documents", h.List)
	g.GET("/documents/:id", h.Get)
	g.GET("/documents/:id/raw", h.Raw)
	g.DELETE("/documents/:id", h.Delete)
	g.POST("/documents/:id/summarize", h.Summarize)
	g.POST("/documents/summarize", h.SummarizeBatch)
	return e
}

func multipartBody(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestUploadSummarizeDownload(t *testing.T) {
	e := newServer(t)

	body, ct := multipartBody(t, "method.md", "Co-design sprint\n\nFive days with users.")
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := serve(e, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d entities.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "parsed", d.Status)

	body, ct = multipartBody(t, "again.md", "Co-design sprint\n\nFive days with users.")
	req = httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set(echo.HeaderContentType, ct)
	assert.Equal(t, http.StatusOK, serve(e, req).Code, "same bytes return the existing document")

	rec = serve(e, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/documents/%d/raw", d.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Co-design sprint\n\nFive days with users.", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `filename="method.md"`)

	rec = serve(e, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/documents/%d/summarize?category=method", d.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"Co-design sprint"`)

	rec = serve(e, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/documents/%d/summarize?category=method&create=true", d.ID), nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"source_document_id":%d`, d.ID))

	req = httptest.NewRequest(http.MethodPost, "/documents/summarize",
		strings.NewReader(fmt.Sprintf(`{"ids":[%d,999],"category":"method"}`, d.ID)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var batch struct {
		Results []struct {
			DocumentID uint   `json:"document_id"`
			Error      string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	require.Len(t, batch.Results, 2)
	assert.Empty(t, batch.Results[0].Error)
	assert.NotEmpty(t, batch.Results[1].Error)

	rec = serve(e, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/documents/%d", d.ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUpload_MissingFile(t *testing.T) {
	e := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("x"))
	req.Header.Set(echo.HeaderContentType, "text/plain")
	assert.Equal(t, http.StatusBadRequest, serve(e, req).Code)
}
