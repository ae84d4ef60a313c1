package controllerImp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/controller"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/document/service"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
)

type DocumentCtrl struct{ s service.DocumentService }

func New(s service.DocumentService) controller.DocumentController { return &DocumentCtrl{s: s} }

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func created(existing bool) int {
	if existing {
		return http.StatusOK
	}
	return http.StatusCreated
}

// POST /documents (multipart "file")
func (h *DocumentCtrl) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "multipart field \"file\" is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	defer f.Close()
	d, existing, err := h.s.Upload(c.Request().Context(), fh.Filename, f, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(created(existing), d)
}

// POST /documents/url {"url": "..."}
func (h *DocumentCtrl) IngestURL(c echo.Context) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&body); err != nil || body.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url required"})
	}
	d, existing, err := h.s.IngestURL(c.Request().Context(), body.URL, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(created(existing), d)
}

func (h *DocumentCtrl) List(c echo.Context) error {
	ds, err := h.s.List()
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, ds)
}

func (h *DocumentCtrl) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	d, err := h.s.Get(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// GET /documents/:id/raw streams the original bytes.
func (h *DocumentCtrl) Raw(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	rc, d, err := h.s.Open(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", d.Filename))
	return c.Stream(http.StatusOK, d.MimeType, rc)
}

func (h *DocumentCtrl) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	if err := h.s.Delete(c.Request().Context(), id); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /documents/:id/summarize?category=&create=true
func (h *DocumentCtrl) Summarize(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	category := c.QueryParam("category")
	ctx := c.Request().Context()
	if create, _ := strconv.ParseBool(c.QueryParam("create")); create {
		e, err := h.s.SummarizeAndCreate(ctx, id, category, middleware.UserEmail(c))
		if err != nil {
			return apperr.JSON(c, err)
		}
		return c.JSON(http.StatusCreated, e)
	}
	sugg, err := h.s.Summarize(ctx, id, category)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"category": category, "suggestion": sugg})
}

type batchReq struct {
	IDs      []uint `json:"ids"`
	Category string `json:"category"`
	Create   bool   `json:"create"`
}

// POST /documents/summarize
func (h *DocumentCtrl) SummarizeBatch(c echo.Context) error {
	var req batchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	res, err := h.s.SummarizeBatch(c.Request().Context(), req.IDs, req.Category, req.Create, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"results": res})
}
