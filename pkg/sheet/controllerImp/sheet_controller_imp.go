package controllerImp

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/sheet"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/sheet/controller"
)

// Entries is the slice of the entry service the sheet handlers use.
type Entries interface {
	sheet.Creator
	All(category string) ([]entities.KnowledgeEntry, error)
}

type SheetCtrl struct{ entries Entries }

func New(entries Entries) controller.SheetController { return &SheetCtrl{entries: entries} }

// GET /export/entries.xlsx?category=
func (h *SheetCtrl) Export(c echo.Context) error {
	cat := c.QueryParam("category")
	es, err := h.entries.All(cat)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var cats []string
	if cat != "" {
		cats = []string{strings.ToLower(strings.TrimSpace(cat))}
	}
	f, err := sheet.Export(es, cats)
	if err != nil {
		return apperr.JSON(c, err)
	}
	defer f.Close()

	name := fmt.Sprintf("entries-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType, sheet.MimeXLSX)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}

// POST /import/entries?category= (multipart "file", .csv or .xlsx)
func (h *SheetCtrl) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "multipart field \"file\" is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	defer src.Close()

	res, err := sheet.Import(fh.Filename, src, c.QueryParam("category"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	created, errs := sheet.Load(c.Request().Context(), h.entries, res.Entries, middleware.UserEmail(c))
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"created": created,
		"skipped": res.Skipped,
		"errors":  msgs,
	})
}
