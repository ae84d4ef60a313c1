package controllerImp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/controller"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/repository"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/entry/service"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
)

type EntryCtrl struct{ s service.EntryService }

func New(s service.EntryService) controller.EntryController { return &EntryCtrl{s: s} }

// createReq mirrors KnowledgeEntry with dates as YYYY-MM-DD strings.
type createReq struct {
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`

	ClientName string `json:"client_name"`
	Location   string `json:"location"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`

	Deadline    string   `json:"deadline"`
	Value       *float64 `json:"value"`
	Currency    string   `json:"currency"`
	OfferStatus string   `json:"offer_status"`

	Domain string   `json:"domain"`
	Steps  []string `json:"steps"`

	Industry string `json:"industry"`
	Website  string `json:"website"`

	Role      string   `json:"role"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Expertise []string `json:"expertise"`

	SourceDocumentID *uint `json:"source_document_id"`
}

func (r createReq) toEntry() (*entities.KnowledgeEntry, error) {
	e := &entities.KnowledgeEntry{
		Category: r.Category, Title: r.Title, Description: r.Description, Summary: r.Summary,
		Tags: r.Tags, Status: r.Status,
		ClientName: r.ClientName, Location: r.Location,
		Value: r.Value, Currency: r.Currency, OfferStatus: r.OfferStatus,
		Domain: r.Domain, Steps: r.Steps,
		Industry: r.Industry, Website: r.Website,
		Role: r.Role, Email: r.Email, Phone: r.Phone, Expertise: r.Expertise,
		SourceDocumentID: r.SourceDocumentID,
	}
	for _, d := range []struct {
		name, v string
		dst     **time.Time
	}{
		{"start_date", r.StartDate, &e.StartDate},
		{"end_date", r.EndDate, &e.EndDate},
		{"deadline", r.Deadline, &e.Deadline},
	} {
		if strings.TrimSpace(d.v) == "" {
			continue
		}
		t := entities.ParseDate(d.v)
		if t == nil {
			return nil, apperr.Invalidf("%s: expected YYYY-MM-DD, got %q", d.name, d.v)
		}
		*d.dst = t
	}
	return e, nil
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// GET /entries?category=&q=&tag=&limit=&offset=
func (h *EntryCtrl) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	page, err := h.s.List(repository.ListFilter{
		Category: c.QueryParam("category"),
		Query:    c.QueryParam("q"),
		Tag:      c.QueryParam("tag"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *EntryCtrl) Create(c echo.Context) error {
	var req createReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	e, err := req.toEntry()
	if err != nil {
		return apperr.JSON(c, err)
	}
	out, err := h.s.Create(c.Request().Context(), e, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *EntryCtrl) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	e, err := h.s.Get(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EntryCtrl) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var p service.EntryPatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	e, err := h.s.Update(c.Request().Context(), id, p)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EntryCtrl) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	if err := h.s.Delete(c.Request().Context(), id); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
