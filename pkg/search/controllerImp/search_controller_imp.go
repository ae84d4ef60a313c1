package controllerImp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/search/service"
)

type SearchCtrl struct{ s service.SearchService }

func New(s service.SearchService) *SearchCtrl { return &SearchCtrl{s: s} }

// Search handles GET /search?q=&k=&category=project,method
func (h *SearchCtrl) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "q required"})
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))

	cats, err := ParseCategories(c.QueryParams()["category"])
	if err != nil {
		return apperr.JSON(c, err)
	}
	hits, err := h.s.Search(c.Request().Context(), q, k, cats)
	if err != nil {
		return apperr.JSON(c, err)
	}
	if hits == nil {
		hits = []service.Hit{}
	}
	return c.JSON(http.StatusOK, hits)
}

// ParseCategories accepts repeated and comma-separated values.
func ParseCategories(raw []string) ([]string, error) {
	var out []string
	for _, v := range raw {
		for _, c := range strings.Split(v, ",") {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			if !entities.ValidCategory(c) {
				return nil, apperr.Invalidf("unknown category %q", c)
			}
			out = append(out, c)
		}
	}
	return out, nil
}
