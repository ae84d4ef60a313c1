package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/link/service"
)

type LinkController struct{ s service.LinkService }

func New(s service.LinkService) *LinkController { return &LinkController{s: s} }

type pairReq struct {
	A uint `json:"a"`
	B uint `json:"b"`
}

type setReq struct {
	IDs []uint `json:"ids"`
}

func entryID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// GET /entries/:id/links
func (h *LinkController) Linked(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	out, err := h.s.Linked(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /entries/:id/links/:category {"ids":[...]}
func (h *LinkController) SetLinks(c echo.Context) error {
	id, err := entryID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var req setReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	out, err := h.s.SetLinks(id, c.Param("category"), req.IDs)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /links {"a":1,"b":2}
func (h *LinkController) Link(c echo.Context) error {
	var req pairReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := h.s.Link(req.A, req.B); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DELETE /links {"a":1,"b":2}
func (h *LinkController) Unlink(c echo.Context) error {
	var req pairReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if err := h.s.Unlink(req.A, req.B); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
