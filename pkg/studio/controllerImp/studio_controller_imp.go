package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/apperr"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/controller"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/studio/service"
)

type StudioCtrl struct{ s service.StudioService }

func New(s service.StudioService) controller.StudioController { return &StudioCtrl{s: s} }

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func parseVersion(c echo.Context) (int, error) {
	v, err := strconv.Atoi(c.Param("version"))
	if err != nil || v <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid version")
	}
	return v, nil
}

func force(c echo.Context) bool {
	f, _ := strconv.ParseBool(c.QueryParam("force"))
	return f
}

// lockJSON answers 409 when another editor holds the lock, 200 otherwise.
func lockJSON(c echo.Context, st *service.LockState) error {
	if st.Conflict {
		return c.JSON(http.StatusConflict, st)
	}
	return c.JSON(http.StatusOK, st)
}

// POST /studio/analyses {"document_id": 1} or {"text": "..."}
func (h *StudioCtrl) Analyze(c echo.Context) error {
	var in service.AnalyzeInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	a, err := h.s.AnalyzeTender(c.Request().Context(), in, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *StudioCtrl) ListAnalyses(c echo.Context) error {
	as, err := h.s.ListAnalyses()
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, as)
}

func (h *StudioCtrl) GetAnalysis(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	a, err := h.s.GetAnalysis(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *StudioCtrl) DeleteAnalysis(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	if err := h.s.DeleteAnalysis(c.Request().Context(), id); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /studio/analyses/:id/suggestions?k=
func (h *StudioCtrl) Suggestions(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))
	out, err := h.s.SuggestKnowledge(c.Request().Context(), id, k)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /studio/analyses/:id/selection {"ids": [...]}
func (h *StudioCtrl) Select(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var body struct {
		IDs []uint `json:"ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	a, err := h.s.SelectKnowledge(c.Request().Context(), id, body.IDs)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *StudioCtrl) Outline(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	a, err := h.s.GenerateOutline(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *StudioCtrl) GenerateDraft(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	d, err := h.s.GenerateDraft(c.Request().Context(), id, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *StudioCtrl) AnalysisDraft(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	d, err := h.s.DraftForAnalysis(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// GET /studio/drafts/:id also reports the lock so editors see who else is in.
func (h *StudioCtrl) GetDraft(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	d, err := h.s.GetDraft(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	lock, err := h.s.LockStatus(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"draft": d, "lock": lock})
}

// PUT /studio/drafts/:id {"content", "title", "base_version", "note"}
func (h *StudioCtrl) SaveDraft(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var in service.SaveInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	res, err := h.s.SaveDraft(c.Request().Context(), id, in, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// POST /studio/drafts/:id/rewrite {"text", "instruction"}
func (h *StudioCtrl) Rewrite(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	var body struct {
		Text        string `json:"text"`
		Instruction string `json:"instruction"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	out, err := h.s.RewriteSection(c.Request().Context(), id, body.Text, body.Instruction)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"text": out})
}

func (h *StudioCtrl) Versions(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	vs, err := h.s.ListVersions(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, vs)
}

func (h *StudioCtrl) Version(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	v, err := parseVersion(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	out, err := h.s.GetVersion(id, v)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StudioCtrl) Restore(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	v, err := parseVersion(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	res, err := h.s.RestoreVersion(c.Request().Context(), id, v, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StudioCtrl) LockStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	st, err := h.s.LockStatus(id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// POST /studio/drafts/:id/lock?force=true
func (h *StudioCtrl) ClaimLock(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	st, err := h.s.ClaimLock(id, middleware.UserEmail(c), force(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return lockJSON(c, st)
}

func (h *StudioCtrl) ReleaseLock(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	st, err := h.s.ReleaseLock(id, middleware.UserEmail(c), force(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return lockJSON(c, st)
}

func (h *StudioCtrl) Finalize(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.JSON(c, err)
	}
	res, err := h.s.FinalizeDraft(c.Request().Context(), id, middleware.UserEmail(c))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}
