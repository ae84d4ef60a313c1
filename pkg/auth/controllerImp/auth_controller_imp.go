package controllerImp

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/auth/controller"
	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
)

type authCtrl struct{ cfg middleware.AuthConfig }

func NewAuthController(cfg middleware.AuthConfig) controller.AuthController { return &authCtrl{cfg: cfg} }

func (h *authCtrl) mode() string {
	if h.cfg.DevMode() {
		return "dev"
	}
	return "jwt"
}

// DevLogin sets the dev identity cookie. It only exists without a JWT secret.
func (h *authCtrl) DevLogin(c echo.Context) error {
	if !h.cfg.DevMode() {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "dev login is disabled"})
	}
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
	if email == "" {
		email = h.cfg.DefaultDevUser()
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email"})
	}
	if !h.cfg.EmailAllowed(email) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "email domain not allowed"})
	}
	c.SetCookie(&http.Cookie{Name: middleware.DevCookie, Value: email, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return c.JSON(http.StatusOK, map[string]string{"email": email, "mode": h.mode()})
}

func (h *authCtrl) WhoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"email": middleware.UserEmail(c), "mode": h.mode()})
}
