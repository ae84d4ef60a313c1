package controllerImp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagofreitashalogen/halokm-sub000/pkg/middleware"
)

func newServer(cfg middleware.AuthConfig) *echo.Echo {
	h := NewAuthController(cfg)
	e := echo.New()
	e.GET("/devlogin", h.DevLogin)
	e.GET("/whoami", h.WhoAmI, middleware.Auth(cfg))
	return e
}

func get(e *echo.Echo, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDevLoginThenWhoAmI(t *testing.T) {
	e := newServer(middleware.AuthConfig{AllowedDomain: "halogen.no"})

	rec := get(e, "/devlogin?email=Kari@Halogen.no")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.DevCookie, cookies[0].Name)
	assert.Equal(t, "kari@halogen.no", cookies[0].Value)

	rec = get(e, "/whoami", cookies[0])
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"kari@halogen.no","mode":"dev"}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, get(e, "/devlogin?email=eve@evil.com").Code)
	assert.Equal(t, http.StatusBadRequest, get(e, "/devlogin?email=not-an-email").Code)
	assert.Contains(t, get(e, "/devlogin").Body.String(), "dev@halogen.no")
}

func TestDevLogin_DisabledWithJWT(t *testing.T) {
	e := newServer(middleware.AuthConfig{JWTSecret: "s3cret"})
	assert.Equal(t, http.StatusNotFound, get(e, "/devlogin?email=a@b.no").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/whoami").Code)
}
