package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

const (
	ctxUser = "user"

	DevCookie  = "HALOKM_USER"
	DevHeader  = "X-User-Email"
	devDefault = "dev"
)

type AuthConfig struct {
	// JWTSecret enables bearer-token auth (HS256). Empty means dev mode.
	JWTSecret     string
	AllowedDomain string
}

func (a AuthConfig) DevMode() bool { return a.JWTSecret == "" }

// DefaultDevUser is the identity used in dev mode when the request names none.
func (a AuthConfig) DefaultDevUser() string {
	if a.AllowedDomain != "" {
		return devDefault + "@" + a.AllowedDomain
	}
	return devDefault + "@localhost"
}

// EmailAllowed reports whether email belongs to the allowed domain.
func (a AuthConfig) EmailAllowed(email string) bool {
	if a.AllowedDomain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+a.AllowedDomain)
}

// Auth resolves the caller's email and stores it on the context.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var email string
			if cfg.DevMode() {
				email = devUser(c, cfg)
			} else {
				var err error
				email, err = bearerUser(c.Request().Header.Get(echo.HeaderAuthorization), cfg.JWTSecret)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
				}
			}
			email = strings.ToLower(strings.TrimSpace(email))
			if !cfg.EmailAllowed(email) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "email domain not allowed"})
			}
			c.Set(ctxUser, email)
			return next(c)
		}
	}
}

func devUser(c echo.Context, cfg AuthConfig) string {
	if h := c.Request().Header.Get(DevHeader); h != "" {
		return h
	}
	if ck, err := c.Cookie(DevCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	u := cfg.DefaultDevUser()
	c.SetCookie(&http.Cookie{Name: DevCookie, Value: u, Path: "/"})
	return u
}

func bearerUser(header, secret string) (string, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" || raw == header {
		return "", fmt.Errorf("missing bearer token")
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	if e, _ := claims["email"].(string); e != "" {
		return e, nil
	}
	if sub, _ := claims["sub"].(string); strings.Contains(sub, "@") {
		return sub, nil
	}
	return "", fmt.Errorf("token has no email")
}

// UserEmail is the authenticated caller, or "" outside the auth group.
func UserEmail(c echo.Context) string {
	v, _ := c.Get(ctxUser).(string)
	return v
}
