// Package apperr carries HTTP-aware domain errors from services to handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type Error struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func New(status int, code, msg string, details map[string]any) *Error {
	return &Error{Status: status, Code: code, Message: msg, Details: details}
}

func NotFound(what string, id any) *Error {
	return New(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s %v not found", what, id), nil)
}

func Invalid(msg string) *Error {
	return New(http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
}

func Invalidf(format string, args ...any) *Error {
	return Invalid(fmt.Sprintf(format, args...))
}

func Conflict(msg string, details map[string]any) *Error {
	return New(http.StatusConflict, "CONFLICT", msg, details)
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, "FORBIDDEN", msg, nil)
}

// Upstream reports a failing external service (LLM, fetch target).
func Upstream(msg string, err error) *Error {
	return New(http.StatusBadGateway, "UPSTREAM_ERROR", fmt.Sprintf("%s: %v", msg, err), nil)
}

// From converts any error into an *Error. Record-not-found becomes 404 and
// anything unrecognized becomes 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(http.StatusNotFound, "NOT_FOUND", "not found", nil)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return New(he.Code, http.StatusText(he.Code), fmt.Sprint(he.Message), nil)
	}
	return New(http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
}

// JSON writes err as {"error": ..., "code": ...} with the mapped status.
func JSON(c echo.Context, err error) error {
	ae := From(err)
	return c.JSON(ae.Status, ae)
}

func StatusOf(err error) int { return From(err).Status }
