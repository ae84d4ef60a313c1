package controller

import "github.com/labstack/echo/v4"

type LinkController interface {
	Linked(c echo.Context) error
	SetLinks(c echo.Context) error
	Link(c echo.Context) error
	Unlink(c echo.Context) error
}
