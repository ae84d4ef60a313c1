package controller

import "github.com/labstack/echo/v4"

type SearchController interface {
	Search(c echo.Context) error
}
