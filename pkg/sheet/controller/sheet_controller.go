package controller

import "github.com/labstack/echo/v4"

type SheetController interface {
	Export(c echo.Context) error
	Import(c echo.Context) error
}
