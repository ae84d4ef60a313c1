package controller

import "github.com/labstack/echo/v4"

type StudioController interface {
	Analyze(c echo.Context) error
	ListAnalyses(c echo.Context) error
	GetAnalysis(c echo.Context) error
	DeleteAnalysis(c echo.Context) error
	Suggestions(c echo.Context) error
	Select(c echo.Context) error
	Outline(c echo.Context) error
	GenerateDraft(c echo.Context) error
	AnalysisDraft(c echo.Context) error

	GetDraft(c echo.Context) error
	SaveDraft(c echo.Context) error
	Rewrite(c echo.Context) error
	Versions(c echo.Context) error
	Version(c echo.Context) error
	Restore(c echo.Context) error

	LockStatus(c echo.Context) error
	ClaimLock(c echo.Context) error
	ReleaseLock(c echo.Context) error
	Finalize(c echo.Context) error
}
