package handler

import (
	"tenant-service/internal/apperr"
	"tenant-service/internal/tenant"

	"github.com/labstack/echo/v4"
)

// Handler owns the HTTP boundary: it parses typed requests, delegates
// to the lifecycle manager and formats responses. All dependencies are
// injected at construction.
type Handler struct {
	manager *tenant.Manager
}

func New(manager *tenant.Manager) *Handler {
	return &Handler{manager: manager}
}

// writeError maps any error to its taxonomy status code and the
// standard error body.
func writeError(c echo.Context, err error) error {
	ae := apperr.From(err)
	return c.JSON(ae.HTTPStatus(), echo.Map{"error": ae.Message})
}
