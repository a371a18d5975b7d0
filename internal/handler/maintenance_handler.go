package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	errs "github.com/EricNguyen1206/fastify-auth/internal/errors"
	"github.com/EricNguyen1206/fastify-auth/internal/service"
)

// MaintenanceHandler handles on-demand housekeeping endpoints.
type MaintenanceHandler struct {
	authService service.AuthService
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(authService service.AuthService) *MaintenanceHandler {
	return &MaintenanceHandler{authService: authService}
}

// SweepSessionsResponse represents the sweep result.
type SweepSessionsResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// SweepSessions godoc
// @Summary Delete all expired sessions
// @Tags maintenance
// @Produce json
// @Security CookieAuth
// @Success 200 {object} SweepSessionsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /maintenance/sessions/sweep [post]
func (h *MaintenanceHandler) SweepSessions(c echo.Context) error {
	count, err := h.authService.SweepExpiredSessions(c.Request().Context())
	if err != nil {
		httpErr := errs.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	log.Printf("session sweep removed %d expired sessions", count)

	return c.JSON(http.StatusOK, SweepSessionsResponse{
		Message: "Expired sessions removed",
		Count:   count,
	})
}
