package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docforge/docforge/domain"
)

// GetSession returns the turn history of one session.
// GET /api/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	turns, ok := h.sessions.History(sessionID)
	if !ok {
		return c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error: "Session not found",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"turns":      turns,
	})
}

// ListGenerations returns recent generation telemetry.
// GET /api/generations
func (h *Handler) ListGenerations(c echo.Context) error {
	gens, err := h.store.ListGenerations(c.Request().Context(), 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Failed to list generations",
			Details: err.Error(),
		})
	}
	if gens == nil {
		gens = []domain.Generation{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"generations": gens,
	})
}
