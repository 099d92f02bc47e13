// Package api provides HTTP handlers for the generation service.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docforge/docforge/config"
	"github.com/docforge/docforge/gemini"
	"github.com/docforge/docforge/policy"
	"github.com/docforge/docforge/session"
	"github.com/docforge/docforge/store"
)

// Handler handles HTTP requests.
type Handler struct {
	sessions session.Store
	store    store.Store
	gateway  gemini.StreamClient
	policy   *policy.Engine
	config   *config.Config
}

// NewHandler creates a new handler.
func NewHandler(sessions session.Store, store store.Store, gateway gemini.StreamClient, policyEngine *policy.Engine, config *config.Config) *Handler {
	return &Handler{
		sessions: sessions,
		store:    store,
		gateway:  gateway,
		policy:   policyEngine,
		config:   config,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Generation API
	e.POST("/api/generate/:artifact", h.Generate)
	e.POST("/api/package", h.Package)

	// Inspection API
	e.GET("/api/sessions/:session_id", h.GetSession)
	e.GET("/api/generations", h.ListGenerations)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
