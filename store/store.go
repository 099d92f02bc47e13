// Package store defines the telemetry storage interface and implementations.
//
// Conversation history deliberately does not live here: it is in-memory only
// (see package session). The store records generation runs and their events
// for operators.
package store

import (
	"context"

	"github.com/docforge/docforge/domain"
)

// Store defines the interface for telemetry persistence.
type Store interface {
	// Generation operations
	CreateGeneration(ctx context.Context, gen *domain.Generation) error
	GetGeneration(ctx context.Context, generationID string) (*domain.Generation, error)
	UpdateGenerationCompleted(ctx context.Context, generationID string, status domain.GenerationStatus, errMsg string) error
	ListGenerations(ctx context.Context, limit int) ([]domain.Generation, error)

	// Event operations
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, generationID string, afterTs int64, types []string, limit int) ([]domain.Event, error)

	// Lifecycle
	Close() error
}
