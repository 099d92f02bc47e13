package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/docforge/docforge/domain"
)

// startGeneration records the generation row and its started event.
// Telemetry is best-effort and never blocks the generation itself.
func (h *Handler) startGeneration(ctx context.Context, generationID, sessionID string, artifact domain.ArtifactType) {
	if h.store == nil {
		return
	}

	gen := &domain.Generation{
		GenerationID: generationID,
		SessionID:    sessionID,
		Artifact:     artifact,
		Model:        h.gateway.Model(),
		Status:       domain.GenerationStatusRunning,
		StartedAt:    time.Now(),
	}
	if err := h.store.CreateGeneration(ctx, gen); err != nil {
		log.Printf("WARN: failed to record generation: %v", err)
		return
	}

	if err := h.recordEvent(ctx, generationID, domain.EventTypeGenerationStarted, domain.GenerationStartedPayload{
		SessionID: sessionID,
		Artifact:  artifact,
		Model:     h.gateway.Model(),
	}); err != nil {
		log.Printf("WARN: failed to record generation_started event: %v", err)
	}
}

// finishGeneration closes out the generation row and records the done event.
func (h *Handler) finishGeneration(ctx context.Context, generationID, sessionID string, artifact domain.ArtifactType, startTime time.Time, chunks int, totalBytes int64, genErr error) {
	if h.store == nil {
		return
	}

	status := domain.GenerationStatusDone
	errMsg := ""
	if genErr != nil {
		status = domain.GenerationStatusFailed
		errMsg = genErr.Error()
		if errors.Is(genErr, errClientGone) || errors.Is(genErr, context.Canceled) {
			status = domain.GenerationStatusCancelled
		}
	}

	if err := h.store.UpdateGenerationCompleted(ctx, generationID, status, errMsg); err != nil {
		log.Printf("WARN: failed to update generation: %v", err)
	}

	payload := domain.GenerationDonePayload{
		SessionID:  sessionID,
		Artifact:   artifact,
		Model:      h.gateway.Model(),
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Chunks:     chunks,
		TotalBytes: totalBytes,
		Error:      errMsg,
	}
	if err := h.recordEvent(ctx, generationID, domain.EventTypeGenerationDone, payload); err != nil {
		log.Printf("WARN: failed to record generation_done event: %v", err)
	}
}

// recordEvent records an event to the store.
func (h *Handler) recordEvent(ctx context.Context, generationID string, eventType domain.EventType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID:      "evt_" + uuid.New().String()[:8],
		GenerationID: generationID,
		Ts:           time.Now().UnixMilli(),
		Type:         eventType,
		Payload:      payloadBytes,
	}

	return h.store.CreateEvent(ctx, event)
}
