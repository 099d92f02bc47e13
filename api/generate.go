package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/docforge/docforge/domain"
	"github.com/docforge/docforge/gemini"
	"github.com/docforge/docforge/policy"
	"github.com/docforge/docforge/prompt"
)

// Generate handles a streaming generation request.
// POST /api/generate/:artifact
//
// Failures before the first chunk is written get a JSON error response with
// the appropriate status code. Once streaming has begun the status is
// committed as 200 and a mid-stream failure is reported inside the body as
// an "Error:" suffix.
func (h *Handler) Generate(c echo.Context) error {
	ctx := c.Request().Context()

	artifact, err := domain.ParseArtifact(c.Param("artifact"))
	if err != nil {
		return h.writeClassifiedError(c, err)
	}

	var req domain.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error: "Invalid request body",
		})
	}
	if req.UserAnswers == nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error: "Missing userAnswers in request body",
		})
	}

	if resp := h.checkPolicy(ctx, c, artifact, &req); resp != nil {
		return resp()
	}

	sessionID, history := h.sessions.GetOrCreate(req.SessionID, req.UserAnswers)

	// A client that kept its own context (no server-side session yet) may
	// hand it back as previousContext. Seed the history with it as a
	// user/model pair so the alternation invariant holds.
	if len(history) == 0 && req.PreviousContext != "" {
		seed := []domain.Turn{
			{Role: domain.RoleUser, Text: "Here is context from previously generated project documents:\n\n" + req.PreviousContext},
			{Role: domain.RoleModel, Text: "Understood. I will use this context for the next document."},
		}
		for _, t := range seed {
			h.sessions.Append(sessionID, t.Role, t.Text)
		}
		history = seed
	}

	turns, err := prompt.Build(artifact, req.UserAnswers, history)
	if err != nil {
		return h.writeClassifiedError(c, err)
	}
	modelCfg := domain.ConfigFor(artifact)

	generationID := "gen_" + uuid.New().String()[:8]
	startTime := time.Now()
	h.startGeneration(ctx, generationID, sessionID, artifact)

	sw, err := newStreamWriter(c.Response(), sessionID)
	if err != nil {
		h.finishGeneration(context.WithoutCancel(ctx), generationID, sessionID, artifact, startTime, 0, 0, err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Failed to generate content with AI",
			Details: err.Error(),
		})
	}

	stripper := transformFor(artifact)
	var accumulated strings.Builder

	_, err = h.gateway.StreamGenerateContent(ctx, turns, modelCfg, func(chunk *gemini.StreamChunk) error {
		text := chunk.Text()
		if stripper != nil {
			text = stripper.Feed(text)
		}
		if text == "" {
			return nil
		}
		accumulated.WriteString(text)
		if !sw.safeWrite(text) {
			return errClientGone
		}
		return nil
	})

	// Flush any text the stripper is still holding back so it is lost from
	// neither the body nor the recorded history. On a pre-stream failure
	// nothing was written yet and the tail must not commit the response.
	if stripper != nil {
		if tail := stripper.Finish(); tail != "" {
			accumulated.WriteString(tail)
			if err == nil || sw.streamStarted() {
				sw.safeWrite(tail)
			}
		}
	}

	chunks, totalBytes := sw.counters()
	// The request context dies with a client disconnect; telemetry writes
	// must survive it.
	storeCtx := context.WithoutCancel(ctx)

	switch {
	case err == nil:
		sw.commit()
		sw.safeClose()
		h.sessions.Append(sessionID, domain.RoleModel, accumulated.String())
		h.finishGeneration(storeCtx, generationID, sessionID, artifact, startTime, chunks, totalBytes, nil)
		return nil

	case errors.Is(err, errClientGone) || errors.Is(err, context.Canceled):
		// Consumer is gone; the upstream stream was abandoned. Keep what
		// was generated so a follow-up request still has the context.
		sw.safeClose()
		if accumulated.Len() > 0 {
			h.sessions.Append(sessionID, domain.RoleModel, accumulated.String())
		}
		h.finishGeneration(storeCtx, generationID, sessionID, artifact, startTime, chunks, totalBytes, err)
		return nil

	case sw.streamStarted():
		// Headers already went out as 200; the failure can only be
		// reported inside the body.
		log.Printf("ERROR: generation %s failed mid-stream: %v", generationID, err)
		sw.safeWrite(fmt.Sprintf("\n\nError: %s", err.Error()))
		sw.safeClose()
		if accumulated.Len() > 0 {
			h.sessions.Append(sessionID, domain.RoleModel, accumulated.String())
		}
		h.finishGeneration(storeCtx, generationID, sessionID, artifact, startTime, chunks, totalBytes, err)
		return nil

	default:
		// Open-time failure: no bytes were sent, the status code is still ours.
		h.finishGeneration(storeCtx, generationID, sessionID, artifact, startTime, chunks, totalBytes, err)
		return h.writeClassifiedError(c, err)
	}
}

// checkPolicy evaluates the admission policy. It returns a non-nil response
// func when the request must be rejected.
func (h *Handler) checkPolicy(ctx context.Context, c echo.Context, artifact domain.ArtifactType, req *domain.GenerateRequest) func() error {
	if h.policy == nil {
		return nil
	}

	payload, _ := json.Marshal(req.UserAnswers)
	decision, reason, err := h.policy.Evaluate(ctx, &policy.Input{
		Artifact:     string(artifact),
		ProjectName:  req.UserAnswers.ProjectName,
		AnswersBytes: len(payload),
	})
	if err != nil {
		log.Printf("ERROR: policy evaluation failed: %v", err)
		return func() error {
			return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Failed to generate content with AI",
				Details: "policy evaluation failed",
			})
		}
	}
	if decision == "deny" {
		return func() error {
			return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Request rejected by generation policy",
				Details: reason,
			})
		}
	}
	return nil
}

// writeClassifiedError maps a pre-stream failure to its response shape.
func (h *Handler) writeClassifiedError(c echo.Context, err error) error {
	var unknownArtifact *domain.UnknownArtifactError
	if errors.As(err, &unknownArtifact) {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error: fmt.Sprintf("Unknown artifact type: %s", unknownArtifact.Name),
		})
	}

	var rateLimit *gemini.RateLimitError
	if errors.As(err, &rateLimit) {
		return c.JSON(http.StatusTooManyRequests, domain.ErrorResponse{
			Error:   "API rate limit exceeded",
			Details: "The upstream model is throttling requests. Wait a moment and resubmit.",
			Code:    "RATE_LIMIT",
		})
	}

	log.Printf("ERROR: generation failed before streaming: %v", err)
	return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
		Error:   "Failed to generate content with AI",
		Details: err.Error(),
	})
}
