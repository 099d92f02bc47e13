package gemini

import (
	"context"

	"github.com/docforge/docforge/domain"
)

// StreamClient defines the interface for the upstream generation model.
type StreamClient interface {
	// StreamGenerateContent opens a streaming generation and invokes the
	// callback for each chunk received.
	StreamGenerateContent(ctx context.Context, turns []domain.Turn, cfg domain.ModelConfig, callback StreamCallback) (*UsageMetadata, error)

	// Model returns the model name used for generations.
	Model() string
}

// Ensure Client implements StreamClient interface.
var _ StreamClient = (*Client)(nil)
