package gemini

import (
	"context"
	"strings"

	"github.com/docforge/docforge/domain"
)

// MockClient is a mock implementation of StreamClient for development and tests.
type MockClient struct{}

// NewMockClient creates a new mock Gemini client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements StreamClient interface.
var _ StreamClient = (*MockClient)(nil)

// Model returns the mock model name.
func (m *MockClient) Model() string {
	return "mock-gemini"
}

// StreamGenerateContent simulates a streaming generation by splitting a
// canned document into small chunks.
func (m *MockClient) StreamGenerateContent(ctx context.Context, turns []domain.Turn, cfg domain.ModelConfig, callback StreamCallback) (*UsageMetadata, error) {
	text := m.generateMockDocument(turns)
	chunks := splitIntoChunks(text, 16)

	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		finishReason := ""
		if i == len(chunks)-1 {
			finishReason = "STOP"
		}

		streamChunk := &StreamChunk{
			Candidates: []Candidate{
				{
					Content: &Content{
						Role:  string(domain.RoleModel),
						Parts: []Part{{Text: chunk}},
					},
					FinishReason: finishReason,
				},
			},
			ModelVersion: "mock-gemini",
		}

		if err := callback(streamChunk); err != nil {
			return nil, err
		}
	}

	return &UsageMetadata{
		PromptTokenCount:     estimateTokens(turns),
		CandidatesTokenCount: len(text) / 4,
		TotalTokenCount:      estimateTokens(turns) + len(text)/4,
	}, nil
}

// generateMockDocument produces a canned response based on the final prompt.
// Task-list prompts ask for JSON, so those get a fenced JSON block to
// exercise the same output shape as the real model.
func (m *MockClient) generateMockDocument(turns []domain.Turn) string {
	prompt := ""
	if len(turns) > 0 {
		prompt = turns[len(turns)-1].Text
	}

	if strings.Contains(prompt, "JSON") {
		return "```json\n[\n  {\"id\": 1, \"title\": \"Set up project scaffolding\", \"status\": \"todo\"},\n  {\"id\": 2, \"title\": \"Implement core features\", \"status\": \"todo\"}\n]\n```"
	}

	return "# Mock Document\n\nThis is a mock generation produced without calling the upstream model. " +
		"It covers the requested project at a high level and is only useful for local development and tests.\n"
}

// splitIntoChunks splits text into chunks of roughly size characters.
func splitIntoChunks(text string, size int) []string {
	if size <= 0 {
		return []string{text}
	}
	var chunks []string
	for len(text) > size {
		chunks = append(chunks, text[:size])
		text = text[size:]
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

// estimateTokens estimates the prompt token count for mock usage reporting.
func estimateTokens(turns []domain.Turn) int {
	total := 0
	for _, t := range turns {
		total += len(t.Text)
	}
	return total / 4
}
