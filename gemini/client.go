// Package gemini provides a streaming client for the Google Generative Language API.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docforge/docforge/domain"
)

// Client is the Generative Language API client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a new Gemini client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Content is one conversation turn in the upstream wire format.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a single content part. Only text parts are used here.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig is the upstream sampling configuration.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateContentRequest is the streamGenerateContent request body.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated candidate in a response chunk.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// UsageMetadata reports token usage for the call.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// StreamChunk is one SSE chunk of a streaming generation.
type StreamChunk struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// Text returns the concatenated text of the first candidate's parts.
func (s *StreamChunk) Text() string {
	if len(s.Candidates) == 0 || s.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range s.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// StreamCallback is called for each chunk in a streaming response. Returning
// an error stops consumption of the upstream stream.
type StreamCallback func(chunk *StreamChunk) error

// StreamGenerateContent opens a streaming generation and invokes callback for
// each chunk in arrival order. Open-time failures are classified before any
// chunk is delivered: upstream 429 becomes *RateLimitError, any other non-200
// becomes *APIError.
func (c *Client) StreamGenerateContent(ctx context.Context, turns []domain.Turn, cfg domain.ModelConfig, callback StreamCallback) (*UsageMetadata, error) {
	reqBody := &GenerateContentRequest{
		Contents: contentsFromTurns(turns),
		GenerationConfig: &GenerationConfig{
			Temperature:     cfg.Temperature,
			TopK:            cfg.TopK,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	// Parse SSE stream
	reader := bufio.NewReader(resp.Body)
	var usage *UsageMetadata

	for {
		select {
		case <-ctx.Done():
			return usage, ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return usage, fmt.Errorf("failed to read stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed chunks
			continue
		}

		if chunk.UsageMetadata != nil {
			usage = chunk.UsageMetadata
		}

		if err := callback(&chunk); err != nil {
			return usage, err
		}
	}

	return usage, nil
}

// contentsFromTurns maps conversation turns onto the upstream wire format.
func contentsFromTurns(turns []domain.Turn) []Content {
	contents := make([]Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, Content{
			Role:  string(t.Role),
			Parts: []Part{{Text: t.Text}},
		})
	}
	return contents
}
