package gemini

import (
	"context"
	"strings"
	"testing"

	"github.com/docforge/docforge/domain"
)

func TestMockClientStreamsDocument(t *testing.T) {
	client := NewMockClient()

	var got strings.Builder
	usage, err := client.StreamGenerateContent(context.Background(),
		[]domain.Turn{{Role: domain.RoleUser, Text: "write a blueprint"}},
		domain.ConfigFor(domain.ArtifactBlueprint),
		func(chunk *StreamChunk) error {
			got.WriteString(chunk.Text())
			return nil
		})
	if err != nil {
		t.Fatalf("StreamGenerateContent failed: %v", err)
	}
	if !strings.Contains(got.String(), "Mock Document") {
		t.Fatalf("unexpected mock output: %q", got.String())
	}
	if usage == nil || usage.TotalTokenCount == 0 {
		t.Fatalf("expected mock usage, got %+v", usage)
	}
}

func TestMockClientEmitsFencedJSONForTaskPrompts(t *testing.T) {
	client := NewMockClient()

	var got strings.Builder
	_, err := client.StreamGenerateContent(context.Background(),
		[]domain.Turn{{Role: domain.RoleUser, Text: "produce a task list as a JSON array"}},
		domain.ConfigFor(domain.ArtifactTasks),
		func(chunk *StreamChunk) error {
			got.WriteString(chunk.Text())
			return nil
		})
	if err != nil {
		t.Fatalf("StreamGenerateContent failed: %v", err)
	}
	if !strings.HasPrefix(got.String(), "```json\n") {
		t.Fatalf("task mock must be fenced, got %q", got.String())
	}
}

func TestSplitIntoChunks(t *testing.T) {
	chunks := splitIntoChunks("abcdefghij", 4)
	if len(chunks) != 3 || chunks[0] != "abcd" || chunks[2] != "ij" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
	if joined := strings.Join(chunks, ""); joined != "abcdefghij" {
		t.Fatalf("chunks lost text: %q", joined)
	}
}
