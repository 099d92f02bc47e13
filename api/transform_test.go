package api

import (
	"strings"
	"testing"

	"github.com/docforge/docforge/domain"
)

// runStripper feeds chunks through a fenceStripper and returns the full
// emitted output.
func runStripper(chunks []string) string {
	f := &fenceStripper{}
	var out strings.Builder
	for _, c := range chunks {
		out.WriteString(f.Feed(c))
	}
	out.WriteString(f.Finish())
	return out.String()
}

func TestFenceStripperBasic(t *testing.T) {
	got := runStripper([]string{"```json\n", `{"a":1}`, "\n```"})
	if got != `{"a":1}` {
		t.Fatalf("expected %q, got %q", `{"a":1}`, got)
	}
}

func TestFenceStripperStraddledBoundaries(t *testing.T) {
	// The fence markers are split across chunks; a per-chunk prefix check
	// would miss both of them.
	got := runStripper([]string{"``", "`json\n", `{"a":1}`, "\n``", "`"})
	if got != `{"a":1}` {
		t.Fatalf("expected %q, got %q", `{"a":1}`, got)
	}
}

func TestFenceStripperLeadingWhitespace(t *testing.T) {
	got := runStripper([]string{" \n", "```json\n", `{"a":1}`, "\n```\n"})
	if got != `{"a":1}` {
		t.Fatalf("expected %q, got %q", `{"a":1}`, got)
	}
}

func TestFenceStripperBareFence(t *testing.T) {
	got := runStripper([]string{"```\n", "[1,2]", "\n```"})
	if got != "[1,2]" {
		t.Fatalf("expected %q, got %q", "[1,2]", got)
	}
}

func TestFenceStripperNoFence(t *testing.T) {
	got := runStripper([]string{"hello ", "world"})
	if got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
}

func TestFenceStripperSingleChunk(t *testing.T) {
	got := runStripper([]string{"```json\n{\"a\":1}\n```"})
	if got != `{"a":1}` {
		t.Fatalf("expected %q, got %q", `{"a":1}`, got)
	}
}

func TestFenceStripperInteriorFencePreserved(t *testing.T) {
	// Only a fence wrapping the whole stream is stripped; fences in the
	// middle of the document stay.
	got := runStripper([]string{"intro\n```\ncode\n```\noutro"})
	if got != "intro\n```\ncode\n```\noutro" {
		t.Fatalf("interior fence was altered: %q", got)
	}
}

func TestFenceStripperNoTrailingFence(t *testing.T) {
	got := runStripper([]string{"```json\n", `{"a":1}`})
	if got != `{"a":1}` {
		t.Fatalf("expected %q, got %q", `{"a":1}`, got)
	}
}

func TestTransformForIdentity(t *testing.T) {
	if transformFor(domain.ArtifactBlueprint) != nil {
		t.Fatalf("expected identity transform for blueprint")
	}
	if transformFor(domain.ArtifactTasks) == nil {
		t.Fatalf("expected fence stripper for tasks")
	}
}
