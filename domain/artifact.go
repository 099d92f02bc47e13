// Package domain defines the core domain models for the generation service.
package domain

import "fmt"

// ArtifactType identifies one of the four generated document types.
type ArtifactType string

const (
	ArtifactBlueprint    ArtifactType = "blueprint"
	ArtifactArchitecture ArtifactType = "architecture"
	ArtifactGuide        ArtifactType = "guide"
	ArtifactTasks        ArtifactType = "tasks"
)

// UnknownArtifactError is returned when a request names an artifact type
// outside the four recognized values.
type UnknownArtifactError struct {
	Name string
}

func (e *UnknownArtifactError) Error() string {
	return fmt.Sprintf("unknown artifact type: %s", e.Name)
}

// ParseArtifact validates a raw artifact name.
func ParseArtifact(name string) (ArtifactType, error) {
	switch ArtifactType(name) {
	case ArtifactBlueprint, ArtifactArchitecture, ArtifactGuide, ArtifactTasks:
		return ArtifactType(name), nil
	}
	return "", &UnknownArtifactError{Name: name}
}

// ModelConfig holds the sampling configuration sent upstream for one artifact.
type ModelConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// ConfigFor returns the sampling configuration for an artifact type.
// Blueprint and tasks generations run cooler and with a larger token budget
// than architecture and guide.
func ConfigFor(artifact ArtifactType) ModelConfig {
	switch artifact {
	case ArtifactBlueprint:
		return ModelConfig{Temperature: 0.5, TopK: 40, TopP: 0.95, MaxOutputTokens: 16384}
	case ArtifactTasks:
		return ModelConfig{Temperature: 0.4, TopK: 40, TopP: 0.95, MaxOutputTokens: 16384}
	default:
		return ModelConfig{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 8192}
	}
}
