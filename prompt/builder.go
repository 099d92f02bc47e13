// Package prompt builds the conversation sent upstream for each artifact type.
package prompt

import (
	"github.com/docforge/docforge/domain"
)

// Build renders the prompt for one artifact and appends it to the prior
// history as the final user turn. The artifact type is validated here,
// before any upstream call is made.
func Build(artifact domain.ArtifactType, answers *domain.Answers, history []domain.Turn) ([]domain.Turn, error) {
	render, ok := templates[artifact]
	if !ok {
		return nil, &domain.UnknownArtifactError{Name: string(artifact)}
	}

	turns := make([]domain.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, domain.Turn{
		Role: domain.RoleUser,
		Text: render(answers),
	})
	return turns, nil
}
