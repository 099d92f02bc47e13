package prompt

import (
	"fmt"
	"strings"

	"github.com/docforge/docforge/domain"
)

// templateFunc renders the questionnaire answers into one artifact prompt.
type templateFunc func(*domain.Answers) string

var templates = map[domain.ArtifactType]templateFunc{
	domain.ArtifactBlueprint:    blueprintPrompt,
	domain.ArtifactArchitecture: architecturePrompt,
	domain.ArtifactGuide:        guidePrompt,
	domain.ArtifactTasks:        tasksPrompt,
}

// answersBlock renders the questionnaire fields shared by every template.
func answersBlock(a *domain.Answers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project name: %s\n", a.ProjectName)
	fmt.Fprintf(&b, "Project overview: %s\n", a.ProjectOverview)
	fmt.Fprintf(&b, "Core features: %s\n", a.CoreFeatures)
	fmt.Fprintf(&b, "UI/UX requirements: %s\n", a.UIUX)
	fmt.Fprintf(&b, "Technical architecture: %s\n", a.TechArchitecture)
	if a.AdditionalRequirements != "" {
		fmt.Fprintf(&b, "Additional requirements: %s\n", a.AdditionalRequirements)
	}
	return b.String()
}

func blueprintPrompt(a *domain.Answers) string {
	return fmt.Sprintf(`You are a senior product architect. Based on the following project questionnaire, write a comprehensive project blueprint in Markdown. Cover the product vision, target users, feature breakdown with priorities, suggested milestones, and key risks.

%s
Write the blueprint now. Use clear Markdown headings and keep each section substantial.`, answersBlock(a))
}

func architecturePrompt(a *domain.Answers) string {
	return fmt.Sprintf(`You are a principal software engineer. Using the project questionnaire below and any project documents generated earlier in this conversation, write a detailed technical architecture document in Markdown. Cover the system components, data model, API surface, technology choices with rationale, and deployment topology.

%s
Write the architecture document now.`, answersBlock(a))
}

func guidePrompt(a *domain.Answers) string {
	return fmt.Sprintf(`You are an experienced tech lead. Using the project questionnaire below and any project documents generated earlier in this conversation, write a step-by-step implementation guide in Markdown for a developer building this project from scratch. Order the steps by dependency, include setup instructions, and call out common pitfalls.

%s
Write the implementation guide now.`, answersBlock(a))
}

func tasksPrompt(a *domain.Answers) string {
	return fmt.Sprintf(`You are a project planner. Using the project questionnaire below and any project documents generated earlier in this conversation, produce a flat task list for building this project as a JSON array. Each element must be an object with fields "id" (number), "title" (string), "description" (string), "dependsOn" (array of ids), and "status" (always "todo").

%s
Respond with only the JSON array, no prose.`, answersBlock(a))
}
