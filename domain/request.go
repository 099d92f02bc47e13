package domain

// Answers carries the questionnaire fields rendered into prompts.
type Answers struct {
	ProjectName            string `json:"projectName"`
	ProjectOverview        string `json:"projectOverview"`
	CoreFeatures           string `json:"coreFeatures"`
	UIUX                   string `json:"uiUx"`
	TechArchitecture       string `json:"techArchitecture"`
	AdditionalRequirements string `json:"additionalRequirements"`
}

// GenerateRequest is the body of a generate call. The artifact type comes
// from the URL path, not the body.
type GenerateRequest struct {
	UserAnswers     *Answers               `json:"userAnswers"`
	SessionID       string                 `json:"sessionId,omitempty"`
	PreviousContext string                 `json:"previousContext,omitempty"`
	Options         map[string]interface{} `json:"options,omitempty"`
}

// PackageRequest is the body of a packaging call: the four generated
// documents plus the project name used for the archive layout.
type PackageRequest struct {
	Artifacts   map[string]string `json:"artifacts"`
	ProjectName string            `json:"projectName"`
}

// ErrorResponse is the JSON body of a non-streaming failure response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}
