// Package policy evaluates request admission before any upstream call.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.generation_policy.decision"),
		rego.Module("generation_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input is the document evaluated against the policy.
type Input struct {
	Artifact     string `json:"artifact"`
	ProjectName  string `json:"project_name"`
	AnswersBytes int    `json:"answers_bytes"`
}

// Evaluate checks the generation policy.
// Returns: decision (allow, deny), reason (optional), error.
func (e *Engine) Evaluate(ctx context.Context, input *Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy is expected to define a default decision.
		return "allow", "default", nil
	}

	val := results[0].Expressions[0].Value
	if s, ok := val.(string); ok {
		return s, "", nil
	}
	if obj, ok := val.(map[string]interface{}); ok {
		decision, _ := obj["decision"].(string)
		reason, _ := obj["reason"].(string)
		if decision != "" {
			return decision, reason, nil
		}
	}

	return "allow", "unexpected return type", nil
}

// DefaultPolicy is the default policy content. It allows every recognized
// artifact and caps the questionnaire payload so oversized prompts are
// rejected before they reach the billable upstream call.
const DefaultPolicy = `
package generation_policy

default decision = "allow"

decision = "deny" {
	input.answers_bytes > 262144
}
`
