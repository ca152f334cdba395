// Package policy evaluates the chat access policy with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Input is the document the access policy is evaluated against.
type Input struct {
	AssistantID        string `json:"assistant_id"`
	ThreadID           string `json:"thread_id"`
	AllowedAssistantID string `json:"allowed_assistant_id"`
	AllowedThreadID    string `json:"allowed_thread_id"`
}

// Decision is the policy result.
type Decision struct {
	Allow  bool
	Reason string
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must define data.chat_access.decision as {"allow": bool, "reason": string}.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_access.decision"),
		rego.Module("chat_access.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewDefaultEngine creates an engine running DefaultPolicy.
func NewDefaultEngine(ctx context.Context) (*Engine, error) {
	return NewEngine(ctx, DefaultPolicy)
}

// Evaluate checks whether the request may reach the assistant.
// A policy that yields no decision denies.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Reason: "no decision"}, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected decision type %T", results[0].Expressions[0].Value)
	}
	allow, _ := obj["allow"].(bool)
	reason, _ := obj["reason"].(string)
	return Decision{Allow: allow, Reason: reason}, nil
}

// DefaultPolicy allows everything unless an allowed assistant or thread id is
// configured, in which case the request must match it.
const DefaultPolicy = `
package chat_access

default assistant_ok = false

assistant_ok {
	input.allowed_assistant_id == ""
}

assistant_ok {
	input.assistant_id == input.allowed_assistant_id
}

default thread_ok = false

thread_ok {
	input.allowed_thread_id == ""
}

thread_ok {
	input.thread_id == input.allowed_thread_id
}

default allow = false

allow {
	assistant_ok
	thread_ok
}

default reason = ""

reason = "assistant not allowed" {
	not assistant_ok
}

reason = "thread not allowed" {
	assistant_ok
	not thread_ok
}

decision = {"allow": allow, "reason": reason}
`
