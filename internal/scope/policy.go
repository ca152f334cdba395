// Package scope decides whether a chat message belongs to the assistant's
// domain before any expensive model call is made.
package scope

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// Policy is the configuration data behind scope decisions: term sets,
// uncertainty phrases and the canned texts shown to users.
type Policy struct {
	Domain             string   `yaml:"domain"`
	StrongTerms        []string `yaml:"strong_terms"`
	WeakTerms          []string `yaml:"weak_terms"`
	ActionTerms        []string `yaml:"action_terms"`
	UncertaintyPhrases []string `yaml:"uncertainty_phrases"`
	RefusalMessage     string   `yaml:"refusal_message"`
	FallbackMessage    string   `yaml:"fallback_message"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("scope: embedded policy is invalid: %v", err))
	}
	return p
}

// LoadPolicy reads a policy file. An empty path returns the built-in policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scope policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and normalizes a YAML policy.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse scope policy: %w", err)
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the policy can drive a classifier.
func (p *Policy) Validate() error {
	var errs []error
	if len(p.StrongTerms) == 0 && len(p.WeakTerms) == 0 {
		errs = append(errs, errors.New("at least one strong or weak term is required"))
	}
	if strings.TrimSpace(p.RefusalMessage) == "" {
		errs = append(errs, errors.New("refusal_message is required"))
	}
	if strings.TrimSpace(p.FallbackMessage) == "" {
		errs = append(errs, errors.New("fallback_message is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid scope policy: %w", err)
	}
	return nil
}

func (p *Policy) normalize() {
	p.StrongTerms = normalizeTerms(p.StrongTerms)
	p.WeakTerms = normalizeTerms(p.WeakTerms)
	p.ActionTerms = normalizeTerms(p.ActionTerms)
	p.UncertaintyPhrases = normalizeTerms(p.UncertaintyPhrases)
	p.Domain = strings.TrimSpace(p.Domain)
	p.RefusalMessage = strings.TrimSpace(p.RefusalMessage)
	p.FallbackMessage = strings.TrimSpace(p.FallbackMessage)
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IsUncertain reports whether text contains one of the uncertainty phrases.
func (p *Policy) IsUncertain(text string) bool {
	return containsAny(strings.ToLower(text), p.UncertaintyPhrases)
}

func (p *Policy) hasStrong(lower string) bool { return containsAny(lower, p.StrongTerms) }
func (p *Policy) hasWeak(lower string) bool   { return containsAny(lower, p.WeakTerms) }
func (p *Policy) hasAction(lower string) bool { return containsAny(lower, p.ActionTerms) }

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
