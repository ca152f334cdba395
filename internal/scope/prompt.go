package scope

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	tokenIn  = "IN"
	tokenOut = "OUT"
)

func (c *Classifier) systemPrompt() string {
	domainText := c.policy.Domain
	if domainText == "" {
		domainText = "the use and operation of the target financial model"
	}
	return fmt.Sprintf(`You are a strict binary classifier for a support assistant.
The assistant only answers questions about %s.
Decide whether the latest user message, read together with the recent conversation, belongs to that topic.
Short follow-ups that continue an in-topic conversation are in topic.
Reply with exactly one word: %s if it belongs to the topic, %s otherwise.`, domainText, tokenIn, tokenOut)
}

func userPrompt(recent, message string) string {
	if strings.TrimSpace(recent) == "" {
		recent = "(none)"
	}
	return fmt.Sprintf("Recent conversation:\n%s\n\nLatest message:\n%s", recent, message)
}

// parseVerdict reads the first word of the model answer.
func parseVerdict(answer string) (inScope bool, ok bool) {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(fields) == 0 {
		return false, false
	}
	switch strings.ToUpper(fields[0]) {
	case tokenIn:
		return true, true
	case tokenOut:
		return false, true
	}
	return false, false
}
