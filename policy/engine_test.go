package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewDefaultEngine(ctx)
	require.NoError(t, err)

	tests := []struct {
		name   string
		input  Input
		allow  bool
		reason string
	}{
		{
			name:  "no allow-list",
			input: Input{AssistantID: "asst_1", ThreadID: "thread_1"},
			allow: true,
		},
		{
			name:  "matching allow-list",
			input: Input{AssistantID: "asst_1", ThreadID: "thread_1", AllowedAssistantID: "asst_1", AllowedThreadID: "thread_1"},
			allow: true,
		},
		{
			name:   "wrong assistant",
			input:  Input{AssistantID: "asst_2", ThreadID: "thread_1", AllowedAssistantID: "asst_1"},
			reason: "assistant not allowed",
		},
		{
			name:   "wrong thread",
			input:  Input{AssistantID: "asst_1", ThreadID: "thread_2", AllowedThreadID: "thread_1"},
			reason: "thread not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Evaluate(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.allow, decision.Allow)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestNewEngine_InvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package chat_access\n\ndecision = {")
	assert.Error(t, err)
}

func TestEvaluate_UnexpectedType(t *testing.T) {
	engine, err := NewEngine(context.Background(), "package chat_access\n\ndecision = \"allow\"\n")
	require.NoError(t, err)

	_, err = engine.Evaluate(context.Background(), Input{})
	assert.Error(t, err)
}
