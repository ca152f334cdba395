package assistant

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// DefaultClassifierModel is used for scope classification when none is configured.
const DefaultClassifierModel = openai.GPT4oMini

// OpenAIConfig configures the OpenAI client.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	ClassifierModel string
	Timeout         time.Duration
}

// OpenAIClient talks to the OpenAI Assistants v2 and chat completion APIs.
type OpenAIClient struct {
	client          *openai.Client
	classifierModel string
	log             zerolog.Logger
}

// NewOpenAIClient creates a client. The API key is required.
func NewOpenAIClient(cfg OpenAIConfig, log zerolog.Logger) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.ClassifierModel
	if model == "" {
		model = DefaultClassifierModel
	}

	log.Info().Str("classifier_model", model).Msg("initializing openai client")
	return &OpenAIClient{
		client:          openai.NewClientWithConfig(clientCfg),
		classifierModel: model,
		log:             log,
	}, nil
}

// CreateThread opens an empty thread.
func (c *OpenAIClient) CreateThread(ctx context.Context, metadata map[string]string) (*domain.Thread, error) {
	req := openai.ThreadRequest{}
	if len(metadata) > 0 {
		req.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			req.Metadata[k] = v
		}
	}
	thread, err := c.client.CreateThread(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &domain.Thread{
		ThreadID:  thread.ID,
		CreatedAt: time.Unix(thread.CreatedAt, 0),
		Metadata:  metadata,
	}, nil
}

// AppendTurn adds a message to the thread.
func (c *OpenAIClient) AppendTurn(ctx context.Context, threadID string, role domain.Role, content string) (*domain.Turn, error) {
	msg, err := c.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(role),
		Content: content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	turn := toTurn(msg)
	return &turn, nil
}

// CreateRun starts the assistant on the thread.
func (c *OpenAIClient) CreateRun(ctx context.Context, threadID, assistantID, additionalInstructions string) (*domain.Run, error) {
	run, err := c.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID:            assistantID,
		AdditionalInstructions: additionalInstructions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return toRun(run), nil
}

// GetRun retrieves the run state.
func (c *OpenAIClient) GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	run, err := c.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve run: %w", err)
	}
	return toRun(run), nil
}

// ListTurns lists messages of the thread.
func (c *OpenAIClient) ListTurns(ctx context.Context, threadID string, order domain.ListOrder, limit int) ([]domain.Turn, error) {
	orderParam := string(order)
	var limitParam *int
	if limit > 0 {
		limitParam = &limit
	}
	list, err := c.client.ListMessage(ctx, threadID, limitParam, &orderParam, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	turns := make([]domain.Turn, 0, len(list.Messages))
	for _, msg := range list.Messages {
		turns = append(turns, toTurn(msg))
	}
	return turns, nil
}

// Classify sends a deterministic single-shot chat completion.
func (c *OpenAIClient) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.classifierModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		// A zero temperature is dropped by omitempty; the smallest positive
		// float is sent instead and treated as 0 by the API.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   4,
	})
	if err != nil {
		return "", fmt.Errorf("classification call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("classification returned no choices")
	}
	c.log.Debug().Str("finish_reason", string(resp.Choices[0].FinishReason)).Msg("classification completed")
	return resp.Choices[0].Message.Content, nil
}

func toRun(run openai.Run) *domain.Run {
	out := &domain.Run{
		RunID:       run.ID,
		ThreadID:    run.ThreadID,
		AssistantID: run.AssistantID,
		Status:      domain.RunStatus(run.Status),
		CreatedAt:   time.Unix(run.CreatedAt, 0),
	}
	if run.LastError != nil {
		out.LastError = strings.TrimSpace(string(run.LastError.Code) + ": " + run.LastError.Message)
	}
	return out
}

func toTurn(msg openai.Message) domain.Turn {
	blocks := make([]domain.ContentBlock, 0, len(msg.Content))
	for _, content := range msg.Content {
		if content.Type == "text" && content.Text != nil {
			blocks = append(blocks, domain.TextBlock{Value: content.Text.Value})
			continue
		}
		blocks = append(blocks, domain.OtherBlock{Kind: content.Type})
	}
	return domain.Turn{
		TurnID:    msg.ID,
		ThreadID:  msg.ThreadID,
		Role:      domain.Role(msg.Role),
		Content:   blocks,
		CreatedAt: time.Unix(int64(msg.CreatedAt), 0),
	}
}
