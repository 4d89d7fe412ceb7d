// Package llm wraps the OpenAI-compatible chat completions API used by the
// assistant and suggestion features.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	// ErrRateLimited is returned when the upstream provider throttles us.
	ErrRateLimited = errors.New("llm: upstream rate limited")
	// ErrPaymentRequired is returned when the upstream account is out of credit.
	ErrPaymentRequired = errors.New("llm: upstream payment required")
	// ErrEmptyResponse is returned when the provider answers without content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Role of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the subset of LLM operations the dashboard needs.
type Client interface {
	// Complete returns the assistant reply for the conversation.
	Complete(ctx context.Context, system string, messages []Message) (string, error)
	// CompleteJSON asks for a reply conforming to schema and decodes it into out.
	CompleteJSON(ctx context.Context, system, prompt string, schema Schema, out any) error
}

// Schema describes a structured response format.
type Schema struct {
	Name        string
	Description string
	Definition  any
}

// GenerateSchema reflects a strict JSON schema for T.
func GenerateSchema[T any](name, description string) Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return Schema{Name: name, Description: description, Definition: reflector.Reflect(v)}
}

// Config configures the OpenAI client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type openAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a Client backed by openai-go. Retries are disabled so
// upstream 429s surface to the caller immediately.
func NewOpenAI(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &openAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

func (c *openAIClient) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	params = append(params, openai.SystemMessage(system))
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	chat, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: params,
		Model:    openai.ChatModel(c.model),
	})
	if err != nil {
		return "", classify(err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return chat.Choices[0].Message.Content, nil
}

func (c *openAIClient) CompleteJSON(ctx context.Context, system, prompt string, schema Schema, out any) error {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        schema.Name,
		Description: openai.String(schema.Description),
		Schema:      schema.Definition,
		Strict:      openai.Bool(true),
	}

	chat, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return classify(err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("llm: decode structured response: %w", err)
	}
	return nil
}

// classify maps provider status codes onto package sentinels.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %v", ErrPaymentRequired, err)
		}
	}
	return fmt.Errorf("llm: chat completion: %w", err)
}
