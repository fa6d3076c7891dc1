// Package agent wraps an OpenAI-compatible chat model behind a streaming
// interface used by the chat workflows.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Sangwon91/prior/protocol"
)

const systemPromptTemplate = "You are a coding assistant. Here is the project structure:\n\n%s\n\nYou can answer questions about the project structure and help with coding tasks."

// Config controls how the model is called. BaseURL allows pointing the
// client at any OpenAI-compatible endpoint.
type Config struct {
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4o,
		Temperature: 0.5,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Temperature != 0 {
		c.Temperature = source.Temperature
	}
	if source.MaxTokens != 0 {
		c.MaxTokens = source.MaxTokens
	}
}

// Agent is a thin wrapper around the chat completion API for streaming
// conversations.
type Agent struct {
	client *openai.Client
	config Config
}

// New creates an agent from config.
func New(config Config) *Agent {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &Agent{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Model returns the configured model name.
func (a *Agent) Model() string {
	return a.config.Model
}

// Stream sends the conversation to the model and streams the response.
// onChunk is invoked for every non-empty content delta; returning an error
// from it aborts the stream. The accumulated response text is returned.
// projectContext, when non-empty, is prepended as a system message.
func (a *Agent) Stream(ctx context.Context, history []protocol.ChatMessage, projectContext string, onChunk func(chunk string) error) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.config.Model,
		Messages:    buildMessages(history, projectContext),
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
		Stream:      true,
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return "", fmt.Errorf("failed to start completion stream: %w", err)
	}
	defer stream.Close()

	var response strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return response.String(), fmt.Errorf("completion stream failed: %w", err)
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		response.WriteString(delta)
		if onChunk != nil {
			if err := onChunk(delta); err != nil {
				return response.String(), err
			}
		}
	}

	return response.String(), nil
}

// Complete sends the conversation to the model and returns the full
// response in one call.
func (a *Agent) Complete(ctx context.Context, history []protocol.ChatMessage, projectContext string) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.config.Model,
		Messages:    buildMessages(history, projectContext),
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	}

	response, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}

// buildMessages converts the chat history to API messages, prepending the
// project context as a system message when present.
func buildMessages(history []protocol.ChatMessage, projectContext string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)

	if projectContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf(systemPromptTemplate, projectContext),
		})
	}

	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return messages
}
