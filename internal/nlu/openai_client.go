package nlu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/starskyline/bareerah/internal/extcall"
)

const dependencyOpenAI = "openai"

type openAIChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements LLMClient with the OpenAI chat completions API.
type OpenAIClient struct {
	api   openAIChatAPI
	model string
}

// NewOpenAIClient builds a client for model using apiKey.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("nlu: openai api key is required")
	}
	return newOpenAIClient(openai.NewClient(apiKey), model), nil
}

func newOpenAIClient(api openAIChatAPI, model string) *OpenAIClient {
	if api == nil {
		panic("nlu: openai client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = openai.GPT4o
	}
	return &OpenAIClient{api: api, model: model}
}

func (c *OpenAIClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(strings.Join(req.System, "\n\n")); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: content})
		case ChatRoleUser:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content})
		case ChatRoleAssistant:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})
		default:
			return LLMResponse{}, fmt.Errorf("nlu: unsupported role %q", msg.Role)
		}
	}

	completion := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		TopP:     req.TopP,
	}
	if req.MaxTokens > 0 {
		completion.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		completion.Temperature = req.Temperature
	}
	if req.JSONMode {
		completion.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.api.CreateChatCompletion(ctx, completion)
	if err != nil {
		return LLMResponse{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, extcall.Invalid(dependencyOpenAI, errors.New("no choices returned"))
	}
	choice := resp.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500:
			return extcall.Unavailable(dependencyOpenAI, err)
		case apiErr.HTTPStatusCode >= 400:
			return extcall.Invalid(dependencyOpenAI, err)
		}
	}
	return extcall.Classify(dependencyOpenAI, err)
}
