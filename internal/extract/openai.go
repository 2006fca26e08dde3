package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIExtractor asks an OpenAI chat model for the name.
type OpenAIExtractor struct {
	client openai.Client
	model  string
}

func NewOpenAIExtractor(apiKey, model string, opts ...option.RequestOption) *OpenAIExtractor {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIExtractor{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string) (string, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(e.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(Prompt + text)},
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("empty response from openai")
	}
	return Clean(resp.Choices[0].Message.Content), nil
}
