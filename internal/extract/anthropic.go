package extract

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicExtractor asks a Claude model for the name.
type AnthropicExtractor struct {
	client anthropic.Client
	model  string
}

func NewAnthropicExtractor(apiKey, model string, opts ...option.RequestOption) *AnthropicExtractor {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicExtractor{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (e *AnthropicExtractor) Extract(ctx context.Context, text string) (string, error) {
	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 64,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt + text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return Clean(b.String()), nil
}
