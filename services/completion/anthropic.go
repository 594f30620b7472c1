package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

type AnthropicService struct {
	client *anthropic.Client
}

func NewAnthropicService(apiKey string) (*AnthropicService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicService{client: &client}, nil
}

func (s *AnthropicService) Generate(ctx context.Context, prompt string, onFragment func(string) error) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.ModelClaude4Sonnet20250514,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(samplingTemperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	stream := s.client.Messages.NewStreaming(ctx, params)

	var sb strings.Builder
	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				sb.WriteString(delta.Text)
				if onFragment != nil {
					if err := onFragment(delta.Text); err != nil {
						return "", fmt.Errorf("fragment callback failed: %w", err)
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	return sb.String(), nil
}
