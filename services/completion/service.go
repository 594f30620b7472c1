package completion

import (
	"context"
	"fmt"
)

// Sampling settings are fixed for every request the bot makes.
const samplingTemperature = 0.7

// Service is the opaque text-generation port. Generate renders the final
// text for a fully rendered prompt. When onFragment is non-nil it is called
// with each incremental fragment in generation order; the fragments
// concatenate exactly to the returned string. onFragment may be nil for
// single-shot use. An error from onFragment aborts generation.
type Service interface {
	Generate(ctx context.Context, prompt string, onFragment func(fragment string) error) (string, error)
}

// New selects a provider implementation by name.
func New(provider, openAIKey, anthropicKey string) (Service, error) {
	switch provider {
	case "openai":
		return NewOpenAIService(openAIKey)
	case "anthropic":
		return NewAnthropicService(anthropicKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}
