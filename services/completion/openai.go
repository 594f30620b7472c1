package completion

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const openAIModel = "gpt-4o"

type OpenAIService struct {
	llm llms.Model
}

func NewOpenAIService(apiKey string) (*OpenAIService, error) {
	llm, err := openai.New(
		openai.WithModel(openAIModel),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAIService{llm: llm}, nil
}

func (s *OpenAIService) Generate(ctx context.Context, prompt string, onFragment func(string) error) (string, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(samplingTemperature),
	}

	if onFragment != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return onFragment(string(chunk))
		}))
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	return resp, nil
}
