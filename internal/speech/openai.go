package speech

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEngine calls the Whisper transcription endpoint. BaseURL may point at
// any OpenAI-compatible server.
type OpenAIEngine struct {
	client   *openai.Client
	model    string
	language string
}

func NewOpenAIEngine(apiKey, baseURL, model, language string) *OpenAIEngine {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIEngine{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		language: language,
	}
}

func (e *OpenAIEngine) Name() string { return "openai" }

func (e *OpenAIEngine) Recognize(ctx context.Context, path string) (string, error) {
	resp, err := e.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    e.model,
		FilePath: path,
		Language: e.language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return resp.Text, nil
}
