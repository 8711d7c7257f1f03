package ocr

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/MikeSquared-Agency/scribe/internal/anthropic"
)

// OpenAIEngine sends the image to a vision-capable chat model.
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

func NewOpenAIEngine(apiKey, baseURL, model string) *OpenAIEngine {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (e *OpenAIEngine) Name() string { return "openai" }

func (e *OpenAIEngine) Recognize(ctx context.Context, image []byte, mediaType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(image))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// AnthropicEngine sends the image to Claude through the Messages API.
type AnthropicEngine struct {
	client *anthropic.Client
}

func NewAnthropicEngine(client *anthropic.Client) *AnthropicEngine {
	return &AnthropicEngine{client: client}
}

func (e *AnthropicEngine) Name() string { return "anthropic" }

func (e *AnthropicEngine) Recognize(ctx context.Context, image []byte, mediaType string) (string, error) {
	text, err := e.client.Complete(ctx, "", []anthropic.Message{{
		Role: "user",
		Content: []anthropic.ContentBlock{
			anthropic.ImageBlock(mediaType, image),
			anthropic.TextBlock(prompt),
		},
	}}, 2048)
	if err != nil {
		return "", fmt.Errorf("claude vision: %w", err)
	}
	return text, nil
}
