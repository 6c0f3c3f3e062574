package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI asks a chat model for a translation and part of speech.
type OpenAI struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAI creates a provider. baseURL may be empty for the public API.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Translate asks for "pos|translation" and splits the answer.
func (o *OpenAI) Translate(ctx context.Context, word string) (Result, error) {
	if o.apiKey == "" {
		return Result{}, fmt.Errorf("OpenAI API key not found")
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the English word '%s' to Simplified Chinese. "+
					"Respond as part_of_speech|translation, using an English part of speech such as noun or verb, and nothing else.", word),
			},
		},
		MaxTokens:   50,
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("no translation returned")
	}
	return parseChatAnswer(resp.Choices[0].Message.Content), nil
}

func parseChatAnswer(answer string) Result {
	answer = strings.TrimSpace(answer)
	pos, translation, found := strings.Cut(answer, "|")
	if !found {
		return Result{Translation: answer}
	}
	return Result{
		Translation:  strings.TrimSpace(translation),
		PartOfSpeech: strings.ToLower(strings.TrimSpace(pos)),
	}
}
