package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic generates summaries with the Claude Messages API.
type Anthropic struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	hasKey      bool
}

// NewAnthropic creates an Anthropic generator. An empty baseURL selects
// the public API.
func NewAnthropic(apiKey, model, baseURL string, maxTokens int, temperature float64) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(2)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	if maxTokens <= 0 {
		maxTokens = 200
	}
	return &Anthropic{
		client:      &client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		hasKey:      apiKey != "",
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

// Generate implements Generator.
func (a *Anthropic) Generate(ctx context.Context, instruction, text string) (string, error) {
	if !a.hasKey {
		return "", errors.New("anthropic: API key not configured")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
		Temperature: anthropic.Float(a.temperature),
	}
	if instruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: instruction}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic: no text in response")
	}
	return sb.String(), nil
}
