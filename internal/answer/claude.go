package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

// ClaudeCompleter calls the Anthropic Messages API.
type ClaudeCompleter struct {
	client  anthropic.Client
	modelID string
}

func NewClaudeCompleter(model, apiKey string) *ClaudeCompleter {
	modelID := claudeModels[model]
	if modelID == "" {
		modelID = claudeModels["haiku"]
	}
	return &ClaudeCompleter{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		modelID: modelID,
	}
}

func (c *ClaudeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.modelID),
		MaxTokens:   int64(req.MaxOutputTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	text := extractText(message)
	if text == "" {
		return "", fmt.Errorf("empty response from Claude")
	}
	return text, nil
}

func extractText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}
