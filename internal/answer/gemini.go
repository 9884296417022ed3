package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// GeminiCompleter calls the Gemini API through the generative-ai-go SDK.
type GeminiCompleter struct {
	client  *genai.Client
	modelID string
}

func NewGeminiCompleter(ctx context.Context, model, apiKey string) (*GeminiCompleter, error) {
	modelID := geminiModels[model]
	if modelID == "" {
		modelID = geminiModels["gemini-flash"]
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, modelID: modelID}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(req.Temperature)
	model.SetMaxOutputTokens(req.MaxOutputTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", err
	}

	text := parseGeminiResponse(resp)
	if text == "" {
		return "", fmt.Errorf("response contained no text")
	}
	return text, nil
}

func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
