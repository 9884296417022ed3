package answer

import (
	"context"
	"fmt"

	"github.com/apresai/pdfinsights/internal/config"
)

// Sampling parameters for every completion call.
const (
	Temperature     = 0.3
	MaxOutputTokens = 2000
)

// Request is a single text-completion call.
type Request struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int32
}

// Completer sends one prompt to a hosted model and returns its text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewCompleter returns the backend serving cfg.Model. The caller owns the
// returned closer.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, func() error, error) {
	nop := func() error { return nil }

	switch config.Provider(cfg.Model) {
	case "gemini":
		g, err := NewGeminiCompleter(ctx, cfg.Model, cfg.GeminiKey())
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case "anthropic":
		return NewClaudeCompleter(cfg.Model, cfg.AnthropicAPIKey), nop, nil
	case "bedrock":
		n, err := NewNovaCompleter(ctx, cfg.Model, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		return n, nop, nil
	default:
		return nil, nil, fmt.Errorf("no completion backend for model %q", cfg.Model)
	}
}
