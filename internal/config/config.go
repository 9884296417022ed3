package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingCredential is returned when the selected model has no API key.
var ErrMissingCredential = errors.New("missing API credential")

// Config holds process configuration. Values come from the environment
// (optionally seeded from a .env file) and may be overridden by CLI flags.
type Config struct {
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	Model     string `env:"PDFINSIGHTS_MODEL" envDefault:"gemini-flash"`
	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`

	// SecretPrefix enables API key lookup in AWS Secrets Manager, e.g. "/pdfinsights/".
	SecretPrefix string `env:"PDFINSIGHTS_SECRET_PREFIX"`

	LogFile  string `env:"PDFINSIGHTS_LOG_FILE"`
	LogLevel string `env:"PDFINSIGHTS_LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and parses the environment.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// GeminiKey returns GOOGLE_API_KEY, falling back to GEMINI_API_KEY.
func (c *Config) GeminiKey() string {
	if c.GoogleAPIKey != "" {
		return c.GoogleAPIKey
	}
	return c.GeminiAPIKey
}

// Provider maps a model name to the backend that serves it.
func Provider(model string) string {
	switch {
	case strings.HasPrefix(model, "gemini"):
		return "gemini"
	case model == "haiku" || model == "sonnet":
		return "anthropic"
	case strings.HasPrefix(model, "nova"):
		return "bedrock"
	default:
		return ""
	}
}

// ModelNames lists the accepted --model values.
func ModelNames() []string {
	return []string{"gemini-flash", "gemini-pro", "haiku", "sonnet", "nova-lite"}
}

// Validate checks that the configured model is known and that its
// credential is present. Bedrock uses the AWS credential chain and is not
// checked here.
func (c *Config) Validate() error {
	switch Provider(c.Model) {
	case "gemini":
		if c.GeminiKey() == "" {
			return fmt.Errorf("%w: GOOGLE_API_KEY is not set (or pass --gemini-api-key)", ErrMissingCredential)
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY is not set (or pass --anthropic-api-key)", ErrMissingCredential)
		}
	case "bedrock":
	default:
		return fmt.Errorf("invalid model %q: must be one of %s", c.Model, strings.Join(ModelNames(), ", "))
	}
	return nil
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
