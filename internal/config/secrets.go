package config

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the subset of the Secrets Manager client used here.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadSecrets fills API keys that are still empty from AWS Secrets Manager
// when SecretPrefix is set. Keys already present in the environment win.
func (c *Config) LoadSecrets(ctx context.Context, logger *slog.Logger) error {
	if c.SecretPrefix == "" {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.AWSRegion))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	c.fillSecrets(ctx, secretsmanager.NewFromConfig(awsCfg), logger)
	return nil
}

func (c *Config) fillSecrets(ctx context.Context, client SecretGetter, logger *slog.Logger) {
	targets := map[string]*string{
		"GOOGLE_API_KEY":    &c.GoogleAPIKey,
		"ANTHROPIC_API_KEY": &c.AnthropicAPIKey,
	}

	for name, dst := range targets {
		if *dst != "" {
			continue
		}
		secretID := c.SecretPrefix + name
		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: &secretID,
		})
		if err != nil {
			logger.Info("Secret not found", "secret_id", secretID, "error", err)
			continue
		}
		if result.SecretString != nil {
			*dst = *result.SecretString
			logger.Info("Loaded secret", "secret_id", secretID)
		}
	}
}
