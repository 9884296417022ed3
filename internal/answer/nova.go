package answer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

var novaModels = map[string]string{
	"nova-lite": "us.amazon.nova-2-lite-v1:0",
}

// ConverseAPI is the subset of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// NovaCompleter calls Amazon Nova through the Bedrock Converse API.
type NovaCompleter struct {
	modelID string
	client  ConverseAPI
}

func NewNovaCompleter(ctx context.Context, model, region string) (*NovaCompleter, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	modelID := novaModels[model]
	if modelID == "" {
		modelID = novaModels["nova-lite"]
	}
	return &NovaCompleter{
		modelID: modelID,
		client:  bedrockruntime.NewFromConfig(cfg),
	}, nil
}

func (n *NovaCompleter) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := n.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(n.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(req.MaxOutputTokens),
			Temperature: aws.Float32(req.Temperature),
		},
	})
	if err != nil {
		return "", err
	}

	text := extractNovaText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from Bedrock")
	}
	return text, nil
}

func extractNovaText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			return tb.Value
		}
	}
	return ""
}
