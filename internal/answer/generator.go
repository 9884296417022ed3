package answer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pdfinsights/answer")

// ErrorAnswerFormat is how a failed completion is recorded as an answer.
const ErrorAnswerFormat = "Error generating answer: %s"

// Result is the outcome of one question. Text is what gets recorded as the
// answer: the model output verbatim, or the formatted error when Failed.
type Result struct {
	Text      string
	Failed    bool
	Err       error
	Truncated bool
}

// Generator answers questions about a document with a single completion call.
type Generator struct {
	completer Completer
	log       *slog.Logger
}

func NewGenerator(c Completer, logger *slog.Logger) *Generator {
	return &Generator{completer: c, log: logger}
}

// Answer never retries. A failed call is folded into Result.Text.
func (g *Generator) Answer(ctx context.Context, document, question string) Result {
	ctx, span := tracer.Start(ctx, "answer.generate")
	defer span.End()

	prompt, truncated := BuildPrompt(document, question)
	span.SetAttributes(
		attribute.Int("prompt_bytes", len(prompt)),
		attribute.Bool("document_truncated", truncated),
	)
	if truncated {
		g.log.DebugContext(ctx, "Document truncated for prompt", "max_chars", MaxDocumentChars)
	}

	start := time.Now()
	text, err := g.completer.Complete(ctx, Request{
		Prompt:          prompt,
		Temperature:     Temperature,
		MaxOutputTokens: MaxOutputTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		g.log.WarnContext(ctx, "Completion failed", "error", err, "elapsed", time.Since(start))
		return Result{
			Text:      fmt.Sprintf(ErrorAnswerFormat, err.Error()),
			Failed:    true,
			Err:       err,
			Truncated: truncated,
		}
	}

	g.log.InfoContext(ctx, "Answer generated", "answer_chars", len(text), "elapsed", time.Since(start))
	return Result{Text: text, Truncated: truncated}
}
