package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/pdfinsights/internal/ingest"
	"github.com/apresai/pdfinsights/internal/session"
)

var tracer = otel.Tracer("pdfinsights-mcp")

// Loader extracts PDFs from disk or from uploaded bytes.
type Loader interface {
	session.FileLoader
	LoadBytes(ctx context.Context, data []byte, source string) (*ingest.Document, error)
}

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "load_pdf",
			Description: "Load a PDF into the session and extract its text. Only one PDF per session; call reset_session to load another.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Path of a PDF file readable by the server",
					},
					"content_base64": map[string]any{
						"type":        "string",
						"description": "Base64-encoded PDF bytes (alternative to path)",
					},
					"filename": map[string]any{
						"type":        "string",
						"description": "Display name for content_base64 uploads",
						"default":     "upload.pdf",
					},
				},
			},
		},
		{
			Name:        "ask_question",
			Description: "Ask a question about the loaded PDF. The answer is recorded in the session history.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"question": map[string]any{
						"type":        "string",
						"description": "Natural-language question about the document",
					},
				},
				Required: []string{"question"},
			},
		},
		{
			Name:        "get_history",
			Description: "Return the loaded document summary and every question/answer pair in the order asked.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
		{
			Name:        "reset_session",
			Description: "Discard the loaded PDF and the history.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
	}
}

// Handlers contains tool handler implementations.
type Handlers struct {
	session *session.Session
	loader  Loader
	log     *slog.Logger
}

func NewHandlers(s *session.Session, loader Loader, logger *slog.Logger) *Handlers {
	return &Handlers{session: s, loader: loader, log: logger}
}

// HandleLoadPDF extracts a PDF and stores it as the session document.
func (h *Handlers) HandleLoadPDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.load_pdf")
	defer span.End()

	path := mcp.ParseString(req, "path", "")
	content := mcp.ParseString(req, "content_base64", "")
	span.SetAttributes(attribute.String("path", path), attribute.Bool("upload", content != ""))

	if path == "" && content == "" {
		span.SetStatus(codes.Error, "missing input")
		return mcp.NewToolResultError("either path or content_base64 is required"), nil
	}
	if h.session.HasDocument() {
		span.SetStatus(codes.Error, "already loaded")
		return mcp.NewToolResultError(session.ErrDocumentLoaded.Error()), nil
	}

	var doc *ingest.Document
	var err error
	if path != "" {
		doc, err = h.session.LoadFile(ctx, h.loader, path)
	} else {
		doc, err = h.loadUpload(ctx, content, mcp.ParseString(req, "filename", "upload.pdf"))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return mcp.NewToolResultError(fmt.Sprintf("%s (%v)", ingest.FailureMessage, err)), nil
	}

	span.SetAttributes(attribute.Int("chars", doc.Chars()))
	return jsonResult(map[string]any{
		"status":  "loaded",
		"message": ingest.SuccessMessage(doc),
		"source":  doc.Source,
		"pages":   doc.Pages,
		"chars":   doc.Chars(),
	})
}

func (h *Handlers) loadUpload(ctx context.Context, content, filename string) (*ingest.Document, error) {
	return h.session.LoadFrom(ctx, func(ctx context.Context) (*ingest.Document, error) {
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, &ingest.ExtractionError{Source: filename, Err: fmt.Errorf("decode base64: %w", err)}
		}
		return h.loader.LoadBytes(ctx, data, filename)
	})
}

// HandleAskQuestion answers one question. Blank questions are ignored.
func (h *Handlers) HandleAskQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.ask_question")
	defer span.End()

	question := mcp.ParseString(req, "question", "")
	entry, ok, err := h.session.Ask(ctx, question)
	if errors.Is(err, session.ErrNoDocument) {
		span.SetStatus(codes.Error, "no document")
		return mcp.NewToolResultError("no PDF loaded; call load_pdf first"), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ask failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}
	if !ok {
		return jsonResult(map[string]any{"status": "ignored", "message": "question is empty"})
	}

	span.SetAttributes(attribute.Bool("failed", entry.Failed))
	h.log.InfoContext(ctx, "Question answered via MCP", "failed", entry.Failed)
	return jsonResult(entryJSON(entry))
}

// HandleGetHistory returns the session transcript.
func (h *Handlers) HandleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.get_history")
	defer span.End()

	history := h.session.History()
	entries := make([]map[string]any, 0, len(history))
	for _, e := range history {
		entries = append(entries, entryJSON(e))
	}

	result := map[string]any{
		"session_id": h.session.ID,
		"entries":    entries,
		"count":      len(entries),
	}
	if doc, ok := h.session.Document(); ok {
		result["document"] = map[string]any{
			"source": doc.Source,
			"pages":  doc.Pages,
			"chars":  doc.Chars(),
		}
	}
	span.SetAttributes(attribute.Int("result_count", len(entries)))
	return jsonResult(result)
}

// HandleResetSession clears the document and history.
func (h *Handlers) HandleResetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.reset_session")
	defer span.End()

	h.session.Reset()
	return jsonResult(map[string]any{"status": "reset"})
}

func entryJSON(e session.ChatEntry) map[string]any {
	return map[string]any{
		"question": e.Question,
		"answer":   e.Answer,
		"failed":   e.Failed,
		"asked_at": e.AskedAt,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
