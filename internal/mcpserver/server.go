package mcpserver

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/apresai/pdfinsights/internal/session"
)

// Server exposes one chat session to an MCP client over stdio.
type Server struct {
	mcp      *server.MCPServer
	handlers *Handlers
	log      *slog.Logger
}

// New registers the session tools.
func New(s *session.Session, loader Loader, version string, logger *slog.Logger) *Server {
	handlers := NewHandlers(s, loader, logger)

	mcpServer := server.NewMCPServer(
		"pdfinsights",
		version,
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], handlers.HandleLoadPDF)
	mcpServer.AddTool(tools[1], handlers.HandleAskQuestion)
	mcpServer.AddTool(tools[2], handlers.HandleGetHistory)
	mcpServer.AddTool(tools[3], handlers.HandleResetSession)

	return &Server{
		mcp:      mcpServer,
		handlers: handlers,
		log:      logger,
	}
}

// Start serves MCP on stdin/stdout until the client disconnects.
func (s *Server) Start() error {
	s.log.Info("Starting MCP server on stdio")
	return server.ServeStdio(s.mcp)
}
