package cli

import (
	"github.com/spf13/cobra"

	"github.com/apresai/pdfinsights/internal/ingest"
	"github.com/apresai/pdfinsights/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the chat session as MCP tools over stdio",
	Long: `Runs an MCP server on stdin/stdout exposing load_pdf, ask_question,
get_history and reset_session. Logs go to stderr.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcpserver.New(a.session, ingest.NewPDFLoader(a.log), Version, a.log)
	if flagPDF != "" {
		if _, err := a.session.LoadFile(cmd.Context(), a.loader, flagPDF); err != nil {
			a.log.Warn("Preload failed", "pdf", flagPDF, "error", err)
		}
	}
	return srv.Start()
}
