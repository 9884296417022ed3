package cli

import (
	"strings"

	"github.com/apresai/pdfinsights/internal/session"
)

const rule = "---"

// formatEntry renders one exchange the way the transcript shows it.
func formatEntry(e session.ChatEntry) string {
	var b strings.Builder
	b.WriteString("Question: " + e.Question + "\n")
	b.WriteString("Answer: " + e.Answer + "\n")
	b.WriteString(rule + "\n")
	return b.String()
}

// formatTranscript renders the whole history, oldest first.
func formatTranscript(entries []session.ChatEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(formatEntry(e))
	}
	return b.String()
}
