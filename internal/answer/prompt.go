package answer

import (
	"fmt"
	"unicode/utf8"
)

// MaxDocumentChars is how much of the document text goes into a prompt.
const MaxDocumentChars = 8000

const promptTemplate = `Based on the following content from a PDF document, answer the question in a detailed and thorough way.
Use all the relevant information in the document to give a complete and exhaustive answer.
If the information is not directly in the content, try to infer or relate concepts based on what you know.
If there really is not enough information, say that you cannot find that specific information in the provided document.

PDF document content:
%s

Question: %s

Detailed answer:
`

// BuildPrompt embeds at most the first MaxDocumentChars characters of
// document and the question verbatim. truncated reports whether any of the
// document was cut.
func BuildPrompt(document, question string) (prompt string, truncated bool) {
	excerpt, truncated := truncateChars(document, MaxDocumentChars)
	return fmt.Sprintf(promptTemplate, excerpt, question), truncated
}

// truncateChars cuts s to its first n runes.
func truncateChars(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}
