package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// maxInputSize is the maximum allowed size for an uploaded PDF (25 MB).
const maxInputSize = 25 * 1024 * 1024

// FailureMessage is the banner shown when a PDF could not be processed.
const FailureMessage = "Could not process the PDF. Try another file."

// ErrNoText is reported when a PDF opens but no page yields any text.
var ErrNoText = errors.New("no text could be extracted; the PDF may be scanned or image-based")

// Document is the text extracted from one PDF.
type Document struct {
	// Text is the page texts concatenated in page order, no separators.
	Text   string
	Source string
	Pages  int
}

// Chars returns the length of Text in characters.
func (d *Document) Chars() int {
	return utf8.RuneCountInString(d.Text)
}

// SuccessMessage is the banner shown after a PDF was processed.
func SuccessMessage(d *Document) string {
	return fmt.Sprintf("PDF processed successfully. Extracted content: %d characters.", d.Chars())
}

// ExtractionError wraps any failure while opening or reading a PDF.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("%s is not a PDF file", path)
	}
	if info.Size() > maxInputSize {
		return fmt.Errorf("%s is too large (%d MB, max %d MB)", path, info.Size()/(1024*1024), maxInputSize/(1024*1024))
	}
	return nil
}
