package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pdfinsights/ingest")

// Loader turns a PDF into a Document.
type Loader interface {
	Load(ctx context.Context, r io.ReaderAt, size int64, source string) (*Document, error)
	LoadFile(ctx context.Context, path string) (*Document, error)
}

// PDFLoader extracts plain text with github.com/ledongthuc/pdf.
type PDFLoader struct {
	log *slog.Logger
}

func NewPDFLoader(logger *slog.Logger) *PDFLoader {
	return &PDFLoader{log: logger}
}

// pageSource is the page-level view of an opened PDF.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// LoadFile opens path, extracts its text and closes the file before returning.
func (l *PDFLoader) LoadFile(ctx context.Context, path string) (*Document, error) {
	source := filepath.Base(path)
	if err := validateFile(path); err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}
	return l.Load(ctx, f, info.Size(), source)
}

// LoadBytes extracts text from an in-memory upload.
func (l *PDFLoader) LoadBytes(ctx context.Context, data []byte, source string) (*Document, error) {
	if len(data) > maxInputSize {
		return nil, &ExtractionError{Source: source, Err: fmt.Errorf("upload is too large (%d MB, max %d MB)", len(data)/(1024*1024), maxInputSize/(1024*1024))}
	}
	return l.Load(ctx, bytes.NewReader(data), int64(len(data)), source)
}

// Load reads every page in order. A page that fails to extract contributes
// nothing; a document that cannot be opened is an *ExtractionError.
func (l *PDFLoader) Load(ctx context.Context, r io.ReaderAt, size int64, source string) (doc *Document, err error) {
	ctx, span := tracer.Start(ctx, "ingest.load")
	defer span.End()
	span.SetAttributes(attribute.String("source", source), attribute.Int64("size_bytes", size))

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "extraction failed")
			l.log.WarnContext(ctx, "PDF extraction failed", "source", source, "error", err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}

	reader, err := openPDF(r, size)
	if err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}

	text, pages, err := extractText(pdfPages{r: reader}, l.log)
	if err != nil {
		return nil, &ExtractionError{Source: source, Err: err}
	}
	if text == "" {
		return nil, &ExtractionError{Source: source, Err: ErrNoText}
	}

	doc = &Document{Text: text, Source: source, Pages: pages}
	span.SetAttributes(attribute.Int("pages", pages), attribute.Int("chars", doc.Chars()))
	l.log.InfoContext(ctx, "PDF processed", "source", source, "pages", pages, "chars", doc.Chars())
	return doc, nil
}

// openPDF converts parser panics on malformed input into errors.
func openPDF(r io.ReaderAt, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			reader, err = nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()
	reader, err = pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("could not read PDF: %w", err)
	}
	return reader, nil
}

func extractText(src pageSource, logger *slog.Logger) (text string, pages int, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed page tree: %v", p)
		}
	}()

	pages = src.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		sb.WriteString(pageText(src, i, logger))
	}
	return sb.String(), pages, nil
}

func pageText(src pageSource, i int, logger *slog.Logger) (text string) {
	defer func() {
		if p := recover(); p != nil {
			logger.Debug("Skipping page", "page", i, "panic", p)
			text = ""
		}
	}()
	text, err := src.PageText(i)
	if err != nil {
		logger.Debug("Skipping page", "page", i, "error", err)
		return ""
	}
	return text
}
