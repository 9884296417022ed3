package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildPDF writes a minimal PDF with one Helvetica text line per page.
// Object offsets in the xref table are computed from the buffer.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	offsets := map[int]int{}
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i
		obj(pageObj, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentObj))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(contentObj, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	size := 4 + 2*len(pages)
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for n := 1; n < size; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)
	return buf.Bytes()
}

func TestLoadExtractsPagesInOrder(t *testing.T) {
	data := buildPDF("Revenue grew 12 percent.", "Costs were flat.")
	loader := NewPDFLoader(testLogger())

	doc, err := loader.LoadBytes(context.Background(), data, "report.pdf")
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Pages)
	assert.Equal(t, "report.pdf", doc.Source)
	first := strings.Index(doc.Text, "Revenue grew 12 percent.")
	second := strings.Index(doc.Text, "Costs were flat.")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF("Quarterly memo"), 0o600))

	doc, err := NewPDFLoader(testLogger()).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "Quarterly memo")
	assert.Equal(t, "memo.pdf", doc.Source)
	assert.Contains(t, SuccessMessage(doc), fmt.Sprintf("%d characters", doc.Chars()))
}

func TestLoadGarbageIsExtractionError(t *testing.T) {
	loader := NewPDFLoader(testLogger())

	doc, err := loader.LoadBytes(context.Background(), []byte("this is definitely not a pdf document"), "junk.pdf")
	assert.Nil(t, doc)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "junk.pdf", extractErr.Source)
}

func TestLoadFileRejectsBadPaths(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))

	loader := NewPDFLoader(testLogger())
	for _, path := range []string{filepath.Join(dir, "missing.pdf"), dir, txt} {
		_, err := loader.LoadFile(context.Background(), path)
		var extractErr *ExtractionError
		assert.True(t, errors.As(err, &extractErr), path)
	}
}

type fakePages struct {
	texts []string
	fail  map[int]bool
	panic map[int]bool
}

func (f fakePages) NumPage() int { return len(f.texts) }

func (f fakePages) PageText(i int) (string, error) {
	if f.panic[i] {
		panic("bad content stream")
	}
	if f.fail[i] {
		return "", errors.New("unsupported encoding")
	}
	return f.texts[i-1], nil
}

func TestExtractTextConcatenatesWithoutSeparators(t *testing.T) {
	text, pages, err := extractText(fakePages{texts: []string{"alpha", "beta", "gamma"}}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.Equal(t, "alphabetagamma", text)
}

func TestExtractTextSkipsFailingPages(t *testing.T) {
	src := fakePages{
		texts: []string{"one", "two", "three", "four"},
		fail:  map[int]bool{2: true},
		panic: map[int]bool{4: true},
	}
	text, pages, err := extractText(src, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 4, pages)
	assert.Equal(t, "onethree", text)
}

type panickingPages struct{}

func (panickingPages) NumPage() int                 { panic("broken page tree") }
func (panickingPages) PageText(int) (string, error) { return "", nil }

func TestExtractTextRecoversDocumentPanic(t *testing.T) {
	_, _, err := extractText(panickingPages{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken page tree")
}

func TestLoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFLoader(testLogger()).LoadBytes(ctx, buildPDF("x"), "x.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}
