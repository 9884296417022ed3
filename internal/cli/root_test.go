package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/pdfinsights/internal/config"
	"github.com/apresai/pdfinsights/internal/ingest"
	"github.com/apresai/pdfinsights/internal/progress"
	"github.com/apresai/pdfinsights/internal/session"
)

func testApp(loader session.FileLoader, a session.Answerer) *app {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &app{
		log:     logger,
		loader:  loader,
		session: session.New(a, logger),
	}
}

func withFlags(t *testing.T, pdf string, questions ...string) {
	t.Helper()
	oldPDF, oldQ := flagPDF, flagQuestions
	flagPDF, flagQuestions = pdf, questions
	t.Cleanup(func() { flagPDF, flagQuestions = oldPDF, oldQ })
}

func TestAskAllPrintsBannerAndTranscript(t *testing.T) {
	withFlags(t, "q1.pdf", "What grew?", "  ", "Why?")
	stub := &stubAnswerer{text: "Revenue."}
	a := testApp(stubLoader{doc: &ingest.Document{Text: "Revenue grew 12% in Q1.", Source: "q1.pdf"}}, stub)

	var out bytes.Buffer
	var stages []progress.Stage
	err := askAll(context.Background(), a, &out, func(e progress.Event) { stages = append(stages, e.Stage) }, func() {})

	require.NoError(t, err)
	assert.Equal(t, []string{"What grew?", "Why?"}, stub.calls)
	assert.Equal(t,
		"PDF processed successfully. Extracted content: 23 characters.\n"+
			"Question: What grew?\nAnswer: Revenue.\n---\n"+
			"Question: Why?\nAnswer: Revenue.\n---\n",
		out.String())
	assert.Equal(t, []progress.Stage{progress.StageExtract, progress.StageAnswer, progress.StageAnswer, progress.StageComplete}, stages)
}

func TestAskAllExtractionFailure(t *testing.T) {
	withFlags(t, "bad.pdf", "What grew?")
	stub := &stubAnswerer{}
	a := testApp(stubLoader{err: &ingest.ExtractionError{Source: "bad.pdf", Err: errors.New("not a PDF file")}}, stub)

	var out bytes.Buffer
	err := askAll(context.Background(), a, &out, progress.NopCallback, func() {})

	var extractErr *ingest.ExtractionError
	assert.True(t, errors.As(err, &extractErr))
	assert.Equal(t, ingest.FailureMessage+"\n", out.String())
	assert.Empty(t, stub.calls)
}

func TestAskAllFailurePrintsErrorOnce(t *testing.T) {
	withFlags(t, "bad.pdf", "What grew?")
	a := testApp(stubLoader{err: &ingest.ExtractionError{Source: "bad.pdf", Err: errors.New("not a PDF file")}}, &stubAnswerer{})

	var out bytes.Buffer
	bar := progress.NewBarRendererTo(&out, false, 80)
	err := askAll(context.Background(), a, &out, bar.Handle, bar.Clear)
	bar.Finish()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF file")
	assert.NotContains(t, out.String(), "not a PDF file")
	assert.Equal(t, 1, strings.Count(out.String(), ingest.FailureMessage))
}

func TestSetupRequiresCredential(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PDFINSIGHTS_SECRET_PREFIX", "")
	oldModel, oldEnv, oldKey := flagModel, flagEnvFile, flagGeminiAPIKey
	flagModel, flagEnvFile, flagGeminiAPIKey = "gemini-flash", t.TempDir()+"/none.env", ""
	t.Cleanup(func() { flagModel, flagEnvFile, flagGeminiAPIKey = oldModel, oldEnv, oldKey })

	_, err := setup(context.Background(), false)
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}
