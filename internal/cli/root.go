package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/apresai/pdfinsights/internal/answer"
	"github.com/apresai/pdfinsights/internal/config"
	"github.com/apresai/pdfinsights/internal/ingest"
	"github.com/apresai/pdfinsights/internal/observability"
	"github.com/apresai/pdfinsights/internal/progress"
	"github.com/apresai/pdfinsights/internal/session"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "pdfinsights",
	Short:        "Ask questions about a PDF using a hosted language model",
	SilenceUsage: true,
	RunE:         runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pdfinsights %s\n", Version)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Load a PDF and answer questions without the interactive UI",
	RunE:  runAsk,
}

var (
	flagPDF             string
	flagQuestions       []string
	flagModel           string
	flagVerbose         bool
	flagEnvFile         string
	flagGeminiAPIKey    string
	flagAnthropicAPIKey string
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(askCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagModel, "model", "m", "", "Answer model: "+strings.Join(config.ModelNames(), ", ")+" (overrides PDFINSIGHTS_MODEL)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flagEnvFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	pf.StringVar(&flagGeminiAPIKey, "gemini-api-key", "", "Gemini API key (overrides GOOGLE_API_KEY env var)")
	pf.StringVar(&flagAnthropicAPIKey, "anthropic-api-key", "", "Anthropic API key (overrides ANTHROPIC_API_KEY env var)")
	pf.StringVarP(&flagPDF, "pdf", "i", "", "PDF file to load")

	askCmd.Flags().StringArrayVarP(&flagQuestions, "question", "q", nil, "Question to ask (repeatable)")
	_ = askCmd.MarkFlagRequired("question")
}

func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

// app is everything one run needs, built from config and flags.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	loader  session.FileLoader
	session *session.Session
	cleanup []func() error
}

func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			a.log.Warn("Cleanup failed", "error", err)
		}
	}
}

// setup loads configuration and refuses to start without a credential for
// the selected model. Interactive runs log to PDFINSIGHTS_LOG_FILE (or
// nowhere) so log lines never land on the terminal UI.
func setup(ctx context.Context, interactive bool, opts ...session.Option) (*app, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagGeminiAPIKey != "" {
		cfg.GoogleAPIKey = flagGeminiAPIKey
	}
	if flagAnthropicAPIKey != "" {
		cfg.AnthropicAPIKey = flagAnthropicAPIKey
	}

	level := cfg.Level()
	if flagVerbose {
		level = slog.LevelDebug
	}
	a := &app{}
	var logOut io.Writer = os.Stderr
	if interactive {
		logOut = io.Discard
		if cfg.LogFile != "" {
			rotator := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    10, // Megabytes
				MaxBackups: 3,
				MaxAge:     14, // Days
			}
			logOut = rotator
			a.cleanup = append(a.cleanup, rotator.Close)
		}
	}
	logger := observability.InitLogger(logOut, level)
	a.cfg, a.log = cfg, logger

	if err := cfg.LoadSecrets(ctx, logger); err != nil {
		logger.Warn("Failed to load secrets from Secrets Manager, falling back to env vars", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		a.Close()
		return nil, err
	}

	if observability.TracingEnabled() {
		tp, err := observability.InitTracer(ctx, "pdfinsights", Version)
		if err != nil {
			logger.Warn("Failed to init tracer, continuing without tracing", "error", err)
		} else {
			a.cleanup = append(a.cleanup, func() error { return tp.Shutdown(context.Background()) })
		}
	}

	completer, closeFn, err := answer.NewCompleter(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cleanup = append(a.cleanup, closeFn)

	a.loader = ingest.NewPDFLoader(logger)
	a.session = session.New(answer.NewGenerator(completer, logger), logger, opts...)
	logger.Debug("Session started", "session_id", a.session.ID, "model", cfg.Model)
	return a, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	if flagPDF == "" {
		return fmt.Errorf("--pdf (-i) is required")
	}

	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	var report progress.Callback = progress.NopCallback
	var bar *progress.BarRenderer
	if !flagVerbose {
		bar = progress.NewBarRenderer(os.Stdout)
		defer bar.Finish()
		report = bar.Handle
	}
	clearBar := func() {
		if bar != nil {
			bar.Clear()
		}
	}
	return askAll(cmd.Context(), a, os.Stdout, report, clearBar)
}

// askAll mirrors one interactive session: load, then one question at a time.
func askAll(ctx context.Context, a *app, out io.Writer, report progress.Callback, clearBar func()) error {
	report(progress.Event{Stage: progress.StageExtract, Message: "Extracting text from " + flagPDF})
	doc, err := a.session.LoadFile(ctx, a.loader, flagPDF)
	clearBar()
	if err != nil {
		fmt.Fprintln(out, ingest.FailureMessage)
		return err
	}
	fmt.Fprintln(out, ingest.SuccessMessage(doc))

	questions := lo.Filter(flagQuestions, func(q string, _ int) bool {
		return strings.TrimSpace(q) != ""
	})

	for i, q := range questions {
		report(progress.Event{
			Stage:    progress.StageAnswer,
			Message:  "Generating answer",
			Percent:  progress.AnswerPercent(i, len(questions)),
			Question: i + 1,
			Total:    len(questions),
		})
		entry, ok, err := a.session.Ask(ctx, q)
		clearBar()
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprint(out, formatEntry(entry))
		}
	}

	report(progress.Event{Stage: progress.StageComplete, Message: fmt.Sprintf("Answered %d question(s)", len(questions))})
	return nil
}
