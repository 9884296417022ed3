// Package session holds the per-user state of one chat: the extracted
// document text and the ordered question/answer history.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/apresai/pdfinsights/internal/answer"
	"github.com/apresai/pdfinsights/internal/ingest"
)

var (
	// ErrNoDocument is returned by Ask before any PDF was loaded.
	ErrNoDocument = errors.New("no document loaded")
	// ErrDocumentLoaded is returned when a second PDF is loaded without Reset.
	ErrDocumentLoaded = errors.New("a document is already loaded; reset the session first")
)

// ChatEntry is one recorded exchange. Failed entries hold the formatted
// error text as their Answer.
type ChatEntry struct {
	Question string
	Answer   string
	Failed   bool
	AskedAt  time.Time
}

// FileLoader extracts a document from a path.
type FileLoader interface {
	LoadFile(ctx context.Context, path string) (*ingest.Document, error)
}

// Answerer produces the answer for one question.
type Answerer interface {
	Answer(ctx context.Context, document, question string) answer.Result
}

type Option func(*Session)

// WithListener registers a callback for every state change.
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listener = l
	}
}

// Session is not shared between users. All methods are safe for concurrent
// use, but operations on one session run one at a time, including the
// completion call made by Ask.
type Session struct {
	ID string

	answerer Answerer
	log      *slog.Logger
	listener Listener

	mu       sync.Mutex
	document *ingest.Document
	history  []ChatEntry
}

func New(a Answerer, logger *slog.Logger, opts ...Option) *Session {
	id := ulid.Make().String()
	s := &Session{
		ID:       id,
		answerer: a,
		log:      logger.With("session_id", id),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load stores a copy of doc as the session's document. Only the first
// document of a session is kept.
func (s *Session) Load(doc *ingest.Document) error {
	s.mu.Lock()
	if s.document != nil {
		s.mu.Unlock()
		return ErrDocumentLoaded
	}
	s.store(doc)
	s.mu.Unlock()

	s.log.Info("Document loaded", "source", doc.Source, "pages", doc.Pages, "chars", doc.Chars())
	s.emit(Event{Kind: EventDocumentLoaded, Document: doc})
	return nil
}

// LoadFile extracts path with loader and stores the result.
func (s *Session) LoadFile(ctx context.Context, loader FileLoader, path string) (*ingest.Document, error) {
	return s.LoadFrom(ctx, func(ctx context.Context) (*ingest.Document, error) {
		return loader.LoadFile(ctx, path)
	})
}

// LoadFrom runs extract under the session lock and stores its result. On
// failure the document stays unset, EventLoadFailed is emitted and the
// error is returned.
func (s *Session) LoadFrom(ctx context.Context, extract func(context.Context) (*ingest.Document, error)) (*ingest.Document, error) {
	s.mu.Lock()
	if s.document != nil {
		s.mu.Unlock()
		return nil, ErrDocumentLoaded
	}
	doc, err := extract(ctx)
	if err != nil {
		s.mu.Unlock()
		s.emit(Event{Kind: EventLoadFailed, Err: err})
		return nil, err
	}
	s.store(doc)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "Document loaded", "source", doc.Source, "pages", doc.Pages, "chars", doc.Chars())
	s.emit(Event{Kind: EventDocumentLoaded, Document: doc})
	return doc, nil
}

// store keeps a private copy so callers holding doc cannot change the text
// questions are answered against. Callers must hold s.mu.
func (s *Session) store(doc *ingest.Document) {
	stored := *doc
	s.document = &stored
}

// Ask answers question against the loaded document and appends the
// exchange. A blank question is ignored: ok is false and nothing is called.
func (s *Session) Ask(ctx context.Context, question string) (entry ChatEntry, ok bool, err error) {
	if strings.TrimSpace(question) == "" {
		return ChatEntry{}, false, nil
	}

	s.mu.Lock()
	if s.document == nil {
		s.mu.Unlock()
		return ChatEntry{}, false, ErrNoDocument
	}

	asked := time.Now()
	res := s.answerer.Answer(ctx, s.document.Text, question)
	entry = ChatEntry{
		Question: question,
		Answer:   res.Text,
		Failed:   res.Failed,
		AskedAt:  asked,
	}
	s.history = append(s.history, entry)
	n := len(s.history)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "Question answered", "turn", n, "failed", res.Failed)
	s.emit(Event{Kind: EventEntryAppended, Entry: entry})
	return entry, true, nil
}

// Document returns a copy of the loaded document, if any.
func (s *Session) Document() (ingest.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return ingest.Document{}, false
	}
	return *s.document, true
}

func (s *Session) HasDocument() bool {
	_, ok := s.Document()
	return ok
}

// History returns a copy of the exchanges in the order they were asked.
func (s *Session) History() []ChatEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatEntry, len(s.history))
	copy(out, s.history)
	return out
}

// Reset discards the document and the history.
func (s *Session) Reset() {
	s.mu.Lock()
	s.document = nil
	s.history = nil
	s.mu.Unlock()

	s.log.Info("Session reset")
	s.emit(Event{Kind: EventReset})
}

func (s *Session) emit(e Event) {
	if s.listener != nil {
		s.listener(e)
	}
}
