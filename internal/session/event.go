package session

import "github.com/apresai/pdfinsights/internal/ingest"

type EventKind int

const (
	EventDocumentLoaded EventKind = iota
	EventLoadFailed
	EventEntryAppended
	EventReset
)

// Event describes one change to a Session. Front ends apply events instead
// of re-reading the whole session.
type Event struct {
	Kind     EventKind
	Document *ingest.Document
	Entry    ChatEntry
	Err      error
}

type Listener func(Event)
