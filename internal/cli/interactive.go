package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/apresai/pdfinsights/internal/ingest"
	"github.com/apresai/pdfinsights/internal/session"
)

// chatState tracks which phase the TUI is in.
type chatState int

const (
	stateNoDocument chatState = iota
	stateLoading
	stateReady
	stateAsking
)

// style constants
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	headerBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	failedAnswerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5555"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)
)

// eventMsg delivers a session.Event into the Bubble Tea loop.
type eventMsg session.Event

type loadDoneMsg struct{ err error }

type askDoneMsg struct {
	ok  bool
	err error
}

// chatModel is the Bubble Tea model for one chat session. It keeps its own
// copy of the transcript, built from session events.
type chatModel struct {
	ctx     context.Context
	session *session.Session
	loader  session.FileLoader
	events  <-chan session.Event

	state       chatState
	input       string
	pending     string // question in flight
	initialPath string

	banner    string
	bannerErr bool
	notice    string
	history   []session.ChatEntry
	width     int
}

func newChatModel(ctx context.Context, s *session.Session, loader session.FileLoader, events <-chan session.Event, initialPath string) chatModel {
	return chatModel{
		ctx:         ctx,
		session:     s,
		loader:      loader,
		events:      events,
		state:       stateNoDocument,
		initialPath: initialPath,
	}
}

func (m chatModel) Init() tea.Cmd {
	if m.initialPath == "" {
		return waitForEvent(m.events)
	}
	return tea.Batch(waitForEvent(m.events), func() tea.Msg { return startLoadMsg(m.initialPath) })
}

type startLoadMsg string

func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func (m chatModel) loadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.session.LoadFile(m.ctx, m.loader, path)
		return loadDoneMsg{err: err}
	}
}

func (m chatModel) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		_, ok, err := m.session.Ask(m.ctx, question)
		return askDoneMsg{ok: ok, err: err}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case startLoadMsg:
		return m.beginLoad(string(msg))

	case eventMsg:
		m.apply(session.Event(msg))
		return m, waitForEvent(m.events)

	case loadDoneMsg:
		if msg.err != nil {
			m.state = stateNoDocument
			if errors.Is(msg.err, session.ErrDocumentLoaded) {
				m.state = stateReady
			}
			return m, nil
		}
		m.state = stateReady
		return m, nil

	case askDoneMsg:
		// The entry is already in the session when Ask returns, even if its
		// event has not been delivered yet.
		m.history = m.session.History()
		m.state = stateReady
		m.pending = ""
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

// apply folds one session event into the view state.
func (m *chatModel) apply(e session.Event) {
	switch e.Kind {
	case session.EventDocumentLoaded:
		m.banner = ingest.SuccessMessage(e.Document)
		m.bannerErr = false
	case session.EventLoadFailed:
		m.banner = ingest.FailureMessage
		m.bannerErr = true
		m.notice = e.Err.Error()
	case session.EventEntryAppended:
		m.history = m.session.History()
	case session.EventReset:
		m.history = nil
		m.banner = ""
		m.bannerErr = false
	}
}

func (m chatModel) beginLoad(path string) (tea.Model, tea.Cmd) {
	m.state = stateLoading
	m.notice = ""
	return m, m.loadCmd(path)
}

func (m chatModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	}

	// Input is ignored while a load or a question is in flight.
	if m.state == stateLoading || m.state == stateAsking {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		return m.submit()
	case "ctrl+j", "alt+enter":
		if m.state == stateReady {
			m.input += "\n"
		}
		return m, nil
	case "ctrl+r":
		if m.state == stateReady {
			m.session.Reset()
			m.state = stateNoDocument
			m.input = ""
			m.notice = ""
		}
		return m, nil
	case "backspace":
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case "ctrl+u":
		m.input = ""
		return m, nil
	}

	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateNoDocument:
		path := strings.TrimSpace(m.input)
		if path == "" {
			return m, nil
		}
		m.input = ""
		return m.beginLoad(path)

	case stateReady:
		if strings.TrimSpace(m.input) == "" {
			return m, nil
		}
		question := m.input
		m.input = ""
		m.pending = question
		m.notice = ""
		m.state = stateAsking
		return m, m.askCmd(question)
	}
	return m, nil
}

func (m chatModel) View() string {
	var b strings.Builder

	b.WriteString(headerBorder.Render(titleStyle.Render("PDF Insights Chat")))
	b.WriteString("\n")

	if m.banner != "" {
		if m.bannerErr {
			b.WriteString(errorStyle.Render(m.banner))
		} else {
			b.WriteString(successStyle.Render(m.banner))
		}
		b.WriteString("\n\n")
	}

	switch m.state {
	case stateNoDocument:
		b.WriteString(labelStyle.Render("PDF file: "))
		b.WriteString(inputStyle.Render(m.input + "_"))
		b.WriteString("\n")
	case stateLoading:
		b.WriteString(dimStyle.Render("Extracting text..."))
		b.WriteString("\n")
	case stateReady, stateAsking:
		b.WriteString("You can now ask questions about the PDF content.\n\n")
		b.WriteString(m.renderHistory())
		if m.state == stateAsking {
			b.WriteString(labelStyle.Render("Question: ") + m.wrap(m.pending) + "\n")
			b.WriteString(dimStyle.Render("Generating answer...") + "\n")
		} else {
			b.WriteString(labelStyle.Render("Type your question here:") + "\n")
			b.WriteString(inputStyle.Render(m.input+"_") + "\n")
		}
	}

	if m.notice != "" {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.notice) + "\n")
	}

	switch m.state {
	case stateNoDocument:
		b.WriteString(helpStyle.Render("  type a path | enter to load | esc to quit"))
	case stateReady:
		b.WriteString(helpStyle.Render("  enter to send | ctrl+j for newline | ctrl+r to start over | esc to quit"))
	default:
		b.WriteString(helpStyle.Render("  please wait | esc to quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// renderHistory draws every exchange, oldest first, separated by rules.
func (m chatModel) renderHistory() string {
	var b strings.Builder
	for _, e := range m.history {
		b.WriteString(labelStyle.Render("Question: ") + m.wrap(e.Question) + "\n")
		answer := m.wrap(e.Answer)
		if e.Failed {
			answer = failedAnswerStyle.Render(answer)
		}
		b.WriteString(labelStyle.Render("Answer: ") + answer + "\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", m.ruleWidth())) + "\n")
	}
	return b.String()
}

func (m chatModel) wrap(s string) string {
	if m.width <= 12 {
		return s
	}
	return lipgloss.NewStyle().Width(m.width - 12).Render(s)
}

func (m chatModel) ruleWidth() int {
	if m.width <= 0 || m.width > 80 {
		return 60
	}
	return m.width - 4
}

func runInteractive(cmd *cobra.Command, args []string) error {
	events := make(chan session.Event, 16)
	a, err := setup(cmd.Context(), true, session.WithListener(func(e session.Event) {
		events <- e
	}))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	m := newChatModel(ctx, a.session, a.loader, events, flagPDF)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Leave the transcript on the terminal after the alt screen closes.
	if fm, ok := final.(chatModel); ok && len(fm.history) > 0 {
		fmt.Print(formatTranscript(a.session.History()))
	}
	return nil
}
