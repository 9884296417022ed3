package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// BarRenderer draws a status line and a bar on a TTY, or timestamped plain
// lines otherwise. It is used by the non-interactive ask command.
type BarRenderer struct {
	out       io.Writer
	start     time.Time
	isTTY     bool
	width     int
	lastEvent Event
	lines     int // lines currently on screen, for TTY overwrite
}

// NewBarRenderer detects TTY mode and terminal width from out.
func NewBarRenderer(out *os.File) *BarRenderer {
	tty := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())

	width := 80
	if tty {
		if w, _, err := term.GetSize(out.Fd()); err == nil && w > 0 {
			width = w
		}
	}
	return NewBarRendererTo(out, tty, width)
}

// NewBarRendererTo renders to any writer with an explicit mode and width.
func NewBarRendererTo(out io.Writer, tty bool, width int) *BarRenderer {
	return &BarRenderer{
		out:   out,
		start: time.Now(),
		isTTY: tty,
		width: width,
	}
}

// Handle satisfies Callback.
func (r *BarRenderer) Handle(e Event) {
	e.Elapsed = time.Since(r.start)
	if e.Stage == StageComplete {
		e.Percent = 1.0
	}
	r.lastEvent = e

	if r.isTTY {
		r.renderTTY(e)
	} else {
		r.renderPlain(e)
	}
}

// Clear removes the bar so other output can be printed, e.g. an answer.
// The next Handle redraws it.
func (r *BarRenderer) Clear() {
	if r.isTTY && r.lines > 0 {
		r.clearLines()
	}
}

// Finish clears the display and prints the completion message, if the run
// got that far. Failures are reported by the command's returned error.
func (r *BarRenderer) Finish() {
	r.Clear()

	if e := r.lastEvent; e.Stage == StageComplete {
		fmt.Fprintf(r.out, "  %s (%s)\n", e.Message, formatElapsed(e.Elapsed))
	}
}

func (r *BarRenderer) renderTTY(e Event) {
	r.Clear()

	msg := "  " + label(e)
	bar := renderBar(e.Percent, r.barWidth())
	line2 := fmt.Sprintf("  %s %3d%%  %s", bar, int(e.Percent*100), formatElapsed(e.Elapsed))

	fmt.Fprintf(r.out, "%s\n%s", msg, line2)
	r.lines = 2
}

func (r *BarRenderer) renderPlain(e Event) {
	if e.Stage == StageComplete {
		return
	}
	fmt.Fprintf(r.out, "[%s] %s\n", formatElapsed(e.Elapsed), label(e))
}

func label(e Event) string {
	if e.Stage == StageAnswer && e.Total > 0 {
		return fmt.Sprintf("%s (%d/%d)", e.Message, e.Question, e.Total)
	}
	return e.Message
}

func (r *BarRenderer) clearLines() {
	for i := 0; i < r.lines; i++ {
		if i == 0 {
			fmt.Fprint(r.out, "\r\033[2K")
		} else {
			fmt.Fprint(r.out, "\033[A\033[2K")
		}
	}
	fmt.Fprint(r.out, "\r")
	r.lines = 0
}

// barWidth leaves room for brackets, percent and elapsed time.
func (r *BarRenderer) barWidth() int {
	w := r.width - 16
	if w < 20 {
		w = 20
	}
	if w > 60 {
		w = 60
	}
	return w
}

// renderBar draws a [####....] style bar of the given width.
func renderBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// formatElapsed formats a duration as M:SS.
func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
