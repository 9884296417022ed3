package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "[#####.....]", renderBar(0.5, 10))
	assert.Equal(t, "[..........]", renderBar(-1, 10))
	assert.Equal(t, "[##########]", renderBar(2, 10))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00", formatElapsed(0))
	assert.Equal(t, "1:05", formatElapsed(65*time.Second))
}

func TestAnswerPercent(t *testing.T) {
	assert.InDelta(t, 0.2, AnswerPercent(0, 4), 1e-9)
	assert.InDelta(t, 1.0, AnswerPercent(4, 4), 1e-9)
	assert.Equal(t, 1.0, AnswerPercent(0, 0))
}

func TestPlainRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewBarRendererTo(&buf, false, 80)

	r.Handle(Event{Stage: StageExtract, Message: "Extracting text"})
	r.Handle(Event{Stage: StageAnswer, Message: "Generating answer", Question: 1, Total: 2})
	r.Handle(Event{Stage: StageComplete, Message: "Done"})
	r.Finish()

	out := buf.String()
	assert.Contains(t, out, "Extracting text")
	assert.Contains(t, out, "Generating answer (1/2)")
	assert.Contains(t, out, "Done (")
}

func TestFinishAfterFailureOnlyClears(t *testing.T) {
	var buf bytes.Buffer
	r := NewBarRendererTo(&buf, true, 80)

	r.Handle(Event{Stage: StageExtract, Message: "Extracting text"})
	r.Finish()

	assert.Contains(t, buf.String(), "\r\033[2K")
	assert.NotContains(t, buf.String(), "Error")
	assert.NotContains(t, buf.String(), "0:00)\n")
}
