package progress

import "time"

// Stage identifies which step of a run is active.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageAnswer   Stage = "answer"
	StageComplete Stage = "complete"
)

// Event carries progress information to the renderer.
type Event struct {
	Stage    Stage
	Message  string
	Percent  float64 // 0.0–1.0
	Question int     // 1-based, set during StageAnswer
	Total    int
	Elapsed  time.Duration
}

// Callback is the function signature for progress event handlers.
type Callback func(Event)

// NopCallback is a no-op progress callback for tests and silent mode.
func NopCallback(Event) {}

// AnswerPercent spreads question i of total over the range after extraction.
func AnswerPercent(i, total int) float64 {
	if total <= 0 {
		return 1
	}
	return 0.2 + 0.8*float64(i)/float64(total)
}
