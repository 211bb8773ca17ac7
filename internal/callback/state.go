package callback

import (
	"log/slog"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/genai"
)

// NewClockStateCallback refreshes the {Now} placeholder before each turn.
func NewClockStateCallback(now func() time.Time) agent.BeforeAgentCallback {
	if now == nil {
		now = time.Now
	}
	return func(cbCtx agent.CallbackContext) (*genai.Content, error) {
		state := cbCtx.State()
		if state == nil {
			slog.Warn("session state is nil, skipping clock update")
			return nil, nil
		}
		if err := state.Set("Now", now().Format(time.RFC3339)); err != nil {
			slog.Warn("failed to set session state", "key", "Now", "error", err.Error())
		}
		return nil, nil
	}
}
