package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/mosaic/internal/events"
)

// frameMsg drives one redraw: statuses and widget order are re-read
// from the scheduler and layout engine before View runs.
type frameMsg time.Time

// eventMsg is one bus event delivered over the subscription bridge.
type eventMsg events.Event

func frameTick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// receiveNextEvent blocks on the hub subscription and resolves to an
// eventMsg. Update re-arms it after each delivery, so exactly one
// receive is in flight at a time.
func receiveNextEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}
