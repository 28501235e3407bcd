package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// startupDelay gives bubbletea time to render the first frame before the
// worker starts sending updates.
const startupDelay = 50 * time.Millisecond

// RunWithWork runs model in a bubbletea program while work executes on a
// separate goroutine. work receives a send callback for pushing
// RowUpdateMsg/ErrorMsg updates; WorkDoneMsg is sent automatically when
// work returns. Blocks until the program exits and returns the model's
// error, if any.
func RunWithWork(out io.Writer, model ProgressModel, work func(send func(tea.Msg))) error {
	program := tea.NewProgram(model, tea.WithOutput(out))

	send := func(msg tea.Msg) {
		program.Send(msg)
		// Yield so the renderer can draw between bursts of updates;
		// negligible next to download and extraction time.
		time.Sleep(5 * time.Millisecond)
	}

	go func() {
		time.Sleep(startupDelay)
		work(send)
		program.Send(WorkDoneMsg{})
	}()

	final, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ProgressModel); ok {
		return m.Err()
	}
	return nil
}
