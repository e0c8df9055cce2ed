package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	youLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	botLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	errLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

// answerWriter prefixes a streamed answer with the bot label on its first
// write and closes it with a newline.
type answerWriter struct {
	out     io.Writer
	started bool
}

func newAnswerWriter(out io.Writer) *answerWriter {
	if out == nil {
		out = io.Discard
	}
	return &answerWriter{out: out}
}

func (w *answerWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		if _, err := io.WriteString(w.out, botLabel.Render("Bot:")+" "); err != nil {
			return 0, err
		}
	}
	return w.out.Write(p)
}

// finish ends the current answer, if one was started.
func (w *answerWriter) finish() {
	if !w.started {
		return
	}
	w.started = false
	_, _ = io.WriteString(w.out, "\n")
}
