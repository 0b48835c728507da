package notify

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/id8-org/id8/internal/idea"
)

// jobLabels are the human-readable names used in console output.
var jobLabels = map[idea.JobKind]string{
	idea.JobDeepDive:    "deep dive",
	idea.JobIterating:   "iteration",
	idea.JobConsidering: "consideration",
	idea.JobClosure:     "closure",
}

// Console renders progress events as styled terminal lines.
type Console struct {
	out io.Writer

	started   lipgloss.Style
	completed lipgloss.Style
	timeout   lipgloss.Style
	failed    lipgloss.Style
	title     lipgloss.Style
}

// NewConsole creates a console sink writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:       out,
		started:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		completed: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		timeout:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		title:     lipgloss.NewStyle().Bold(true),
	}
}

// Notify writes one styled line per event.
func (c *Console) Notify(ev Event) {
	label, ok := jobLabels[ev.Job]
	if !ok {
		label = string(ev.Job)
	}
	title := c.title.Render(ev.IdeaTitle)

	var line string
	switch ev.Kind {
	case EventStarted:
		line = c.started.Render("▸") + fmt.Sprintf(" %s analysis started for %s", label, title)
	case EventCompleted:
		line = c.completed.Render("✓") + fmt.Sprintf(" %s analysis complete for %s", label, title)
	case EventTimeout:
		line = c.timeout.Render("…") + fmt.Sprintf(" %s analysis timed out for %s", label, title)
	case EventFailed:
		line = c.failed.Render("✗") + fmt.Sprintf(" %s analysis failed for %s", label, title)
	default:
		line = fmt.Sprintf("%s %s for %s", ev.Kind, label, title)
	}
	fmt.Fprintln(c.out, line)
}
