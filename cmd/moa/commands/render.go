package commands

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/moa/core"
)

// Theme defines the color scheme of the terminal output.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the default theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#ff5f87"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title    lipgloss.Style
	Prompt   lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Prompt:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Notice:   lipgloss.NewStyle().Foreground(t.Dim),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Selected: lipgloss.NewStyle().Foreground(t.Primary),
		Help:     lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
	}
}

// renderer prints the progress of a turn. Notices and timings go to errOut,
// the streamed answer goes to out.
type renderer struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	styles  Styles
	elapsed float64
}

func newRenderer(out, errOut io.Writer) *renderer {
	return &renderer{out: out, errOut: errOut, styles: NewStyles(DefaultTheme)}
}

// Progress is an engine.ProgressFunc.
func (r *renderer) Progress(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case core.EventTurnStarted:
		r.elapsed = 0
	case core.EventReferenceDone, core.EventAggregationStarted:
		fmt.Fprintln(r.errOut, r.styles.Notice.Render(ev.Notice()))
	case core.EventFragment:
		fmt.Fprint(r.out, ev.Text)
	case core.EventElapsed:
		r.elapsed = ev.Elapsed
	case core.EventTurnCompleted:
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.errOut, r.styles.Notice.Render(fmt.Sprintf("⏳ Total elapsed time: %.2f seconds", ev.Elapsed)))
	case core.EventTurnFailed:
		fmt.Fprintln(r.errOut, r.styles.Error.Render(ev.Notice()))
	}
}

// Elapsed returns the last elapsed time reported by the timer.
func (r *renderer) Elapsed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

func (r *renderer) title(s string) {
	fmt.Fprintln(r.out, r.styles.Title.Render(s))
}

func (r *renderer) info(format string, args ...any) {
	fmt.Fprintln(r.errOut, r.styles.Notice.Render(fmt.Sprintf(format, args...)))
}

func (r *renderer) errorf(format string, args ...any) {
	fmt.Fprintln(r.errOut, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// modelList renders models with a marker for the selected ones.
func (r *renderer) modelList(all, selected []string, aggregator string) string {
	chosen := make(map[string]bool, len(selected))
	for _, m := range selected {
		chosen[m] = true
	}

	var sb strings.Builder
	for _, m := range all {
		mark := "[ ]"
		line := m
		if chosen[m] {
			mark = "[x]"
			line = r.styles.Selected.Render(m)
		}
		if m == aggregator {
			line += r.styles.Help.Render(" (aggregator)")
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, line)
	}
	return sb.String()
}

// truncate shortens s to n runes followed by an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
