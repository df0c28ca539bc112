package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lance13c/auditor/internal/audit"
	"github.com/lance13c/auditor/internal/exploration"
)

const maxRecentPages = 6

// EventMsg carries an exploration progress event into the program
type EventMsg exploration.Event

// DoneMsg is sent once the audit has returned
type DoneMsg struct {
	Result *audit.Result
	Err    error
}

// ProgressModel shows a running audit: the page being explored, running
// counters and the most recent pages.
type ProgressModel struct {
	target  string
	cancel  context.CancelFunc
	styles  *Styles
	spinner spinner.Model
	width   int

	sessionID    string
	current      string
	depth        int
	screens      int
	interactions int
	lastRequest  string
	recent       []string

	done    bool
	aborted bool
	result  *audit.Result
	err     error
}

// NewProgressModel creates the model. cancel is called when the user quits
// before the audit finishes.
func NewProgressModel(target string, cancel context.CancelFunc) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &ProgressModel{
		target:  target,
		cancel:  cancel,
		styles:  NewStyles(),
		spinner: s,
	}
}

// Init implements tea.Model
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done {
				m.aborted = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case EventMsg:
		m.apply(exploration.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) apply(ev exploration.Event) {
	if ev.SessionID != "" {
		m.sessionID = ev.SessionID
	}
	m.screens = ev.Screens
	m.interactions = ev.Interactions

	switch ev.Kind {
	case exploration.EventPage:
		m.current = ev.URL
		m.depth = ev.Depth
		m.recent = append(m.recent, ev.URL)
		if len(m.recent) > maxRecentPages {
			m.recent = m.recent[len(m.recent)-maxRecentPages:]
		}
	case exploration.EventInteraction:
		m.lastRequest = fmt.Sprintf("%s → %s", ev.Request, ev.Status)
	}
}

// View implements tea.Model
func (m *ProgressModel) View() string {
	header := m.styles.Header.Render("auditor · " + m.target)

	if m.done {
		if m.err != nil && m.result == nil {
			return lipgloss.JoinVertical(lipgloss.Left, header, m.styles.ErrorBox.Render(m.err.Error()))
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, m.styles.Status.Render("Audit complete"))
	}

	var b strings.Builder
	current := m.current
	if current == "" {
		current = "starting..."
	}
	fmt.Fprintf(&b, "%s Exploring %s", m.spinner.View(), current)
	if m.current != "" {
		fmt.Fprintf(&b, " (depth %d)", m.depth)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s%d\n", m.styles.Label.Render("Screens explored"), m.screens)
	fmt.Fprintf(&b, "%s%d\n", m.styles.Label.Render("Interactions"), m.interactions)
	if m.lastRequest != "" {
		fmt.Fprintf(&b, "%s%s\n", m.styles.Label.Render("Last request"), m.lastRequest)
	}
	if len(m.recent) > 0 {
		b.WriteString("\n")
		for _, u := range m.recent {
			b.WriteString(m.styles.Muted.Render("  "+u) + "\n")
		}
	}

	footer := m.styles.Footer.Render("[q Stop audit]")
	return lipgloss.JoinVertical(lipgloss.Left, header, b.String(), footer)
}

// Result returns what the audit returned, once DoneMsg has arrived.
func (m *ProgressModel) Result() (*audit.Result, error) {
	return m.result, m.err
}

// Aborted reports whether the user stopped the audit.
func (m *ProgressModel) Aborted() bool {
	return m.aborted
}

// RunFunc runs an audit, reporting progress through onEvent.
type RunFunc func(ctx context.Context, onEvent func(exploration.Event)) (*audit.Result, error)

// RunWithProgress runs the audit while showing the progress view. When the
// user quits early the audit's context is cancelled and its partial result
// is still awaited.
func RunWithProgress(ctx context.Context, target string, run RunFunc) (*audit.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewProgressModel(target, cancel)
	p := tea.NewProgram(model)

	finished := make(chan DoneMsg, 1)
	go func() {
		res, err := run(ctx, func(ev exploration.Event) { p.Send(EventMsg(ev)) })
		done := DoneMsg{Result: res, Err: err}
		finished <- done
		p.Send(done)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return nil, fmt.Errorf("progress view failed: %w", err)
	}

	done := <-finished
	return done.Result, done.Err
}
