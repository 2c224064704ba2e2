// Package ui is the terminal lock screen.
//
// Callbacks queued on the scheduler run from the bubbletea Update loop, which makes it the
// UI thread of the lock session.
package ui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/screenlock/log"
)

// Locker receives the user input.
type Locker interface {
	Submit(secret string)
	FailedAttempts() int
}

// Status reports the authentication progress.
type Status interface {
	LastPrompt() (string, bool)
	LastFailText() (string, bool)
	TimeSinceLockedString() string
	CheckWaiting() bool
	IsAuthenticated() bool
}

// Tasks is the queue of callbacks to run on the UI thread.
type Tasks interface {
	Tasks() <-chan func()
	Done() <-chan struct{}
}

// Model is the lock screen model. It implements the lock controller frontend.
type Model struct {
	locker Locker
	status Status
	tasks  Tasks

	input    textinput.Model
	width    int
	height   int
	quitting bool
	user     string
}

type options struct {
	user string
}

// Option is the function signature used to tweak the model creation.
type Option func(*options)

// WithUser displays name as the locked user.
func WithUser(name string) Option {
	return func(o *options) {
		o.user = name
	}
}

// New returns the lock screen model.
func New(locker Locker, status Status, tasks Tasks, args ...Option) *Model {
	var opts options
	for _, f := range args {
		f(&opts)
	}

	input := textinput.New()
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.Prompt = ""
	input.Focus()

	return &Model{
		locker: locker,
		status: status,
		tasks:  tasks,
		input:  input,
		user:   opts.user,
	}
}

// Init starts consuming the scheduled callbacks and refreshing the lock duration.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForTask(), tick())
}

// Update handles events and actions.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskMsg:
		msg.fn()
		if m.quitting {
			return m, tea.Quit
		}
		return m, m.waitForTask()

	case doneMsg:
		return m, tea.Quit

	case tickMsg:
		return m, tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlZ, tea.KeyCtrlBackslash:
			return m, nil
		case tea.KeyEnter:
			if m.status.CheckWaiting() {
				return m, nil
			}
			secret := m.input.Value()
			m.input.Reset()
			m.locker.Submit(secret)
			return m, nil
		}
		if m.status.CheckWaiting() {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the lock screen.
func (m *Model) View() string {
	lines := []string{titleStyle.Render(lockSymbol() + " Locked for " + m.status.TimeSinceLockedString())}
	if m.user != "" {
		lines = append(lines, helpStyle.Render(m.user))
	}
	lines = append(lines, "")

	if text, ok := m.status.LastFailText(); ok {
		style := failStyle
		if m.status.IsAuthenticated() {
			style = successStyle
		}
		lines = append(lines, style.Render(text))
	}

	prompt, _ := m.status.LastPrompt()
	if m.status.CheckWaiting() {
		lines = append(lines, promptStyle.Render(prompt)+helpStyle.Render("Checking…"))
	} else {
		lines = append(lines, promptStyle.Render(prompt)+m.input.View())
	}

	if n := m.locker.FailedAttempts(); n > 0 {
		lines = append(lines, "", helpStyle.Render(attemptsText(n)))
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// ClearInput empties the input field.
func (m *Model) ClearInput() {
	m.input.Reset()
}

// Redraw is a no-op: the screen is rendered again after every callback.
func (m *Model) Redraw() {}

// Quit ends the program once the current callback returns.
func (m *Model) Quit() {
	m.quitting = true
}

// Run runs the lock screen until it quits or ctx is done.
func Run(ctx context.Context, m *Model, in io.Reader, out io.Writer) (err error) {
	defer decorate.OnError(&err, "lock screen")

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		// Signals are handled by the lock controller.
		tea.WithoutSignalHandler(),
	}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}

	log.Debug(ctx, "Starting lock screen")
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

type (
	taskMsg struct{ fn func() }
	doneMsg struct{}
	tickMsg time.Time
)

func (m *Model) waitForTask() tea.Cmd {
	tasks, done := m.tasks.Tasks(), m.tasks.Done()
	return func() tea.Msg {
		select {
		case fn := <-tasks:
			return taskMsg{fn: fn}
		case <-done:
			return doneMsg{}
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
