package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/gyaansetu/internal/lecture"
	"github.com/user/gyaansetu/internal/reveal"
)

// toastTTL is how long a notification stays on screen.
const toastTTL = 4 * time.Second

// speedStep is the change applied by the +/- keys.
const speedStep = 0.25

// Driver is the part of the viewer the UI controls.
type Driver interface {
	Search(ctx context.Context, query string) error
	OpenLesson(ctx context.Context, index int) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Repeat(ctx context.Context) error
	SetSpeed(speed float64)
	Speed() float64
}

// Model renders the lecture viewer using Bubble Tea.
type Model struct {
	ctx     context.Context
	events  <-chan Event
	driver  Driver
	noColor bool

	lecture   lecture.Lecture
	revealed  string
	revealing bool
	speed     float64
	toast     *lecture.Notification
	toastSeq  int

	viewport  viewport.Model
	input     textinput.Model
	searching bool
	ready     bool
	width     int
	height    int
	md        *markdown
}

// NewModel constructs a lecture UI model for an event stream.
func NewModel(ctx context.Context, events <-chan Event, driver Driver, opts Options) Model {
	input := textinput.New()
	input.Placeholder = "What do you want to learn?"
	input.Prompt = "search: "
	input.CharLimit = 200

	speed := 1.0
	if driver != nil {
		speed = driver.Speed()
	}
	return Model{
		ctx:     ctx,
		events:  events,
		driver:  driver,
		noColor: opts.NoColor,
		speed:   speed,
		input:   input,
		md:      newMarkdown(opts.NoColor),
	}
}

// Init waits for the first event.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update consumes viewer events, key presses and timers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = typed.Width, typed.Height
		h := max(typed.Height-chromeHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(typed.Width, h)
			m.ready = true
		} else {
			m.viewport.Width = typed.Width
			m.viewport.Height = h
		}
		m.input.Width = max(typed.Width-len(m.input.Prompt)-2, 10)
		m.refresh()
		return m, nil

	case EventMsg:
		m = applyEvent(m, typed.Event)
		cmds := []tea.Cmd{waitForEvent(m.events)}
		if typed.Event.Kind == EventNotify {
			cmds = append(cmds, expireToast(m.toastSeq))
		}
		return m, tea.Batch(cmds...)

	case actionErrMsg:
		m.toast = &lecture.Notification{Level: lecture.LevelError, Message: typed.err.Error()}
		m.toastSeq++
		return m, expireToast(m.toastSeq)

	case speedMsg:
		m.speed = float64(typed)
		return m, nil

	case toastExpiredMsg:
		if int(typed) == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(typed)
		}
		return m.updateKeys(typed)
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateSearch(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.input.Blur()
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		if query == "" {
			return m, nil
		}
		return m, m.act(func(d Driver, ctx context.Context) error { return d.Search(ctx, query) })
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m Model) updateKeys(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch s := key.String(); s {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.input.Focus()
	case "n":
		return m, m.act(Driver.Next)
	case "p":
		return m, m.act(Driver.Previous)
	case "r":
		return m, m.act(Driver.Repeat)
	case "+", "=":
		return m, m.setSpeed(m.speed + speedStep)
	case "-":
		return m, m.setSpeed(m.speed - speedStep)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		index := int(s[0] - '1')
		return m, m.act(func(d Driver, ctx context.Context) error { return d.OpenLesson(ctx, index) })
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	}
	return m, nil
}

// act runs a viewer operation off the update loop.
func (m Model) act(fn func(Driver, context.Context) error) tea.Cmd {
	if m.driver == nil {
		return nil
	}
	ctx, driver := m.ctx, m.driver
	return func() tea.Msg {
		if err := fn(driver, ctx); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) setSpeed(speed float64) tea.Cmd {
	if m.driver == nil {
		return nil
	}
	driver := m.driver
	return func() tea.Msg {
		driver.SetSpeed(speed)
		return speedMsg(driver.Speed())
	}
}

// applyEvent updates the model from a viewer event.
func applyEvent(m Model, event Event) Model {
	switch event.Kind {
	case EventLecture:
		l := event.Lecture
		m.lecture = l
		// Frames may already be ahead of the published snapshot.
		ahead := strings.HasPrefix(m.revealed, l.Revealed) && strings.HasPrefix(l.Content, m.revealed)
		if !ahead || !m.revealing {
			m.revealed = l.Revealed
			m.revealing = l.Revealing
		}
	case EventFrame:
		m = applyFrame(m, event.Frame)
	case EventNotify:
		note := event.Note
		m.toast = &note
		m.toastSeq++
	}
	m.refresh()
	return m
}

func applyFrame(m Model, f reveal.Frame) Model {
	m.revealed = f.Revealed
	m.revealing = !f.Done
	return m
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.body())
	if m.revealing {
		m.viewport.GotoBottom()
	}
}

// View renders the UI.
func (m Model) View() string {
	parts := []string{
		renderHeader(m.lecture, m.speed, m.noColor),
		renderSyllabus(m.lecture, m.width, m.noColor),
	}
	if m.ready {
		parts = append(parts, m.viewport.View())
	} else {
		parts = append(parts, m.body())
	}
	if m.searching {
		parts = append(parts, m.input.View())
	} else {
		parts = append(parts, renderToast(m.toast, m.noColor))
	}
	parts = append(parts, renderHelp(m.noColor))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) body() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.revealed == "" {
		return renderPlaceholder(m.lecture, m.noColor)
	}
	if m.lecture.Phase == lecture.PhaseDone && !m.revealing && m.revealed == m.lecture.Content {
		return m.md.render(m.revealed, width)
	}
	return lipgloss.NewStyle().Width(max(width-2, 20)).Render(m.revealed)
}

// EventMsg wraps a viewer event for Bubble Tea.
type EventMsg struct {
	Event Event
}

type actionErrMsg struct{ err error }

type speedMsg float64

type toastExpiredMsg int

// waitForEvent blocks until a viewer event is available.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		event, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: event}
	}
}

func expireToast(seq int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg(seq) })
}
