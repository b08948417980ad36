package tui

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/gyaansetu/internal/lecture"
	"github.com/user/gyaansetu/internal/reveal"
)

// Controller runs the lecture UI and implements lecture.Observer.
type Controller struct {
	events chan Event
	opts   Options
	done   chan struct{}

	mu      sync.Mutex
	program *tea.Program
	quit    bool
}

var _ lecture.Observer = (*Controller)(nil)

// New creates a controller. The UI starts with Run.
func New(opts Options) *Controller {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Controller{
		events: make(chan Event, 256),
		opts:   opts,
		done:   make(chan struct{}),
	}
}

// Run shows the UI until the user quits or Quit is called. Key presses
// are forwarded to driver.
func (c *Controller) Run(ctx context.Context, driver Driver) error {
	defer close(c.done)

	model := NewModel(ctx, c.events, driver, c.opts)
	programOpts := []tea.ProgramOption{tea.WithOutput(c.opts.Output), tea.WithContext(ctx)}
	if c.opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(c.opts.Input))
	}
	if !c.opts.Inline {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, programOpts...)

	c.mu.Lock()
	c.program = program
	quit := c.quit
	c.mu.Unlock()
	if quit {
		return nil
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Quit stops the UI. It is safe to call before Run.
func (c *Controller) Quit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quit = true
	if c.program != nil {
		c.program.Quit()
	}
}

// LectureChanged forwards state changes to the UI.
func (c *Controller) LectureChanged(l lecture.Lecture) {
	c.send(Event{Kind: EventLecture, Lecture: l}, true)
}

// Frame forwards reveal frames. Intermediate frames may be dropped when
// the UI falls behind; the next frame carries the full state.
func (c *Controller) Frame(f reveal.Frame) {
	c.send(Event{Kind: EventFrame, Frame: f}, f.Done)
}

// Notify forwards notifications to the UI.
func (c *Controller) Notify(n lecture.Notification) {
	c.send(Event{Kind: EventNotify, Note: n}, true)
}

func (c *Controller) send(event Event, must bool) {
	if !must {
		select {
		case c.events <- event:
		default:
		}
		return
	}
	select {
	case c.events <- event:
	case <-c.done:
	}
}

// Options configures the UI.
type Options struct {
	Output  io.Writer
	Input   io.Reader
	Inline  bool
	NoColor bool
}
