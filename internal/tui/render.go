package tui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/user/gyaansetu/internal/lecture"
)

// chromeHeight is the number of lines around the content viewport.
const chromeHeight = 5

// renderHeader renders the topic and lesson line.
func renderHeader(l lecture.Lecture, speed float64, noColor bool) string {
	line := "GyaanSetu"
	if l.Topic != "" {
		line += " | " + l.Topic
	}
	if l.InCourse() {
		line += fmt.Sprintf(" | Lesson %d/%d: %s", l.LessonIndex+1, len(l.Syllabus), l.LessonTitle())
	}
	line += " | " + l.Phase.String()
	line += " | " + strconv.FormatFloat(speed, 'f', -1, 64) + "x"
	return stylize(line, noColor, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")))
}

// renderSyllabus lists the course lessons with the current one marked.
func renderSyllabus(l lecture.Lecture, width int, noColor bool) string {
	if !l.InCourse() {
		return ""
	}
	items := make([]string, 0, len(l.Syllabus))
	for i, lesson := range l.Syllabus {
		item := strconv.Itoa(i+1) + "." + lesson.Title
		if i == l.LessonIndex {
			item = "[" + item + "]"
		}
		items = append(items, item)
	}
	line := strings.Join(items, "  ")
	if width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	return stylize(line, noColor, lipgloss.NewStyle().Foreground(lipgloss.Color("242")))
}

// renderPlaceholder is shown before any text is revealed.
func renderPlaceholder(l lecture.Lecture, noColor bool) string {
	text := "Press / to search for a topic."
	switch l.Phase {
	case lecture.PhaseIdle:
		if l.Query != "" {
			text = "Connecting..."
		}
	case lecture.PhaseMeta, lecture.PhaseStreaming:
		text = "Preparing your lesson..."
	case lecture.PhaseError:
		text = "Error: " + l.Error
	}
	return stylize(text, noColor, lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")))
}

var toastColors = map[lecture.Level]lipgloss.Color{
	lecture.LevelInfo:    lipgloss.Color("39"),
	lecture.LevelSuccess: lipgloss.Color("42"),
	lecture.LevelWarning: lipgloss.Color("214"),
	lecture.LevelError:   lipgloss.Color("196"),
}

// renderToast renders the current notification line.
func renderToast(n *lecture.Notification, noColor bool) string {
	if n == nil {
		return ""
	}
	return stylize(n.Message, noColor, lipgloss.NewStyle().Foreground(toastColors[n.Level]))
}

// renderHelp renders the key bindings line.
func renderHelp(noColor bool) string {
	line := "/ search • n next • p prev • r repeat • 1-9 lesson • +/- speed • q quit"
	return stylize(line, noColor, lipgloss.NewStyle().Foreground(lipgloss.Color("240")))
}

// stylize applies optional styling.
func stylize(text string, noColor bool, style lipgloss.Style) string {
	if noColor || text == "" {
		return text
	}
	return style.Render(text)
}

// markdown renders finished lessons, caching the renderer per width and
// the last result.
type markdown struct {
	style string

	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
	lastIn   string
	lastOut  string
}

func newMarkdown(noColor bool) *markdown {
	style := "dark"
	if noColor {
		style = "notty"
	}
	return &markdown{style: style}
}

func (m *markdown) render(text string, width int) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	contentWidth := max(20, width-4)
	if m.renderer == nil || m.width != contentWidth {
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath(m.style),
			glamour.WithWordWrap(contentWidth),
		)
		if err != nil {
			return text
		}
		m.renderer, m.width = r, contentWidth
		m.lastIn, m.lastOut = "", ""
	}
	if text == m.lastIn && m.lastOut != "" {
		return m.lastOut
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	m.lastIn, m.lastOut = text, out
	return out
}

// RenderMarkdown renders markdown for plain terminal output.
func RenderMarkdown(text string, width int, noColor bool) string {
	return newMarkdown(noColor).render(text, width)
}
