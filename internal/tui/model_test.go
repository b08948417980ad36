package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/user/gyaansetu/internal/lecture"
	"github.com/user/gyaansetu/internal/reveal"
	"github.com/user/gyaansetu/pkg/tutor"
)

type fakeDriver struct {
	mu    sync.Mutex
	calls []string
	speed float64
	err   error
}

func (d *fakeDriver) record(call string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	return d.err
}

func (d *fakeDriver) Search(_ context.Context, q string) error { return d.record("search:" + q) }
func (d *fakeDriver) OpenLesson(_ context.Context, i int) error {
	return d.record("lesson:" + string(rune('0'+i)))
}
func (d *fakeDriver) Next(context.Context) error     { return d.record("next") }
func (d *fakeDriver) Previous(context.Context) error { return d.record("prev") }
func (d *fakeDriver) Repeat(context.Context) error   { return d.record("repeat") }

func (d *fakeDriver) SetSpeed(s float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = reveal.ClampSpeed(s)
}

func (d *fakeDriver) Speed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

func (d *fakeDriver) lastCall() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calls) == 0 {
		return ""
	}
	return d.calls[len(d.calls)-1]
}

func newTestModel(driver Driver) Model {
	m := NewModel(context.Background(), nil, driver, Options{NoColor: true})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysRunDriverActions(t *testing.T) {
	d := &fakeDriver{speed: 1}
	m := newTestModel(d)

	tests := []struct {
		key  string
		want string
	}{
		{"n", "next"},
		{"p", "prev"},
		{"r", "repeat"},
		{"3", "lesson:2"},
	}
	for _, tt := range tests {
		_, cmd := press(t, m, runes(tt.key))
		if cmd == nil {
			t.Fatalf("key %q produced no command", tt.key)
		}
		if msg := cmd(); msg != nil {
			t.Errorf("key %q returned %T", tt.key, msg)
		}
		if got := d.lastCall(); got != tt.want {
			t.Errorf("key %q called %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestActionErrorBecomesToast(t *testing.T) {
	d := &fakeDriver{speed: 1, err: errors.New("no lesson")}
	m := newTestModel(d)

	_, cmd := press(t, m, runes("n"))
	msg := cmd()
	if _, ok := msg.(actionErrMsg); !ok {
		t.Fatalf("msg = %T, want actionErrMsg", msg)
	}
	updated, _ := m.Update(msg)
	m = updated.(Model)
	if m.toast == nil || m.toast.Level != lecture.LevelError || m.toast.Message != "no lesson" {
		t.Errorf("toast = %+v", m.toast)
	}
}

func TestSearchPrompt(t *testing.T) {
	d := &fakeDriver{speed: 1}
	m := newTestModel(d)

	m, _ = press(t, m, runes("/"))
	if !m.searching {
		t.Fatal("expected search prompt")
	}
	m, _ = press(t, m, runes("python"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.searching {
		t.Error("prompt still open after enter")
	}
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	cmd()
	if got := d.lastCall(); got != "search:python" {
		t.Errorf("call = %q", got)
	}
}

func TestSearchPromptEscape(t *testing.T) {
	d := &fakeDriver{speed: 1}
	m := newTestModel(d)

	m, _ = press(t, m, runes("/"))
	m, _ = press(t, m, runes("x"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.searching || cmd != nil {
		t.Errorf("searching=%v cmd=%v after escape", m.searching, cmd != nil)
	}
	if d.lastCall() != "" {
		t.Errorf("unexpected call %q", d.lastCall())
	}
}

func TestSpeedKeys(t *testing.T) {
	d := &fakeDriver{speed: 1}
	m := newTestModel(d)

	_, cmd := press(t, m, runes("+"))
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if m.speed != 1.25 {
		t.Errorf("speed = %v, want 1.25", m.speed)
	}

	d.SetSpeed(reveal.MaxSpeed)
	m.speed = reveal.MaxSpeed
	_, cmd = press(t, m, runes("+"))
	updated, _ = m.Update(cmd())
	if got := updated.(Model).speed; got != reveal.MaxSpeed {
		t.Errorf("speed = %v, want clamped to %v", got, reveal.MaxSpeed)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(&fakeDriver{speed: 1})
	_, cmd := press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestLectureEventKeepsNewerFrames(t *testing.T) {
	m := newTestModel(nil)

	m = applyEvent(m, Event{Kind: EventFrame, Frame: reveal.Frame{State: reveal.State{Full: "abcdef", Revealed: "abcd", Revealing: true}}})
	m = applyEvent(m, Event{Kind: EventLecture, Lecture: lecture.Lecture{
		Phase: lecture.PhaseStreaming, Content: "abcdef", Revealed: "ab", Revealing: true,
	}})
	if m.revealed != "abcd" {
		t.Errorf("revealed = %q, stale snapshot overwrote frame", m.revealed)
	}

	m = applyEvent(m, Event{Kind: EventLecture, Lecture: lecture.Lecture{
		Phase: lecture.PhaseDone, Content: "other", Revealed: "other",
	}})
	if m.revealed != "other" || m.revealing {
		t.Errorf("revealed = %q revealing = %v after replacement", m.revealed, m.revealing)
	}
}

func TestToastExpires(t *testing.T) {
	m := newTestModel(nil)
	m = applyEvent(m, Event{Kind: EventNotify, Note: lecture.Notification{Level: lecture.LevelSuccess, Message: "saved"}})
	seq := m.toastSeq

	m = applyEvent(m, Event{Kind: EventNotify, Note: lecture.Notification{Level: lecture.LevelInfo, Message: "newer"}})
	updated, _ := m.Update(toastExpiredMsg(seq))
	m = updated.(Model)
	if m.toast == nil || m.toast.Message != "newer" {
		t.Errorf("old timer cleared newer toast: %+v", m.toast)
	}

	updated, _ = m.Update(toastExpiredMsg(m.toastSeq))
	if updated.(Model).toast != nil {
		t.Error("toast not cleared")
	}
}

func TestViewShowsCourse(t *testing.T) {
	m := newTestModel(&fakeDriver{speed: 1})
	m = applyEvent(m, Event{Kind: EventLecture, Lecture: lecture.Lecture{
		Phase:       lecture.PhaseStreaming,
		Topic:       "Python",
		Mode:        tutor.ModeCourse,
		Syllabus:    []tutor.Lesson{{Title: "Basics"}, {Title: "Loops"}},
		LessonIndex: 1,
		Content:     "Loops repeat\n\n",
		Revealed:    "Loops",
		Revealing:   true,
	}})

	view := m.View()
	for _, want := range []string{"Python", "Lesson 2/2: Loops", "streaming", "1x", "[2.Loops]", "Loops"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		l    lecture.Lecture
		want string
	}{
		{lecture.Lecture{}, "Press / to search"},
		{lecture.Lecture{Query: "go"}, "Connecting"},
		{lecture.Lecture{Phase: lecture.PhaseMeta}, "Preparing"},
		{lecture.Lecture{Phase: lecture.PhaseError, Error: "boom"}, "Error: boom"},
	}
	for _, tt := range tests {
		if got := renderPlaceholder(tt.l, true); !strings.Contains(got, tt.want) {
			t.Errorf("placeholder(%v) = %q, want %q", tt.l.Phase, got, tt.want)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Title\n\nSome **bold** text.", 80, true)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("rendered = %q", out)
	}
}

func TestSyllabusTruncatesByDisplayWidth(t *testing.T) {
	l := lecture.Lecture{
		Mode:     tutor.ModeCourse,
		Syllabus: []tutor.Lesson{{Title: "परिचय"}, {Title: "चर और प्रकार"}},
	}

	got := renderSyllabus(l, 12, true)
	if !utf8.ValidString(got) {
		t.Fatalf("syllabus is not valid UTF-8: %q", got)
	}
	if w := ansi.StringWidth(got); w > 12 {
		t.Errorf("width = %d, want <= 12: %q", w, got)
	}
	if !strings.HasPrefix(got, "[1.") || !strings.HasSuffix(got, "…") {
		t.Errorf("syllabus = %q", got)
	}

	full := renderSyllabus(l, 200, true)
	if full != "[1.परिचय]  2.चर और प्रकार" {
		t.Errorf("untruncated syllabus = %q", full)
	}
}
