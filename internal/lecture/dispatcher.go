package lecture

import (
	"time"

	"github.com/user/gyaansetu/internal/types"
	"github.com/user/gyaansetu/pkg/tutor"
)

// Phase is the lifecycle position of the current stream.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMeta
	PhaseStreaming
	PhaseDone
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMeta:
		return "meta-received"
	case PhaseStreaming:
		return "streaming"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// StreamKind tells which endpoint a stream came from.
type StreamKind int

const (
	KindCourse StreamKind = iota
	KindLesson
)

// chunkSeparator follows every appended fragment.
const chunkSeparator = "\n\n"

// Lecture is the viewer state visible to observers.
type Lecture struct {
	Phase       Phase
	Kind        StreamKind
	ThreadID    types.ThreadID
	Query       string
	Topic       string
	Mode        string
	Syllabus    []tutor.Lesson
	LessonIndex int
	Content     string
	Error       string

	// Revealed and Revealing mirror the animator when the state is published.
	Revealed  string
	Revealing bool
}

// InCourse reports whether lesson navigation goes through the lesson stream.
func (l Lecture) InCourse() bool {
	return l.Mode == tutor.ModeCourse && len(l.Syllabus) > 0
}

// LessonTitle is the title of the current lesson, or the topic when there
// is no syllabus.
func (l Lecture) LessonTitle() string {
	if len(l.Syllabus) == 0 {
		return l.Topic
	}
	return types.LessonTitleFor(l.Syllabus, l.LessonIndex)
}

// Effects are the side effects requested by one dispatcher step.
type Effects struct {
	// Reveal asks for the current content to be animated.
	Reveal bool
	// Record is a history entry to persist.
	Record *types.HistoryEntry
	// Notify is a message for the user.
	Notify *Notification
	// FollowUp is a lesson stream to open next.
	FollowUp *tutor.LessonRequest
}

// Dispatcher turns stream events into state transitions and effects.
// It does no I/O.
type Dispatcher struct {
	state   Lecture
	started time.Time
}

// State returns a copy of the current state.
func (d *Dispatcher) State() Lecture {
	s := d.state
	s.Syllabus = append([]tutor.Lesson(nil), d.state.Syllabus...)
	return s
}

// Reset forgets everything, including the course.
func (d *Dispatcher) Reset() {
	d.state = Lecture{}
	d.started = time.Time{}
}

// Begin prepares for a new stream of the given kind. The course context
// (topic, mode, syllabus, thread) is kept for lesson navigation.
func (d *Dispatcher) Begin(kind StreamKind, started time.Time) {
	d.state.Phase = PhaseIdle
	d.state.Kind = kind
	d.state.Content = ""
	d.state.Error = ""
	d.started = started
}

// SetThread records the conversation a course query belongs to.
func (d *Dispatcher) SetThread(id types.ThreadID, query string) {
	d.state.ThreadID = id
	d.state.Query = query
}

// SetLesson records the lesson being requested before its meta arrives.
func (d *Dispatcher) SetLesson(index int) {
	d.state.LessonIndex = index
}

// Apply advances the state machine by one event.
func (d *Dispatcher) Apply(ev tutor.Event, now time.Time) Effects {
	if d.state.Phase == PhaseDone || d.state.Phase == PhaseError {
		return Effects{}
	}

	switch ev := ev.(type) {
	case tutor.MetaEvent:
		d.applyMeta(ev)
		return Effects{}

	case tutor.ChunkEvent:
		d.state.Phase = PhaseStreaming
		d.state.Content += ev.Markdown + chunkSeparator
		return Effects{Reveal: true}

	case tutor.DoneEvent:
		d.state.Phase = PhaseDone
		return d.complete(now)

	case tutor.ErrorEvent:
		d.state.Phase = PhaseError
		d.state.Error = ev.Message
		return Effects{Notify: &Notification{Level: LevelError, Message: "Error: " + ev.Message}}
	}
	return Effects{}
}

func (d *Dispatcher) applyMeta(ev tutor.MetaEvent) {
	d.state.Phase = PhaseMeta
	d.state.Content = ""
	d.state.Error = ""
	if ev.Topic != "" {
		d.state.Topic = ev.Topic
	}
	if ev.Mode != "" {
		d.state.Mode = ev.Mode
	}
	if ev.HasSyllabus {
		d.state.Syllabus = append([]tutor.Lesson(nil), ev.Syllabus...)
	}
	d.state.LessonIndex = ev.LessonIndex
}

// complete decides what a finished stream leads to: the first lesson of a
// fresh course, or a history entry.
func (d *Dispatcher) complete(now time.Time) Effects {
	if d.state.Kind == KindCourse && d.state.InCourse() {
		return Effects{FollowUp: &tutor.LessonRequest{
			Topic:       d.state.Topic,
			LessonIndex: 0,
			LessonTitle: types.LessonTitleFor(d.state.Syllabus, 0),
		}}
	}
	if d.state.Content == "" {
		return Effects{}
	}

	entry := &types.HistoryEntry{
		ID:          types.NewEntryID(),
		Topic:       d.state.Topic,
		LessonTitle: d.state.LessonTitle(),
		Content:     d.state.Content,
		Syllabus:    append([]tutor.Lesson(nil), d.state.Syllabus...),
		LessonIndex: d.state.LessonIndex,
		Timestamp:   now,
	}
	if !d.started.IsZero() {
		entry.Duration = int(now.Sub(d.started).Seconds())
	}
	return Effects{
		Record: entry,
		Notify: &Notification{Level: LevelSuccess, Message: "Lesson loaded successfully!"},
	}
}

// Fail handles a transport failure of the current stream and returns the
// phase to idle. Content already shown is kept.
func (d *Dispatcher) Fail() Effects {
	d.state.Phase = PhaseIdle
	msg := "Failed to connect to the server."
	if d.state.Kind == KindLesson {
		msg = "Failed to load lesson content."
	}
	return Effects{Notify: &Notification{Level: LevelError, Message: msg}}
}

// Restore shows a history entry as a completed lesson.
func (d *Dispatcher) Restore(entry *types.HistoryEntry) {
	d.state = Lecture{
		Phase:       PhaseDone,
		Kind:        KindLesson,
		Topic:       entry.Topic,
		Syllabus:    append([]tutor.Lesson(nil), entry.Syllabus...),
		LessonIndex: entry.LessonIndex,
		Content:     entry.Content,
	}
	if len(entry.Syllabus) > 0 {
		d.state.Mode = tutor.ModeCourse
	} else {
		d.state.Mode = tutor.ModeSingle
	}
	d.started = time.Time{}
}
