// Package lecture drives a streamed lecture: it opens course and lesson
// streams, applies their events, animates the content and records
// finished lessons in the history.
package lecture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/gyaansetu/internal/reveal"
	"github.com/user/gyaansetu/internal/types"
	"github.com/user/gyaansetu/pkg/tutor"
)

// ErrClosed is returned by operations on a closed Viewer.
var ErrClosed = errors.New("viewer closed")

// errSuperseded stops the reader of a stream that is no longer active.
var errSuperseded = errors.New("stream superseded")

// Level grades a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a short user-facing message.
type Notification struct {
	Level   Level
	Message string
}

// Observer receives viewer updates. State and notification callbacks are
// delivered in order; frames arrive on the animator goroutine. Callbacks
// must not call back into the Viewer synchronously.
type Observer interface {
	LectureChanged(Lecture)
	Frame(reveal.Frame)
	Notify(Notification)
}

// Speaker reads a finished lesson aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Options configures a Viewer. Streamer is required.
type Options struct {
	Streamer tutor.Streamer
	History  types.HistoryStore
	Observer Observer
	Speaker  Speaker
	Clock    reveal.Clock
	Interval time.Duration
	Speed    float64
	Now      func() time.Time
}

// stream is one in-flight request. A new stream waits for prev to exit
// before reading so two readers never overlap.
type stream struct {
	kind   StreamKind
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	prev   *stream
}

// Viewer is the streaming lesson viewer. At most one stream is active;
// starting another supersedes it.
type Viewer struct {
	streamer tutor.Streamer
	history  types.HistoryStore
	observer Observer
	speaker  Speaker
	now      func() time.Time
	anim     *reveal.Animator

	mu     sync.Mutex
	d      Dispatcher
	active *stream
	last   *stream
	closed bool

	// emit keeps observer deliveries in state order.
	emit sync.Mutex

	phase   atomic.Int32
	spoken  atomic.Bool
	speakCx context.Context
	hush    context.CancelFunc

	sigMu   sync.Mutex
	changed chan struct{}
}

// New creates a Viewer.
func New(opts Options) *Viewer {
	v := &Viewer{
		streamer: opts.Streamer,
		history:  opts.History,
		observer: opts.Observer,
		speaker:  opts.Speaker,
		now:      opts.Now,
		changed:  make(chan struct{}),
	}
	if v.observer == nil {
		v.observer = nopObserver{}
	}
	if v.now == nil {
		v.now = time.Now
	}
	v.speakCx, v.hush = context.WithCancel(context.Background())
	v.anim = reveal.New(opts.Clock, opts.Interval, v.onFrame)
	if opts.Speed > 0 {
		v.anim.SetSpeed(opts.Speed)
	}
	return v
}

// update is what one operation publishes to the observer.
type update struct {
	state *Lecture
	notes []Notification
}

func (u *update) add(eff Effects) {
	if eff.Notify != nil {
		u.notes = append(u.notes, *eff.Notify)
	}
}

// publish must be called with mu held; it releases mu and delivers u.
func (v *Viewer) publish(u update) {
	v.phase.Store(int32(v.d.state.Phase))
	v.emit.Lock()
	v.mu.Unlock()
	defer v.emit.Unlock()

	if u.state != nil {
		v.observer.LectureChanged(*u.state)
	}
	for _, n := range u.notes {
		v.observer.Notify(n)
	}
	v.signal()
}

func (v *Viewer) snapshot() *Lecture {
	s := v.d.State()
	rs := v.anim.State()
	s.Revealed, s.Revealing = rs.Revealed, rs.Revealing
	return &s
}

// Search starts a new course for query on a fresh thread.
func (v *Viewer) Search(ctx context.Context, query string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.d.Reset()
	v.d.SetThread(types.NewThreadID(), query)
	v.startCourseLocked(ctx, query)
	v.publish(update{state: v.snapshot()})
	return nil
}

// OpenLesson streams lesson index of the current course. Outside a course
// it asks the backend to go to lesson index+1 on the current thread.
func (v *Viewer) OpenLesson(ctx context.Context, index int) error {
	return v.navigate(ctx, false, func(l Lecture) (int, string) {
		return index, "goto " + strconv.Itoa(index+1)
	})
}

// Next moves to the following lesson. It does nothing at the last lesson
// of a course.
func (v *Viewer) Next(ctx context.Context) error {
	return v.navigate(ctx, true, func(l Lecture) (int, string) {
		return l.LessonIndex + 1, "next"
	})
}

// Previous moves to the preceding lesson. It does nothing at the first
// lesson of a course.
func (v *Viewer) Previous(ctx context.Context) error {
	return v.navigate(ctx, true, func(l Lecture) (int, string) {
		return l.LessonIndex - 1, "previous"
	})
}

// Repeat replays the current lesson.
func (v *Viewer) Repeat(ctx context.Context) error {
	return v.navigate(ctx, false, func(l Lecture) (int, string) {
		return l.LessonIndex, "repeat"
	})
}

// navigate picks a lesson index in course mode, or a control word to send
// as a course query otherwise. With step set, a move that clamps back onto
// the current lesson is dropped.
func (v *Viewer) navigate(ctx context.Context, step bool, pick func(Lecture) (int, string)) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}

	cur := v.d.State()
	index, word := pick(cur)

	if !cur.InCourse() {
		if cur.ThreadID == "" {
			v.d.SetThread(types.NewThreadID(), word)
		} else {
			v.d.SetThread(cur.ThreadID, word)
		}
		v.startCourseLocked(ctx, word)
		v.publish(update{state: v.snapshot()})
		return nil
	}

	index = min(max(index, 0), len(cur.Syllabus)-1)
	if step && index == cur.LessonIndex {
		v.mu.Unlock()
		return nil
	}
	v.startLessonLocked(ctx, tutor.LessonRequest{
		Topic:       cur.Topic,
		LessonIndex: index,
		LessonTitle: types.LessonTitleFor(cur.Syllabus, index),
	})
	v.publish(update{state: v.snapshot()})
	return nil
}

// OpenHistory shows a saved lesson without touching the network.
func (v *Viewer) OpenHistory(entry *types.HistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("open history: nil entry")
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.cancelActiveLocked()
	v.d.Restore(entry)
	v.spoken.Store(true)
	v.anim.Restore(entry.Content)
	v.publish(update{state: v.snapshot()})
	return nil
}

// SetSpeed changes the reveal speed.
func (v *Viewer) SetSpeed(speed float64) {
	v.anim.SetSpeed(speed)
}

// Speed returns the current reveal speed.
func (v *Viewer) Speed() float64 {
	return v.anim.Speed()
}

// Snapshot returns the lecture state and the reveal state.
func (v *Viewer) Snapshot() (Lecture, reveal.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return *v.snapshot(), v.anim.State()
}

// Wait blocks until no stream is running and the reveal has caught up.
func (v *Viewer) Wait(ctx context.Context) error {
	for {
		v.sigMu.Lock()
		ch := v.changed
		v.sigMu.Unlock()

		v.mu.Lock()
		busy := v.active != nil
		v.mu.Unlock()
		if !busy && !v.anim.State().Revealing {
			// Let an in-progress delivery reach the observer.
			v.emit.Lock()
			v.emit.Unlock()
			return nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close aborts the active stream and stops the animation. It is safe to
// call more than once.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.cancelActiveLocked()
	last := v.last
	v.mu.Unlock()

	v.hush()
	v.anim.Stop()
	if last != nil {
		<-last.done
	}
	v.signal()
}

func (v *Viewer) cancelActiveLocked() {
	if v.active != nil {
		v.active.cancel()
		v.active = nil
	}
}

func (v *Viewer) startCourseLocked(ctx context.Context, query string) {
	req := tutor.CourseRequest{Query: query, ThreadID: string(v.d.state.ThreadID)}
	v.startLocked(ctx, KindCourse, func(ctx context.Context) (io.ReadCloser, error) {
		return v.streamer.CourseStream(ctx, req)
	})
}

func (v *Viewer) startLessonLocked(ctx context.Context, req tutor.LessonRequest) {
	v.d.SetLesson(req.LessonIndex)
	v.startLocked(ctx, KindLesson, func(ctx context.Context) (io.ReadCloser, error) {
		return v.streamer.LessonStream(ctx, req)
	})
}

// startLocked supersedes the active stream with a new one.
func (v *Viewer) startLocked(parent context.Context, kind StreamKind, open func(context.Context) (io.ReadCloser, error)) {
	v.cancelActiveLocked()

	ctx, cancel := context.WithCancel(parent)
	s := &stream{
		kind:   kind,
		parent: parent,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		prev:   v.last,
	}
	v.active = s
	v.last = s

	v.d.Begin(kind, v.now())
	v.spoken.Store(false)
	v.anim.Reset()

	go v.run(s, open)
}

func (v *Viewer) run(s *stream, open func(context.Context) (io.ReadCloser, error)) {
	defer close(s.done)
	defer s.cancel()

	if s.prev != nil {
		<-s.prev.done
		s.prev = nil
	}

	body, err := open(s.ctx)
	if err != nil {
		v.finish(s, err)
		return
	}
	defer body.Close()

	err = tutor.ReadEvents(s.ctx, body, func(ev tutor.Event) error {
		return v.apply(s, ev)
	})
	v.finish(s, err)
}

// apply runs one event through the dispatcher and carries out its effects.
func (v *Viewer) apply(s *stream, ev tutor.Event) error {
	v.mu.Lock()
	if v.active != s {
		v.mu.Unlock()
		return errSuperseded
	}

	eff := v.d.Apply(ev, v.now())
	v.phase.Store(int32(v.d.state.Phase))
	var u update
	u.add(eff)

	if eff.Reveal {
		v.anim.Reveal(v.d.state.Content)
	}
	if eff.Record != nil && v.history != nil {
		if err := v.history.Record(eff.Record); err != nil {
			slog.Warn("failed to save lesson to history", "topic", eff.Record.Topic, "error", err)
			u.notes = append(u.notes, Notification{Level: LevelWarning, Message: "Could not save lesson to history."})
		}
	}
	if eff.FollowUp != nil {
		v.startLessonLocked(s.parent, *eff.FollowUp)
	}
	if v.d.state.Phase == PhaseDone && !v.anim.State().Revealing {
		v.speak(v.d.state.Content)
	}
	u.state = v.snapshot()

	v.publish(u)
	return nil
}

// finish retires s. Failures are reported only for the active stream and
// only when they were not caused by cancellation.
func (v *Viewer) finish(s *stream, err error) {
	v.mu.Lock()
	if v.active != s {
		v.mu.Unlock()
		v.signal()
		return
	}
	v.active = nil

	var u update
	if err != nil && s.ctx.Err() == nil && !errors.Is(err, context.Canceled) {
		slog.Warn("lecture stream failed", "kind", s.kind, "error", err)
		u.add(v.d.Fail())
		u.state = v.snapshot()
	}
	v.publish(u)
}

func (v *Viewer) onFrame(f reveal.Frame) {
	v.observer.Frame(f)
	if f.Done {
		if Phase(v.phase.Load()) == PhaseDone {
			v.speak(f.Full)
		}
		v.signal()
	}
}

// speak reads text aloud once per stream.
func (v *Viewer) speak(text string) {
	if v.speaker == nil || !v.spoken.CompareAndSwap(false, true) {
		return
	}
	go func() {
		if err := v.speaker.Speak(v.speakCx, text); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("read aloud failed", "error", err)
		}
	}()
}

func (v *Viewer) signal() {
	v.sigMu.Lock()
	close(v.changed)
	v.changed = make(chan struct{})
	v.sigMu.Unlock()
}

type nopObserver struct{}

func (nopObserver) LectureChanged(Lecture) {}
func (nopObserver) Frame(reveal.Frame)     {}
func (nopObserver) Notify(Notification)    {}
