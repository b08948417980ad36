package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/user/gyaansetu/pkg/ndjson"
)

// EventType names a stream event variant on the wire.
type EventType string

const (
	EventMeta  EventType = "meta"
	EventChunk EventType = "chunk"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Mode values carried by meta events.
const (
	ModeCourse = "course"
	ModeSingle = "single"
)

// Event is one decoded frame of a lecture stream. It is implemented by
// MetaEvent, ChunkEvent, DoneEvent and ErrorEvent only.
type Event interface {
	Type() EventType
	isEvent()
}

// Lesson describes one entry of a course syllabus.
type Lesson struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// MetaEvent opens a stream. Course streams carry the syllabus; lesson
// streams carry only the topic and lesson index.
type MetaEvent struct {
	Topic       string
	Mode        string
	Query       string
	Syllabus    []Lesson
	LessonIndex int
	// HasSyllabus is false when the frame carried no syllabus field at all.
	HasSyllabus bool
}

// ChunkEvent carries a markdown fragment to append.
type ChunkEvent struct {
	Markdown string
}

// DoneEvent marks the end of a successful stream.
type DoneEvent struct{}

// ErrorEvent reports a backend failure inside the stream.
type ErrorEvent struct {
	Message string
}

func (MetaEvent) Type() EventType  { return EventMeta }
func (ChunkEvent) Type() EventType { return EventChunk }
func (DoneEvent) Type() EventType  { return EventDone }
func (ErrorEvent) Type() EventType { return EventError }

func (MetaEvent) isEvent()  {}
func (ChunkEvent) isEvent() {}
func (DoneEvent) isEvent()  {}
func (ErrorEvent) isEvent() {}

// ErrUnknownEvent is returned by ParseEvent for frames whose type is not
// one of the known variants.
var ErrUnknownEvent = errors.New("unknown event type")

// frame is the loose wire shape of every event.
type frame struct {
	Type          EventType       `json:"type"`
	Topic         string          `json:"topic"`
	Mode          string          `json:"mode"`
	Query         string          `json:"query"`
	Syllabus      json.RawMessage `json:"syllabus"`
	CurrentLesson *int            `json:"current_lesson"`
	LessonIndex   *int            `json:"lesson_index"`
	Markdown      string          `json:"markdown"`
	Error         string          `json:"error"`
}

// ParseEvent validates a single ND-JSON line into an Event.
func ParseEvent(line []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(line, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}

	switch f.Type {
	case EventMeta:
		meta := MetaEvent{Topic: f.Topic, Mode: f.Mode, Query: f.Query}
		switch {
		case f.CurrentLesson != nil:
			meta.LessonIndex = *f.CurrentLesson
		case f.LessonIndex != nil:
			meta.LessonIndex = *f.LessonIndex
		}
		meta.Syllabus, meta.HasSyllabus = parseSyllabus(f.Syllabus)
		return meta, nil
	case EventChunk:
		return ChunkEvent{Markdown: f.Markdown}, nil
	case EventDone:
		return DoneEvent{}, nil
	case EventError:
		msg := f.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return ErrorEvent{Message: msg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Type)
	}
}

// parseSyllabus accepts an array of lessons. Anything else (missing,
// null, a string) is treated as an empty syllabus.
func parseSyllabus(raw json.RawMessage) ([]Lesson, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var lessons []Lesson
	if err := json.Unmarshal(raw, &lessons); err != nil {
		return []Lesson{}, true
	}
	return lessons, true
}

// ReadEvents decodes an ND-JSON stream from r and calls fn for each valid
// event in arrival order. Malformed or unknown frames are dropped. It stops
// early when ctx is done or fn returns an error.
func ReadEvents(ctx context.Context, r io.Reader, fn func(Event) error) error {
	return ndjson.Scan(r, func(line string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, err := ParseEvent([]byte(line))
		if err != nil {
			slog.Debug("dropped stream frame", "error", err)
			return nil
		}
		return fn(event)
	})
}
