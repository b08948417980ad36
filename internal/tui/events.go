package tui

import (
	"github.com/user/gyaansetu/internal/lecture"
	"github.com/user/gyaansetu/internal/reveal"
)

// EventKind identifies viewer updates forwarded to the UI.
type EventKind int

const (
	EventLecture EventKind = iota
	EventFrame
	EventNotify
)

// Event is one viewer update.
type Event struct {
	Kind    EventKind
	Lecture lecture.Lecture
	Frame   reveal.Frame
	Note    lecture.Notification
}
