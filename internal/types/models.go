package types

import (
	"strconv"
	"time"

	"github.com/user/gyaansetu/pkg/tutor"
)

// HistoryEntry is one completed lesson in the learning history.
// Entries are immutable once recorded.
type HistoryEntry struct {
	ID          EntryID        `json:"id"`
	Topic       string         `json:"topic"`
	LessonTitle string         `json:"lessonTitle"`
	Content     string         `json:"content"`
	Syllabus    []tutor.Lesson `json:"syllabus"`
	LessonIndex int            `json:"lessonIndex"`
	Timestamp   time.Time      `json:"timestamp"`
	// Duration is the time from request to done, in seconds.
	Duration int `json:"duration"`
}

// LessonTitleFor returns the syllabus title at index, or "Lesson N".
func LessonTitleFor(syllabus []tutor.Lesson, index int) string {
	if index >= 0 && index < len(syllabus) && syllabus[index].Title != "" {
		return syllabus[index].Title
	}
	return "Lesson " + strconv.Itoa(index+1)
}
