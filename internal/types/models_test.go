package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/user/gyaansetu/pkg/tutor"
)

func TestHistoryEntryJSONFields(t *testing.T) {
	entry := HistoryEntry{
		ID:          NewEntryID(),
		Topic:       "Go",
		LessonTitle: "Basics",
		Content:     "# Basics",
		Syllabus:    []tutor.Lesson{{Title: "Basics", Summary: "types"}},
		LessonIndex: 0,
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"lessonTitle"`, `"lessonIndex"`, `"timestamp":"2026-01-02T03:04:05Z"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in %s", field, data)
		}
	}
}

func TestLessonTitleFor(t *testing.T) {
	syllabus := []tutor.Lesson{{Title: "Intro"}, {Title: ""}}
	tests := []struct {
		index int
		want  string
	}{
		{0, "Intro"},
		{1, "Lesson 2"},
		{5, "Lesson 6"},
		{-1, "Lesson 0"},
	}
	for _, tt := range tests {
		if got := LessonTitleFor(syllabus, tt.index); got != tt.want {
			t.Errorf("index %d: expected %q, got %q", tt.index, tt.want, got)
		}
	}
}
