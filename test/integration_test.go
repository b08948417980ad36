//go:build integration

package test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/gyaansetu/internal/lecture"
	"github.com/user/gyaansetu/internal/reveal"
	"github.com/user/gyaansetu/internal/state"
	"github.com/user/gyaansetu/pkg/tutor"
	"github.com/user/gyaansetu/pkg/tutor/remote"
)

// writeSplit writes frames in two pieces, flushing in between, so lines
// cross read boundaries.
func writeSplit(t *testing.T, w http.ResponseWriter, frames ...string) {
	t.Helper()
	flusher := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	for _, f := range frames {
		line := f + "\n"
		half := len(line) / 2
		w.Write([]byte(line[:half]))
		flusher.Flush()
		time.Sleep(2 * time.Millisecond)
		w.Write([]byte(line[half:]))
		flusher.Flush()
	}
}

func newBackend(t *testing.T) (*httptest.Server, *lessonLog) {
	t.Helper()
	log := &lessonLog{}
	mux := http.NewServeMux()

	mux.HandleFunc("/course-stream", func(w http.ResponseWriter, r *http.Request) {
		var req tutor.CourseRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !strings.HasPrefix(req.ThreadID, "course_") {
			t.Errorf("thread id = %q", req.ThreadID)
		}
		writeSplit(t, w,
			`{"type":"meta","topic":"Python","mode":"course","query":"`+req.Query+`","syllabus":[{"title":"Basics","summary":"s"},{"title":"Loops","summary":"s"}]}`,
			`{"type":"chunk","markdown":"# Python course"}`,
			`this line is not json`,
			`{"type":"done"}`,
		)
	})

	mux.HandleFunc("/lesson-stream", func(w http.ResponseWriter, r *http.Request) {
		var req tutor.LessonRequest
		json.NewDecoder(r.Body).Decode(&req)
		log.add(req)
		writeSplit(t, w,
			`{"type":"meta","topic":"Python","lesson_index":`+itoa(req.LessonIndex)+`}`,
			`{"type":"chunk","markdown":"## `+req.LessonTitle+`"}`,
			`{"type":"chunk","markdown":"Body of `+req.LessonTitle+`"}`,
			`{"type":"done"}`,
		)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, log
}

type lessonLog struct {
	mu   sync.Mutex
	reqs []tutor.LessonRequest
}

func (l *lessonLog) add(r tutor.LessonRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reqs = append(l.reqs, r)
}

func (l *lessonLog) all() []tutor.LessonRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]tutor.LessonRequest(nil), l.reqs...)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCourseToLessonToHistory(t *testing.T) {
	server, log := newBackend(t)
	dir := t.TempDir()

	client := remote.New(&tutor.Config{BaseURL: server.URL, TimeoutSeconds: 5, MaxConcurrent: 2})
	history := state.NewHistory(state.NewFileStorage(dir))

	viewer := lecture.New(lecture.Options{
		Streamer: client,
		History:  history,
		Clock:    reveal.SystemClock(),
		Interval: time.Millisecond,
		Speed:    reveal.MaxSpeed,
	})
	defer viewer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := viewer.Search(ctx, "teach me python"); err != nil {
		t.Fatal(err)
	}
	if err := viewer.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	l, rs := viewer.Snapshot()
	if l.Phase != lecture.PhaseDone || l.LessonIndex != 0 || !l.InCourse() {
		t.Fatalf("after course: %+v", l)
	}
	if l.Content != "## Basics\n\nBody of Basics\n\n" {
		t.Errorf("content = %q", l.Content)
	}
	if rs.Revealed != l.Content || rs.Revealing {
		t.Errorf("reveal = %+v", rs)
	}

	if err := viewer.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if err := viewer.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if l, _ := viewer.Snapshot(); l.LessonIndex != 1 || l.LessonTitle() != "Loops" {
		t.Errorf("after next: %+v", l)
	}

	reqs := log.all()
	if len(reqs) != 2 || reqs[0].LessonTitle != "Basics" || reqs[1].LessonIndex != 1 {
		t.Errorf("lesson requests = %+v", reqs)
	}

	// A fresh process sees the same history.
	reloaded := state.NewHistory(state.NewFileStorage(dir)).Entries()
	if len(reloaded) != 2 {
		t.Fatalf("history entries = %d, want 2", len(reloaded))
	}
	if reloaded[0].LessonTitle != "Loops" || reloaded[1].LessonTitle != "Basics" {
		t.Errorf("history order = %q, %q", reloaded[0].LessonTitle, reloaded[1].LessonTitle)
	}

	if err := viewer.OpenHistory(reloaded[1]); err != nil {
		t.Fatal(err)
	}
	if l, rs := viewer.Snapshot(); l.Content != "## Basics\n\nBody of Basics\n\n" || rs.Revealed != l.Content {
		t.Errorf("restored: %+v %+v", l, rs)
	}
}
