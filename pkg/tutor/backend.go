// Package tutor defines the GyaanSetu backend contract: the lecture stream
// events, the request/response payloads and the Backend port.
package tutor

import (
	"context"
	"encoding/json"
	"io"
)

// Streamer opens the ND-JSON lecture streams. The returned body must be
// closed by the caller; cancelling ctx aborts the transfer.
type Streamer interface {
	// CourseStream starts a course (or single-topic lecture) for a query.
	CourseStream(ctx context.Context, req CourseRequest) (io.ReadCloser, error)

	// LessonStream streams one lesson of a course.
	LessonStream(ctx context.Context, req LessonRequest) (io.ReadCloser, error)
}

// Backend is the full set of remote collaborators used by the client.
type Backend interface {
	Streamer

	Doubt(ctx context.Context, req DoubtRequest) (*DoubtAnswer, error)
	DownloadNotes(ctx context.Context, req NotesRequest) (*Notes, error)
	GenerateQuiz(ctx context.Context, req QuizRequest) (*Quiz, error)
	SubmitQuiz(ctx context.Context, req QuizSubmission) (*QuizResult, error)
	PerformanceDashboard(ctx context.Context, req DashboardRequest) (*Dashboard, error)
	Roadmap(ctx context.Context, req RoadmapRequest) (json.RawMessage, error)
	ExecuteCode(ctx context.Context, req ExecRequest) (*ExecResult, error)
}

// Config holds connection settings for a backend client.
type Config struct {
	BaseURL string
	APIKey  string
	// TimeoutSeconds bounds non-streaming calls. Streams are not bounded.
	TimeoutSeconds int
	// MaxConcurrent limits in-flight non-streaming calls. Zero means no limit.
	MaxConcurrent int
}

// APIError is a logical failure reported by the backend as
// {"success": false, "error": "..."}.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	return e.Endpoint + ": " + e.Message
}
