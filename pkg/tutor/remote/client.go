package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/gyaansetu/pkg/tutor"
)

// Client implements tutor.Backend over the GyaanSetu HTTP API.
type Client struct {
	config *tutor.Config
	// httpClient serves request/response calls and carries a timeout.
	httpClient *http.Client
	// streamClient has no overall timeout; streams end when the backend
	// closes them or the caller cancels.
	streamClient *http.Client
	retry        *RetryPolicy
	// sem bounds concurrent request/response calls; nil when unbounded.
	sem *semaphore.Weighted
}

// New creates a client for the backend at config.BaseURL.
func New(config *tutor.Config) *Client {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		config:       config,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		retry:        DefaultRetryPolicy(),
	}
	if config.MaxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(int64(config.MaxConcurrent))
	}
	return c
}

// send performs a request/response call, waiting for a free slot first.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(req.Context(), 1); err != nil {
			return nil, fmt.Errorf("waiting for request slot: %w", err)
		}
		defer c.sem.Release(1)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	return resp, nil
}

// SetRetryPolicy replaces the policy used for read-only calls.
func (c *Client) SetRetryPolicy(p *RetryPolicy) {
	c.retry = p
}

// StatusError reports a non-OK HTTP status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// envelope is the success/error wrapper every JSON endpoint returns.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, endpoint string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	return req, nil
}

// openStream posts payload and returns the streaming body on 200 OK.
func (c *Client) openStream(ctx context.Context, endpoint string, payload any) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(msg)}
	}
	return resp.Body, nil
}

// CourseStream starts a course or single-topic lecture stream.
func (c *Client) CourseStream(ctx context.Context, req tutor.CourseRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/course-stream", req)
}

// LessonStream streams one lesson of a course.
func (c *Client) LessonStream(ctx context.Context, req tutor.LessonRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/lesson-stream", req)
}

// do posts payload, checks the envelope and decodes the body into out.
func (c *Client) do(ctx context.Context, endpoint string, payload, out any) error {
	req, err := c.newRequest(ctx, endpoint, payload)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return &tutor.APIError{Endpoint: endpoint, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// Doubt asks the tutor a question about the current lesson.
func (c *Client) Doubt(ctx context.Context, req tutor.DoubtRequest) (*tutor.DoubtAnswer, error) {
	var answer tutor.DoubtAnswer
	if err := c.do(ctx, "/doubt", req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// GenerateQuiz asks the backend for a quiz on a lesson.
func (c *Client) GenerateQuiz(ctx context.Context, req tutor.QuizRequest) (*tutor.Quiz, error) {
	var quiz tutor.Quiz
	if err := c.do(ctx, "/generate-quiz", req, &quiz); err != nil {
		return nil, err
	}
	if quiz.TotalQuestions == 0 {
		quiz.TotalQuestions = len(quiz.Questions)
	}
	return &quiz, nil
}

// SubmitQuiz grades a quiz. Submissions are never retried.
func (c *Client) SubmitQuiz(ctx context.Context, req tutor.QuizSubmission) (*tutor.QuizResult, error) {
	var result tutor.QuizResult
	if err := c.do(ctx, "/submit-quiz", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PerformanceDashboard fetches the learner's quiz performance summary.
func (c *Client) PerformanceDashboard(ctx context.Context, req tutor.DashboardRequest) (*tutor.Dashboard, error) {
	var dash tutor.Dashboard
	err := c.retry.Execute(ctx, func() error {
		dash = tutor.Dashboard{}
		return c.do(ctx, "/performance-dashboard", req, &dash)
	})
	if err != nil {
		return nil, err
	}
	return &dash, nil
}

// Roadmap fetches a learning roadmap for a skill as an opaque document.
func (c *Client) Roadmap(ctx context.Context, req tutor.RoadmapRequest) (json.RawMessage, error) {
	var resp struct {
		Roadmap json.RawMessage `json:"roadmap"`
	}
	err := c.retry.Execute(ctx, func() error {
		return c.do(ctx, "/roadmap", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Roadmap) == 0 {
		return nil, fmt.Errorf("no roadmap in response")
	}
	return resp.Roadmap, nil
}

// ExecuteCode runs code in the backend sandbox. A program that fails to
// compile or run is reported in the result, not as an error.
func (c *Client) ExecuteCode(ctx context.Context, req tutor.ExecRequest) (*tutor.ExecResult, error) {
	httpReq, err := c.newRequest(ctx, "/execute-code", req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: "/execute-code", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result tutor.ExecResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &result, nil
}

// DownloadNotes requests a PDF export of a lesson.
func (c *Client) DownloadNotes(ctx context.Context, req tutor.NotesRequest) (*tutor.Notes, error) {
	httpReq, err := c.newRequest(ctx, "/download-notes", req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: "/download-notes", StatusCode: resp.StatusCode, Body: string(data)}
	}

	// The backend reports failures as JSON even on 200.
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var env envelope
		if err := json.Unmarshal(data, &env); err == nil && env.Success != nil && !*env.Success {
			return nil, &tutor.APIError{Endpoint: "/download-notes", Message: env.Error}
		}
	}

	return &tutor.Notes{
		Filename: notesFilename(resp.Header.Get("Content-Disposition"), req.Topic),
		Data:     data,
	}, nil
}

func notesFilename(disposition, topic string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
		if _, after, ok := strings.Cut(disposition, "filename="); ok {
			if name := strings.Trim(after, `"; `); name != "" {
				return name
			}
		}
	}
	return topic + "_notes.pdf"
}
